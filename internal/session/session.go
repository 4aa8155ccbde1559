package session

import (
	"context"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
)

// Change is delivered to subscribers whenever the identity changes.
type Change struct {
	Identity domain.Identity
	SignedIn bool
}

// Session is the identity context of one client. Pages read Current() and
// may Subscribe to sign-in and sign-out.
type Session struct {
	manager *Manager

	mu       sync.Mutex
	identity *domain.Identity
	token    string
	subs     map[int]chan Change
	nextSub  int
	closed   bool
}

// New returns an anonymous Session.
func New(m *Manager) *Session {
	return &Session{manager: m, subs: make(map[int]chan Change)}
}

// Attach returns a Session already signed in as id with token.
func Attach(m *Manager, id domain.Identity, token string) *Session {
	s := New(m)
	s.identity = &id
	s.token = token
	return s
}

// Current returns the signed-in identity, if any.
func (s *Session) Current() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

// Token returns the session token, empty when anonymous.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers a listener. Only the latest unread Change is kept per
// listener. The returned func unsubscribes and closes the channel; it is safe
// to call more than once.
func (s *Session) Subscribe() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Change, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// SignIn signs in and notifies subscribers.
func (s *Session) SignIn(ctx context.Context, in Credentials) (*Grant, error) {
	grant, err := s.manager.SignIn(ctx, in)
	if err != nil {
		return nil, err
	}
	s.set(grant)
	return grant, nil
}

// SignUp creates an account, signs in and notifies subscribers.
func (s *Session) SignUp(ctx context.Context, in Credentials) (*Grant, error) {
	grant, err := s.manager.SignUp(ctx, in)
	if err != nil {
		return nil, err
	}
	s.set(grant)
	return grant, nil
}

// SignOut revokes the token and clears the identity. The local identity is
// cleared even when revocation fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	wasSignedIn := s.identity != nil
	s.identity = nil
	s.token = ""
	if wasSignedIn {
		s.notifyLocked(Change{})
	}
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	return s.manager.SignOut(ctx, token)
}

// Close unsubscribes every listener.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) set(g *Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := g.Identity
	s.identity = &id
	s.token = g.Token
	s.notifyLocked(Change{Identity: id, SignedIn: true})
}

// notifyLocked delivers c without blocking, replacing an unread Change.
func (s *Session) notifyLocked(c Change) {
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- c
		}
	}
}
