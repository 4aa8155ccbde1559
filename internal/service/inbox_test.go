package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func TestInbox_ListCountsUnread(t *testing.T) {
	repo := new(mockNotificationRepository)
	svc := NewInboxService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("ListByUser", ctx, "user-1").Return([]domain.Notification{
		{ID: "n1", IsRead: false},
		{ID: "n2", IsRead: true},
		{ID: "n3", IsRead: false},
	}, nil)

	inbox, err := svc.List(ctx, shopper)
	require.NoError(t, err)
	assert.Len(t, inbox.Notifications, 3)
	assert.Equal(t, 2, inbox.Unread)
}

func TestInbox_MarkReadAndDelete(t *testing.T) {
	repo := new(mockNotificationRepository)
	svc := NewInboxService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("MarkRead", ctx, "user-1", "n1").Return(nil)
	repo.On("Delete", ctx, "user-1", "n2").Return(apperrors.NotFound("notification", "n2"))

	require.NoError(t, svc.MarkRead(ctx, shopper, "n1"))
	assert.ErrorIs(t, svc.Delete(ctx, shopper, "n2"), apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestInbox_RequiresIdentity(t *testing.T) {
	repo := new(mockNotificationRepository)
	svc := NewInboxService(repo, newTestLogger())

	_, err := svc.List(context.Background(), domain.Identity{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestInbox_SendRequiresAdmin(t *testing.T) {
	repo := new(mockNotificationRepository)
	svc := NewInboxService(repo, newTestLogger())
	ctx := context.Background()

	_, err := svc.Send(ctx, shopper, "user-2", "Hello", "Welcome")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)

	admin := domain.Identity{UserID: "admin-1", IsAdmin: true}
	repo.On("Insert", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "user-2" && n.Title == "Hello" && !n.IsRead
	})).Return(&domain.Notification{ID: "n9", UserID: "user-2", Title: "Hello"}, nil)

	n, err := svc.Send(ctx, admin, "user-2", "Hello", "Welcome")
	require.NoError(t, err)
	assert.Equal(t, "n9", n.ID)
	repo.AssertExpectations(t)
}
