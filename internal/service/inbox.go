package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Inbox is the notifications page's data.
type Inbox struct {
	Notifications []domain.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// InboxService manages a user's notifications.
type InboxService struct {
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewInboxService creates an inbox service.
func NewInboxService(notifications repository.NotificationRepository, logger *slog.Logger) *InboxService {
	return &InboxService{notifications: notifications, logger: logger}
}

// List returns the user's notifications, newest first.
func (s *InboxService) List(ctx context.Context, id domain.Identity) (*Inbox, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	list, err := s.notifications.ListByUser(ctx, id.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load notifications", slog.String("error", err.Error()))
		return nil, storeError("load notifications", err)
	}

	inbox := &Inbox{Notifications: list}
	for _, n := range list {
		if !n.IsRead {
			inbox.Unread++
		}
	}
	return inbox, nil
}

// MarkRead flags a notification as read.
func (s *InboxService) MarkRead(ctx context.Context, id domain.Identity, notificationID string) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if err := s.notifications.MarkRead(ctx, id.UserID, notificationID); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark notification read",
			slog.String("notification_id", notificationID),
			slog.String("error", err.Error()),
		)
		return storeError("mark notification read", err)
	}
	return nil
}

// Delete removes a notification.
func (s *InboxService) Delete(ctx context.Context, id domain.Identity, notificationID string) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id.UserID, notificationID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete notification",
			slog.String("notification_id", notificationID),
			slog.String("error", err.Error()),
		)
		return storeError("delete notification", err)
	}
	return nil
}

// Send delivers a notification to userID. Only admins may send.
func (s *InboxService) Send(ctx context.Context, sender domain.Identity, userID, title, message string) (*domain.Notification, error) {
	if err := requireIdentity(sender); err != nil {
		return nil, err
	}
	if !sender.IsAdmin {
		return nil, apperrors.Forbidden("only admins can send notifications")
	}

	n, err := s.notifications.Insert(ctx, &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send notification",
			slog.String("recipient_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, storeError("send notification", err)
	}

	s.logger.InfoContext(ctx, "notification sent",
		slog.String("notification_id", n.ID),
		slog.String("recipient_id", userID),
	)
	return n, nil
}
