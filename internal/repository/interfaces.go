package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
)

// All repository interfaces in one file
type (
	// NotificationRepository handles the persisted notification records.
	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		// FindRecent looks up a notification matching the dedup tuple
		// created at or after the cutoff. Returns nil, nil when none exists.
		FindRecent(ctx context.Context, userID uuid.UUID, typ model.NotificationType, entityID string, triggeredBy *uuid.UUID, since time.Time) (*model.Notification, error)
		ListByUser(ctx context.Context, userID uuid.UUID, filter model.NotificationFilter, page, limit int) ([]*model.Notification, int64, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
		// MarkRead flips is_read for an owned notification. Idempotent:
		// read_at is only set on the first transition. Returns the updated
		// row, or nil when the id does not exist or is not owned by userID.
		MarkRead(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error)
		MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
		// Delete removes an owned notification and reports whether it was
		// unread at the time of deletion. found is false for foreign ids.
		Delete(ctx context.Context, userID, id uuid.UUID) (found bool, wasUnread bool, err error)
		DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	}

	// UserRepository reads the slice of user data this subsystem needs.
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
