package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

// enrichedColumns joins the triggering actor's public profile onto the row.
const enrichedColumns = `
	n.id, n.user_id, n.type, n.triggered_by, n.entity_id, n.metadata,
	n.is_read, n.read_at, n.created_at,
	u.handle AS actor_handle,
	u.display_name AS actor_name,
	u.avatar_url AS actor_avatar
`

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	query := `
		INSERT INTO notifications (
			id, user_id, type, triggered_by, entity_id, metadata, is_read, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.TriggeredBy,
		n.EntityID,
		n.Metadata,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `
		SELECT ` + enrichedColumns + `
		FROM notifications n
		LEFT JOIN users u ON u.id = n.triggered_by
		WHERE n.id = $1
	`

	var n model.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) FindRecent(ctx context.Context, userID uuid.UUID, typ model.NotificationType, entityID string, triggeredBy *uuid.UUID, since time.Time) (*model.Notification, error) {
	query := `
		SELECT ` + enrichedColumns + `
		FROM notifications n
		LEFT JOIN users u ON u.id = n.triggered_by
		WHERE n.user_id = $1
		  AND n.type = $2
		  AND n.entity_id = $3
		  AND n.triggered_by IS NOT DISTINCT FROM $4
		  AND n.created_at >= $5
		ORDER BY n.created_at DESC
		LIMIT 1
	`

	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, userID, typ, entityID, triggeredBy, since)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recent notifications: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter model.NotificationFilter, page, limit int) ([]*model.Notification, int64, error) {
	where := "n.user_id = $1"
	switch filter {
	case model.NotificationFilterRead:
		where += " AND n.is_read = TRUE"
	case model.NotificationFilterUnread:
		where += " AND n.is_read = FALSE"
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM notifications n WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT ` + enrichedColumns + `
		FROM notifications n
		LEFT JOIN users u ON u.id = n.triggered_by
		WHERE ` + where + `
		ORDER BY n.created_at DESC
		LIMIT $2 OFFSET $3
	`

	notifications := []*model.Notification{}
	offset := (page - 1) * limit
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	// read_at only moves on the first transition; a second call is a no-op
	// that still returns the row.
	query := `
		UPDATE notifications
		SET is_read = TRUE,
		    read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, type, triggered_by, entity_id, metadata, is_read, read_at, created_at
	`

	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE,
		    read_at = NOW()
		WHERE user_id = $1 AND is_read = FALSE
	`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	modified, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return modified, nil
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, bool, error) {
	query := `
		DELETE FROM notifications
		WHERE id = $1 AND user_id = $2
		RETURNING is_read
	`

	var isRead bool
	err := r.db.GetContext(ctx, &isRead, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to delete notification: %w", err)
	}
	return true, !isRead, nil
}

func (r *notificationRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications for user: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return deleted, nil
}
