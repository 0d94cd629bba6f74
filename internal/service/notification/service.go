package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/repository"
	apperrors "github.com/InfofriyendsTechnology/RateOn-sub001/pkg/errors"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/logger"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/metrics"
)

const (
	unreadCacheTTL     = 5 * time.Second
	unreadCacheCleanup = time.Minute
)

// Pusher is the slice of the real-time gateway this service needs. Both
// operations are best-effort; false means not delivered, never an error.
type Pusher interface {
	PushNotification(userID uuid.UUID, n *model.Notification) bool
	PushUnreadCount(userID uuid.UUID, count int64) bool
}

type Service interface {
	Notify(ctx context.Context, recipient uuid.UUID, typ model.NotificationType, triggeredBy *uuid.UUID, metadata model.Metadata) (*model.Notification, error)

	NotifyFollow(ctx context.Context, followee, follower uuid.UUID) (*model.Notification, error)
	NotifyNewReview(ctx context.Context, owner, reviewer uuid.UUID, reviewID, businessID string) (*model.Notification, error)
	NotifyReviewReply(ctx context.Context, reviewAuthor, replier uuid.UUID, reviewID, businessID string) (*model.Notification, error)
	NotifyReplyToReply(ctx context.Context, parentAuthor, replier uuid.UUID, replyID, reviewID, businessID string) (*model.Notification, error)
	NotifyReviewReaction(ctx context.Context, reviewAuthor, reactor uuid.UUID, reviewID, businessID string) (*model.Notification, error)
	NotifyReplyReaction(ctx context.Context, replyAuthor, reactor uuid.UUID, replyID, reviewID string) (*model.Notification, error)
	NotifyBusinessResponse(ctx context.Context, reviewAuthor, responder uuid.UUID, reviewID, businessID string) (*model.Notification, error)
	NotifyMention(ctx context.Context, mentioned, mentioner uuid.UUID, reviewID, businessID string) (*model.Notification, error)

	List(ctx context.Context, userID uuid.UUID, page, limit int, filter model.NotificationFilter) (*model.NotificationPage, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo        repository.NotificationRepository
	users       repository.UserRepository
	pusher      Pusher
	logger      *logger.Logger
	metrics     *metrics.Metrics
	unreadCache *gocache.Cache
	now         func() time.Time
}

func NewService(repo repository.NotificationRepository, users repository.UserRepository, pusher Pusher, log *logger.Logger, m *metrics.Metrics) Service {
	return &service{
		repo:        repo,
		users:       users,
		pusher:      pusher,
		logger:      log,
		metrics:     m,
		unreadCache: gocache.New(unreadCacheTTL, unreadCacheCleanup),
		now:         time.Now,
	}
}

// Notify translates a domain event into zero or one persisted notification
// and hands it to the gateway. A dedup-window hit returns the pre-existing
// record without re-triggering delivery.
func (s *service) Notify(ctx context.Context, recipient uuid.UUID, typ model.NotificationType, triggeredBy *uuid.UUID, metadata model.Metadata) (*model.Notification, error) {
	if recipient == uuid.Nil {
		return nil, apperrors.BadRequest("recipient is required", nil)
	}
	if !typ.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown notification type %q", typ), nil)
	}
	if triggeredBy != nil && *triggeredBy == recipient {
		// Actors never hear about their own actions.
		return nil, nil
	}

	exists, err := s.users.Exists(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to verify recipient: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("user", nil)
	}

	if metadata == nil {
		metadata = model.Metadata{}
	}
	entityID := metadata.EntityID()

	// Read-then-insert: two near-simultaneous triggers can both miss the
	// lookup and produce a rare duplicate. Accepted; the window is a spam
	// heuristic, not a correctness guarantee.
	since := s.now().Add(-model.DedupWindow)
	if existing, err := s.repo.FindRecent(ctx, recipient, typ, entityID, triggeredBy, since); err != nil {
		return nil, fmt.Errorf("dedup lookup failed: %w", err)
	} else if existing != nil {
		s.metrics.NotificationsDeduped.WithLabelValues(string(typ)).Inc()
		return existing, nil
	}

	n := &model.Notification{
		ID:          uuid.New(),
		UserID:      recipient,
		Type:        typ,
		TriggeredBy: triggeredBy,
		EntityID:    entityID,
		Metadata:    metadata,
		IsRead:      false,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.metrics.NotificationsCreated.WithLabelValues(string(typ)).Inc()
	s.unreadCache.Delete(recipient.String())

	s.deliver(ctx, n)
	return n, nil
}

// deliver pushes the payload and a fresh unread count. Missing connections
// are silently ignored; the REST fetch path remains the source of truth.
func (s *service) deliver(ctx context.Context, n *model.Notification) {
	if s.pusher == nil {
		return
	}

	s.pusher.PushNotification(n.UserID, n)

	// Fresh count query, not an in-memory increment, to avoid drift.
	count, err := s.countUnread(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("failed to compute unread count for push",
			"user_id", n.UserID.String())
		return
	}
	s.pusher.PushUnreadCount(n.UserID, count)
}

func (s *service) NotifyFollow(ctx context.Context, followee, follower uuid.UUID) (*model.Notification, error) {
	return s.Notify(ctx, followee, model.NotificationTypeFollow, &follower, model.Metadata{
		"user_id": follower.String(),
	})
}

func (s *service) NotifyNewReview(ctx context.Context, owner, reviewer uuid.UUID, reviewID, businessID string) (*model.Notification, error) {
	return s.Notify(ctx, owner, model.NotificationTypeNewReview, &reviewer, model.Metadata{
		"review_id":   reviewID,
		"business_id": businessID,
	})
}

func (s *service) NotifyReviewReply(ctx context.Context, reviewAuthor, replier uuid.UUID, reviewID, businessID string) (*model.Notification, error) {
	return s.Notify(ctx, reviewAuthor, model.NotificationTypeReviewReply, &replier, model.Metadata{
		"review_id":   reviewID,
		"business_id": businessID,
	})
}

func (s *service) NotifyReplyToReply(ctx context.Context, parentAuthor, replier uuid.UUID, replyID, reviewID, businessID string) (*model.Notification, error) {
	return s.Notify(ctx, parentAuthor, model.NotificationTypeReplyToReply, &replier, model.Metadata{
		"reply_id":    replyID,
		"review_id":   reviewID,
		"business_id": businessID,
	})
}

func (s *service) NotifyReviewReaction(ctx context.Context, reviewAuthor, reactor uuid.UUID, reviewID, businessID string) (*model.Notification, error) {
	return s.Notify(ctx, reviewAuthor, model.NotificationTypeReviewReaction, &reactor, model.Metadata{
		"review_id":   reviewID,
		"business_id": businessID,
	})
}

func (s *service) NotifyReplyReaction(ctx context.Context, replyAuthor, reactor uuid.UUID, replyID, reviewID string) (*model.Notification, error) {
	return s.Notify(ctx, replyAuthor, model.NotificationTypeReplyReaction, &reactor, model.Metadata{
		"reply_id":  replyID,
		"review_id": reviewID,
	})
}

func (s *service) NotifyBusinessResponse(ctx context.Context, reviewAuthor, responder uuid.UUID, reviewID, businessID string) (*model.Notification, error) {
	return s.Notify(ctx, reviewAuthor, model.NotificationTypeBusinessResponse, &responder, model.Metadata{
		"review_id":   reviewID,
		"business_id": businessID,
	})
}

func (s *service) NotifyMention(ctx context.Context, mentioned, mentioner uuid.UUID, reviewID, businessID string) (*model.Notification, error) {
	return s.Notify(ctx, mentioned, model.NotificationTypeMention, &mentioner, model.Metadata{
		"review_id":   reviewID,
		"business_id": businessID,
	})
}

func (s *service) List(ctx context.Context, userID uuid.UUID, page, limit int, filter model.NotificationFilter) (*model.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if !filter.Valid() {
		filter = model.NotificationFilterAll
	}

	notifications, total, err := s.repo.ListByUser(ctx, userID, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.countUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}

	return &model.NotificationPage{
		Notifications: notifications,
		Pagination: model.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
		UnreadCount: unread,
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.countUnread(ctx, userID)
}

func (s *service) countUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := userID.String()
	if cached, ok := s.unreadCache.Get(key); ok {
		return cached.(int64), nil
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	s.unreadCache.Set(key, count, gocache.DefaultExpiration)
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n == nil {
		return nil, apperrors.NotFound("notification", nil)
	}
	s.unreadCache.Delete(userID.String())
	return n, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	modified, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	s.unreadCache.Delete(userID.String())
	return modified, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	found, _, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if !found {
		return apperrors.NotFound("notification", nil)
	}
	s.unreadCache.Delete(userID.String())
	return nil
}

// DeleteAllForUser removes every notification owned by the user. Called by
// account cleanup so no record outlives its owner.
func (s *service) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	s.unreadCache.Delete(userID.String())
	return deleted, nil
}
