package notification

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
	apperrors "github.com/InfofriyendsTechnology/RateOn-sub001/pkg/errors"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/logger"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("rateon", "notificationtest")

type fakeRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[uuid.UUID]*model.Notification)}
}

func (r *fakeRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *n
	r.items[n.ID] = &stored
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		copied := *n
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeRepo) FindRecent(_ context.Context, userID uuid.UUID, typ model.NotificationType, entityID string, triggeredBy *uuid.UUID, since time.Time) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.UserID != userID || n.Type != typ || n.EntityID != entityID {
			continue
		}
		if (n.TriggeredBy == nil) != (triggeredBy == nil) {
			continue
		}
		if n.TriggeredBy != nil && *n.TriggeredBy != *triggeredBy {
			continue
		}
		if n.CreatedAt.Before(since) {
			continue
		}
		copied := *n
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, filter model.NotificationFilter, page, limit int) ([]*model.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*model.Notification
	for _, n := range r.items {
		if n.UserID != userID {
			continue
		}
		if filter == model.NotificationFilterRead && !n.IsRead {
			continue
		}
		if filter == model.NotificationFilterUnread && n.IsRead {
			continue
		}
		copied := *n
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) MarkRead(_ context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return nil, nil
	}
	if !n.IsRead {
		n.IsRead = true
		now := time.Now()
		n.ReadAt = &now
	}
	copied := *n
	return &copied, nil
}

func (r *fakeRepo) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var modified int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			now := time.Now()
			n.ReadAt = &now
			modified++
		}
	}
	return modified, nil
}

func (r *fakeRepo) Delete(_ context.Context, userID, id uuid.UUID) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return false, false, nil
	}
	delete(r.items, id)
	return true, !n.IsRead, nil
}

func (r *fakeRepo) DeleteAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, n := range r.items {
		if n.UserID == userID {
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeUsers struct {
	known map[uuid.UUID]bool
}

func (u *fakeUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u.known[id] {
		return &model.User{ID: id}, nil
	}
	return nil, nil
}

func (u *fakeUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return u.known[id], nil
}

type fakePusher struct {
	mu            sync.Mutex
	notifications []*model.Notification
	counts        []int64
}

func (p *fakePusher) PushNotification(_ uuid.UUID, n *model.Notification) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
	return true
}

func (p *fakePusher) PushUnreadCount(_ uuid.UUID, count int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = append(p.counts, count)
	return true
}

func newTestService(t *testing.T, users ...uuid.UUID) (*service, *fakeRepo, *fakePusher) {
	t.Helper()

	repo := newFakeRepo()
	known := make(map[uuid.UUID]bool, len(users))
	for _, id := range users {
		known[id] = true
	}
	pusher := &fakePusher{}

	svc := NewService(repo, &fakeUsers{known: known}, pusher, logger.NewLogger(nil), testMetrics).(*service)
	return svc, repo, pusher
}

func TestNotifyCreatesAndDelivers(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, repo, pusher := newTestService(t, recipient)

	n, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReply, &actor, model.Metadata{
		"review_id":   "rev-1",
		"business_id": "biz-1",
	})
	require.NoError(t, err)
	require.NotNil(t, n)

	assert.Equal(t, recipient, n.UserID)
	assert.Equal(t, "rev-1", n.EntityID)
	assert.False(t, n.IsRead)
	assert.Equal(t, 1, repo.count())

	require.Len(t, pusher.notifications, 1)
	assert.Equal(t, n.ID, pusher.notifications[0].ID)
	require.Len(t, pusher.counts, 1)
	assert.Equal(t, int64(1), pusher.counts[0])
}

func TestNotifyDedupWithinWindow(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, repo, pusher := newTestService(t, recipient)

	first, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReaction, &actor, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)

	second, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReaction, &actor, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)

	// Same record back, no second row, no second delivery.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.count())
	assert.Len(t, pusher.notifications, 1)
}

func TestNotifyCreatesAgainAfterWindow(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, repo, _ := newTestService(t, recipient)

	base := time.Now()
	svc.now = func() time.Time { return base }

	first, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReaction, &actor, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(model.DedupWindow + time.Second) }

	second, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReaction, &actor, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, repo.count())
}

func TestNotifyDistinctActorsAreNotDeduped(t *testing.T) {
	recipient := uuid.New()
	svc, repo, _ := newTestService(t, recipient)

	actorA := uuid.New()
	actorB := uuid.New()

	_, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReaction, &actorA, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)
	_, err = svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReaction, &actorB, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.count())
}

func TestNotifySelfActionSuppressed(t *testing.T) {
	user := uuid.New()
	svc, repo, pusher := newTestService(t, user)

	n, err := svc.Notify(context.Background(), user, model.NotificationTypeFollow, &user, nil)
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Equal(t, 0, repo.count())
	assert.Empty(t, pusher.notifications)
}

func TestNotifyUnknownRecipient(t *testing.T) {
	svc, _, _ := newTestService(t)

	actor := uuid.New()
	_, err := svc.Notify(context.Background(), uuid.New(), model.NotificationTypeFollow, &actor, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestNotifyInvalidType(t *testing.T) {
	recipient := uuid.New()
	svc, _, _ := newTestService(t, recipient)

	_, err := svc.Notify(context.Background(), recipient, "telepathy", nil, nil)
	require.Error(t, err)
}

func TestUnreadCountPushReflectsFreshQuery(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, _, pusher := newTestService(t, recipient)

	_, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReply, &actor, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)
	_, err = svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReply, &actor, model.Metadata{"review_id": "rev-2"})
	require.NoError(t, err)

	require.Len(t, pusher.counts, 2)
	assert.Equal(t, int64(1), pusher.counts[0])
	assert.Equal(t, int64(2), pusher.counts[1])
}

func TestListPagination(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, _, _ := newTestService(t, recipient)

	base := time.Now()
	for i := 0; i < 25; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return created }
		_, err := svc.Notify(context.Background(), recipient, model.NotificationTypeNewReview, &actor, model.Metadata{
			"review_id": uuid.New().String(),
		})
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), recipient, 2, 20, model.NotificationFilterAll)
	require.NoError(t, err)

	assert.Len(t, page.Notifications, 5)
	assert.Equal(t, int64(25), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, int64(25), page.UnreadCount)
}

func TestListFilterUnread(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, _, _ := newTestService(t, recipient)

	first, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReply, &actor, model.Metadata{"review_id": "rev-1"})
	require.NoError(t, err)
	_, err = svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReply, &actor, model.Metadata{"review_id": "rev-2"})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), recipient, first.ID)
	require.NoError(t, err)

	page, err := svc.List(context.Background(), recipient, 1, 20, model.NotificationFilterUnread)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.False(t, page.Notifications[0].IsRead)
	assert.Equal(t, int64(1), page.UnreadCount)
}

func TestMarkReadOwnershipEnforced(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	actor := uuid.New()
	svc, _, _ := newTestService(t, owner, other)

	n, err := svc.Notify(context.Background(), owner, model.NotificationTypeFollow, &actor, nil)
	require.NoError(t, err)

	// Someone else's id behaves exactly like a missing id.
	_, err = svc.MarkRead(context.Background(), other, n.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMarkAllRead(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, _, _ := newTestService(t, recipient)

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(context.Background(), recipient, model.NotificationTypeMention, &actor, model.Metadata{
			"review_id": uuid.New().String(),
		})
		require.NoError(t, err)
	}

	modified, err := svc.MarkAllRead(context.Background(), recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(3), modified)

	count, err := svc.UnreadCount(context.Background(), recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteNotFound(t *testing.T) {
	recipient := uuid.New()
	svc, _, _ := newTestService(t, recipient)

	err := svc.Delete(context.Background(), recipient, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteAllForUser(t *testing.T) {
	recipient := uuid.New()
	actor := uuid.New()
	svc, repo, _ := newTestService(t, recipient)

	for i := 0; i < 4; i++ {
		_, err := svc.Notify(context.Background(), recipient, model.NotificationTypeReviewReaction, &actor, model.Metadata{
			"review_id": uuid.New().String(),
		})
		require.NoError(t, err)
	}

	deleted, err := svc.DeleteAllForUser(context.Background(), recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.Equal(t, 0, repo.count())
}
