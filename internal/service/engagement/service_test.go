package engagement

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/service/notification"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/logger"
)

// fakeNotifier overrides the wrapper methods this service calls; anything
// else panics via the nil embedded interface.
type fakeNotifier struct {
	notification.Service

	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNotifier) record(name string) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Notification{ID: uuid.New()}, nil
}

func (f *fakeNotifier) NotifyFollow(context.Context, uuid.UUID, uuid.UUID) (*model.Notification, error) {
	return f.record("follow")
}

func (f *fakeNotifier) NotifyReviewReply(context.Context, uuid.UUID, uuid.UUID, string, string) (*model.Notification, error) {
	return f.record("review_reply")
}

func (f *fakeNotifier) NotifyReplyToReply(context.Context, uuid.UUID, uuid.UUID, string, string, string) (*model.Notification, error) {
	return f.record("reply_to_reply")
}

func (f *fakeNotifier) NotifyReviewReaction(context.Context, uuid.UUID, uuid.UUID, string, string) (*model.Notification, error) {
	return f.record("review_reaction")
}

func (f *fakeNotifier) NotifyReplyReaction(context.Context, uuid.UUID, uuid.UUID, string, string) (*model.Notification, error) {
	return f.record("reply_reaction")
}

func (f *fakeNotifier) NotifyBusinessResponse(context.Context, uuid.UUID, uuid.UUID, string, string) (*model.Notification, error) {
	return f.record("business_response")
}

func (f *fakeNotifier) NotifyMention(context.Context, uuid.UUID, uuid.UUID, string, string) (*model.Notification, error) {
	return f.record("mention")
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (o *fakeOutbox) Create(_ context.Context, event *model.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *fakeOutbox) GetPendingEventsWithLock(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (o *fakeOutbox) UpdateStatusTx(context.Context, *sql.Tx, uuid.UUID, string, *string, *time.Time) error {
	return nil
}

func (o *fakeOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestFollowNotifiesAndRecordsEvent(t *testing.T) {
	notifier := &fakeNotifier{}
	outbox := &fakeOutbox{}
	svc := NewService(notifier, outbox, logger.NewLogger(nil))

	err := svc.Follow(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"follow"}, notifier.calls)
	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventFollowCreated, outbox.events[0].EventType)
}

func TestFollowSelfRejected(t *testing.T) {
	notifier := &fakeNotifier{}
	outbox := &fakeOutbox{}
	svc := NewService(notifier, outbox, logger.NewLogger(nil))

	user := uuid.New()
	err := svc.Follow(context.Background(), user, user)
	require.Error(t, err)

	assert.Empty(t, notifier.calls)
	assert.Empty(t, outbox.events)
}

func TestNotificationFailureIsNonFatal(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("store unavailable")}
	svc := NewService(notifier, &fakeOutbox{}, logger.NewLogger(nil))

	// The engagement action succeeds even when its notification cannot be
	// created.
	assert.NoError(t, svc.Follow(context.Background(), uuid.New(), uuid.New()))
	assert.NoError(t, svc.ReplyToReview(context.Background(), uuid.New(), uuid.New(), "rev-1", "biz-1"))
	assert.NoError(t, svc.ReactToReply(context.Background(), uuid.New(), uuid.New(), "rep-1", "rev-1"))
	assert.NoError(t, svc.Mention(context.Background(), uuid.New(), uuid.New(), "rev-1", "biz-1"))
}

func TestNilOutboxTolerated(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewService(notifier, nil, logger.NewLogger(nil))

	require.NoError(t, svc.RespondToReview(context.Background(), uuid.New(), uuid.New(), "rev-1", "biz-1"))
	assert.Equal(t, []string{"business_response"}, notifier.calls)
}

func TestEachActionRecordsItsEventType(t *testing.T) {
	notifier := &fakeNotifier{}
	outbox := &fakeOutbox{}
	svc := NewService(notifier, outbox, logger.NewLogger(nil))

	ctx := context.Background()
	require.NoError(t, svc.ReplyToReview(ctx, uuid.New(), uuid.New(), "rev-1", "biz-1"))
	require.NoError(t, svc.ReplyToReply(ctx, uuid.New(), uuid.New(), "rep-1", "rev-1", "biz-1"))
	require.NoError(t, svc.ReactToReview(ctx, uuid.New(), uuid.New(), "rev-1", "biz-1"))
	require.NoError(t, svc.Mention(ctx, uuid.New(), uuid.New(), "rev-1", "biz-1"))

	var types []string
	for _, ev := range outbox.events {
		types = append(types, ev.EventType)
	}
	assert.Equal(t, []string{
		model.EventReviewReplied,
		model.EventReplyReplied,
		model.EventReviewReacted,
		model.EventUserMentioned,
	}, types)
}
