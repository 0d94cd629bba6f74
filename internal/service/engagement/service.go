package engagement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/repository"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/service/notification"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/logger"
)

// Service is the integration point between the platform's engagement
// actions and the notification subsystem. A notification is an auxiliary
// effect: its failure is logged and swallowed so the primary action never
// fails because of it. Each action also records a domain event to the
// outbox for downstream consumers.
type Service struct {
	notifier notification.Service
	outbox   repository.OutboxRepository
	logger   *logger.Logger
}

func NewService(notifier notification.Service, outbox repository.OutboxRepository, log *logger.Logger) *Service {
	return &Service{
		notifier: notifier,
		outbox:   outbox,
		logger:   log,
	}
}

func (s *Service) Follow(ctx context.Context, follower, followee uuid.UUID) error {
	if follower == followee {
		return fmt.Errorf("cannot follow yourself")
	}

	s.recordEvent(ctx, model.EventFollowCreated, map[string]string{
		"follower_id": follower.String(),
		"followee_id": followee.String(),
	})

	if _, err := s.notifier.NotifyFollow(ctx, followee, follower); err != nil {
		s.logger.Warn("follow notification failed",
			"follower", follower.String(), "followee", followee.String())
	}
	return nil
}

func (s *Service) ReplyToReview(ctx context.Context, replier, reviewAuthor uuid.UUID, reviewID, businessID string) error {
	s.recordEvent(ctx, model.EventReviewReplied, map[string]string{
		"replier_id": replier.String(),
		"review_id":  reviewID,
	})

	if _, err := s.notifier.NotifyReviewReply(ctx, reviewAuthor, replier, reviewID, businessID); err != nil {
		s.logger.Warn("review reply notification failed", "review_id", reviewID)
	}
	return nil
}

func (s *Service) ReplyToReply(ctx context.Context, replier, parentAuthor uuid.UUID, replyID, reviewID, businessID string) error {
	s.recordEvent(ctx, model.EventReplyReplied, map[string]string{
		"replier_id": replier.String(),
		"reply_id":   replyID,
	})

	if _, err := s.notifier.NotifyReplyToReply(ctx, parentAuthor, replier, replyID, reviewID, businessID); err != nil {
		s.logger.Warn("reply notification failed", "reply_id", replyID)
	}
	return nil
}

func (s *Service) ReactToReview(ctx context.Context, reactor, reviewAuthor uuid.UUID, reviewID, businessID string) error {
	s.recordEvent(ctx, model.EventReviewReacted, map[string]string{
		"reactor_id": reactor.String(),
		"review_id":  reviewID,
	})

	if _, err := s.notifier.NotifyReviewReaction(ctx, reviewAuthor, reactor, reviewID, businessID); err != nil {
		s.logger.Warn("review reaction notification failed", "review_id", reviewID)
	}
	return nil
}

func (s *Service) ReactToReply(ctx context.Context, reactor, replyAuthor uuid.UUID, replyID, reviewID string) error {
	s.recordEvent(ctx, model.EventReplyReacted, map[string]string{
		"reactor_id": reactor.String(),
		"reply_id":   replyID,
	})

	if _, err := s.notifier.NotifyReplyReaction(ctx, replyAuthor, reactor, replyID, reviewID); err != nil {
		s.logger.Warn("reply reaction notification failed", "reply_id", replyID)
	}
	return nil
}

func (s *Service) RespondToReview(ctx context.Context, responder, reviewAuthor uuid.UUID, reviewID, businessID string) error {
	s.recordEvent(ctx, model.EventBusinessResponse, map[string]string{
		"responder_id": responder.String(),
		"review_id":    reviewID,
		"business_id":  businessID,
	})

	if _, err := s.notifier.NotifyBusinessResponse(ctx, reviewAuthor, responder, reviewID, businessID); err != nil {
		s.logger.Warn("business response notification failed", "review_id", reviewID)
	}
	return nil
}

func (s *Service) Mention(ctx context.Context, mentioner, mentioned uuid.UUID, reviewID, businessID string) error {
	s.recordEvent(ctx, model.EventUserMentioned, map[string]string{
		"mentioner_id": mentioner.String(),
		"mentioned_id": mentioned.String(),
		"review_id":    reviewID,
	})

	if _, err := s.notifier.NotifyMention(ctx, mentioned, mentioner, reviewID, businessID); err != nil {
		s.logger.Warn("mention notification failed", "review_id", reviewID)
	}
	return nil
}

func (s *Service) recordEvent(ctx context.Context, eventType string, payload map[string]string) {
	if s.outbox == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", eventType)
		return
	}
	if err := s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   raw,
	}); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", eventType)
	}
}
