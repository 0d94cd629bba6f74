package client

import (
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
)

// Category groups notification types for the full-page filter tabs.
type Category string

const (
	CategoryAll      Category = "all"
	CategoryFollow   Category = "follow"
	CategoryReview   Category = "review"
	CategoryReaction Category = "reaction"
)

// CategoryOf maps a notification type to its filter category.
func CategoryOf(typ model.NotificationType) Category {
	switch typ {
	case model.NotificationTypeFollow:
		return CategoryFollow
	case model.NotificationTypeReviewReaction, model.NotificationTypeReplyReaction:
		return CategoryReaction
	default:
		return CategoryReview
	}
}

// RouteFor builds the in-app route a notification navigates to when opened.
// Every surface that opens notifications goes through this one function so
// the bell dropdown and the full page can never disagree on a destination.
func RouteFor(typ model.NotificationType, metadata model.Metadata) string {
	if metadata == nil {
		metadata = model.Metadata{}
	}

	switch typ {
	case model.NotificationTypeFollow:
		// A follow links to the actor's profile.
		for _, key := range []string{"follower_id", "user_id"} {
			if id := metadata[key]; id != "" {
				return "/users/" + id
			}
		}
		return "/notifications"

	case model.NotificationTypeReplyToReply, model.NotificationTypeReplyReaction:
		route := reviewRoute(metadata)
		if replyID := metadata["reply_id"]; replyID != "" {
			return route + "#reply-" + replyID
		}
		return route

	default:
		return reviewRoute(metadata)
	}
}

func reviewRoute(metadata model.Metadata) string {
	businessID := metadata["business_id"]
	reviewID := metadata["review_id"]

	switch {
	case businessID != "" && reviewID != "":
		return "/businesses/" + businessID + "/reviews/" + reviewID
	case reviewID != "":
		return "/reviews/" + reviewID
	case businessID != "":
		return "/businesses/" + businessID
	default:
		return "/notifications"
	}
}
