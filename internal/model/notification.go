package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeFollow           NotificationType = "follow"
	NotificationTypeNewReview        NotificationType = "new_review"
	NotificationTypeReviewReply      NotificationType = "review_reply"
	NotificationTypeReplyToReply     NotificationType = "reply_to_reply"
	NotificationTypeReviewReaction   NotificationType = "review_reaction"
	NotificationTypeReplyReaction    NotificationType = "reply_reaction"
	NotificationTypeBusinessResponse NotificationType = "business_response"
	NotificationTypeMention          NotificationType = "mention"
)

// DedupWindow is the interval during which a repeat of the same
// (user, type, entity, actor) trigger is suppressed.
const DedupWindow = 60 * time.Second

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeFollow, NotificationTypeNewReview,
		NotificationTypeReviewReply, NotificationTypeReplyToReply,
		NotificationTypeReviewReaction, NotificationTypeReplyReaction,
		NotificationTypeBusinessResponse, NotificationTypeMention:
		return true
	}
	return false
}

// Metadata is the loosely structured identifier bag attached to a
// notification (review_id, business_id, item_id, ...). Stored as jsonb.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
	return json.Unmarshal(b, m)
}

// EntityID returns the identifier used for deduplication: the most specific
// subject id present in the metadata bag.
func (m Metadata) EntityID() string {
	for _, key := range []string{"reply_id", "review_id", "item_id", "business_id", "user_id"} {
		if v, ok := m[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

type Notification struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	Type        NotificationType `json:"type" db:"type"`
	TriggeredBy *uuid.UUID       `json:"triggered_by,omitempty" db:"triggered_by"`
	EntityID    string           `json:"entity_id,omitempty" db:"entity_id"`
	Metadata    Metadata         `json:"metadata" db:"metadata"`
	IsRead      bool             `json:"is_read" db:"is_read"`
	ReadAt      *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// Actor fields are enriched at read time from the users table and are
	// not persisted on the notification row itself.
	ActorHandle *string `json:"actor_handle,omitempty" db:"actor_handle"`
	ActorName   *string `json:"actor_name,omitempty" db:"actor_name"`
	ActorAvatar *string `json:"actor_avatar,omitempty" db:"actor_avatar"`
}

type NotificationFilter string

const (
	NotificationFilterAll    NotificationFilter = "all"
	NotificationFilterRead   NotificationFilter = "read"
	NotificationFilterUnread NotificationFilter = "unread"
)

func (f NotificationFilter) Valid() bool {
	return f == NotificationFilterAll || f == NotificationFilterRead || f == NotificationFilterUnread
}

type ListNotificationsRequest struct {
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Filter string `form:"filter,default=all" binding:"omitempty,oneof=all read unread"`
}

type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	Pagination    Pagination      `json:"pagination"`
	UnreadCount   int64           `json:"unreadCount"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}
