package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the platform's user record this subsystem reads:
// enough to verify a recipient exists and to enrich notifications with the
// triggering actor's public profile. Account management lives elsewhere.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Handle      string     `json:"handle" db:"handle"`
	DisplayName string     `json:"display_name" db:"display_name"`
	AvatarURL   *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
