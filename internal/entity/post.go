package entity

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID uuid.UUID `json:"id"`

	AuthorID string   `json:"user_id"`
	Text     *string  `json:"text,omitempty"`
	Image    ImageRef `json:"image"`

	CreatedAt time.Time `json:"created_at"`
}
