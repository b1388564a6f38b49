package entity

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID     uuid.UUID `json:"id"`
	PostID uuid.UUID `json:"post_id"`

	AuthorID string `json:"user_id"`
	Text     string `json:"text"`

	CreatedAt time.Time `json:"created_at"`
}

// Like is unique per (post, author).
type Like struct {
	ID     uuid.UUID `json:"id"`
	PostID uuid.UUID `json:"post_id"`

	AuthorID string `json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}
