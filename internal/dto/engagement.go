package dto

import "github.com/google/uuid"

type AddComment struct {
	PostID   uuid.UUID
	AuthorID string
	Text     string
}

type ListComments struct {
	PostID uuid.UUID
	Limit  uint64
	Offset uint64
}
