package response

import (
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/entity"
)

type Comment struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type Comments struct {
	Comments []Comment `json:"comments"`
	Limit    uint64    `json:"limit"`
	Offset   uint64    `json:"offset"`
}

type Like struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

// LikeToggled carries the stored like, or a message when the like was taken back.
type LikeToggled struct {
	Liked   bool   `json:"liked"`
	Like    *Like  `json:"like,omitempty"`
	Message string `json:"message,omitempty" example:"Like removed"`
}

type LikeCount struct {
	PostID string `json:"post_id"`
	Likes  uint64 `json:"likes"`
}

func FromComment(c *entity.Comment) Comment {
	return Comment{
		ID:        c.ID.String(),
		PostID:    c.PostID.String(),
		UserID:    c.AuthorID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func FromComments(comments []*entity.Comment, limit, offset uint64) Comments {
	out := Comments{
		Comments: make([]Comment, 0, len(comments)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, c := range comments {
		out.Comments = append(out.Comments, FromComment(c))
	}

	return out
}

func FromLike(l *entity.Like) *Like {
	return &Like{
		ID:        l.ID.String(),
		PostID:    l.PostID.String(),
		UserID:    l.AuthorID,
		CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
}
