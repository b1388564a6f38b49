package response

import (
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/entity"
)

// Post is the client view. image_url is null until the worker reports back
// and stays null when processing failed.
type Post struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Text        *string `json:"text"`
	ImageStatus string  `json:"image_status" enums:"unset,pending,resolved,absent"`
	ImageURL    *string `json:"image_url"`
	CreatedAt   string  `json:"created_at"`
}

type Posts struct {
	Posts  []Post `json:"posts"`
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

func FromPost(p *entity.Post) Post {
	return Post{
		ID:          p.ID.String(),
		UserID:      p.AuthorID,
		Text:        p.Text,
		ImageStatus: string(p.Image.State),
		ImageURL:    p.Image.URLOrNil(),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func FromPosts(posts []*entity.Post, limit, offset uint64) Posts {
	out := Posts{
		Posts:  make([]Post, 0, len(posts)),
		Limit:  limit,
		Offset: offset,
	}
	for _, p := range posts {
		out.Posts = append(out.Posts, FromPost(p))
	}

	return out
}
