package repo

import (
	"context"
	"io"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/google/uuid"
)

type (
	// ImageRepo is a flat key/object store. Both the staging area for
	// uploads and the processed-image store implement it.
	ImageRepo interface {
		Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
		Download(ctx context.Context, key string) (io.ReadCloser, error)
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
		DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	}

	PostRepo interface {
		Create(ctx context.Context, post *entity.Post) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
		List(ctx context.Context, limit, offset uint64) ([]*entity.Post, error)
		// UpdateImage patches a non-terminal image field. A post that is
		// already terminal is returned unchanged.
		UpdateImage(ctx context.Context, id uuid.UUID, ref entity.ImageRef) (*entity.Post, error)
	}

	CommentRepo interface {
		Create(ctx context.Context, comment *entity.Comment) error
		// ListByPost is oldest first.
		ListByPost(ctx context.Context, postID uuid.UUID, limit, offset uint64) ([]*entity.Comment, error)
	}

	LikeRepo interface {
		// Toggle removes the author's like on the post if there is one and
		// stores like otherwise. It reports whether the post is liked now.
		Toggle(ctx context.Context, like *entity.Like) (bool, error)
		Count(ctx context.Context, postID uuid.UUID) (uint64, error)
	}
)
