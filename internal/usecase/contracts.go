package usecase

import (
	"context"
	"io"

	"github.com/andreyxaxa/post-pipeline/internal/dto"
	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/google/uuid"
)

type (
	PostUseCase interface {
		CreatePost(ctx context.Context, in dto.CreatePost) (*entity.Post, error)
		GetPost(ctx context.Context, id uuid.UUID) (*entity.Post, error)
		ListPosts(ctx context.Context, q dto.ListPosts) ([]*entity.Post, error)
		ApplyImageResult(ctx context.Context, result entity.ImageProcessingResult) (*entity.Post, error)
	}

	// EngagementUseCase covers likes and comments on existing posts.
	EngagementUseCase interface {
		ToggleLike(ctx context.Context, postID uuid.UUID, authorID string) (*entity.Like, bool, error)
		CountLikes(ctx context.Context, postID uuid.UUID) (uint64, error)
		AddComment(ctx context.Context, in dto.AddComment) (*entity.Comment, error)
		ListComments(ctx context.Context, q dto.ListComments) ([]*entity.Comment, error)
	}

	ImageWorkerUseCase interface {
		ProcessTask(ctx context.Context, task entity.ImageProcessingTask) entity.ImageProcessingResult
		ReleaseSource(ctx context.Context, task entity.ImageProcessingTask) error
		OpenProcessedImage(ctx context.Context, name string) (io.ReadCloser, error)
		CleanupStaging(ctx context.Context) error
	}
)
