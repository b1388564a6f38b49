package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/dto"
	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/internal/infrastructure"
	"github.com/andreyxaxa/post-pipeline/internal/repo"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/google/uuid"
)

type PostUseCase struct {
	postRepo    repo.PostRepo
	stagingRepo repo.ImageRepo
	tasks       infrastructure.Publisher

	taskQueue    string
	imageBaseURL string

	logger logger.Interface

	now func() time.Time
}

func New(
	postRepo repo.PostRepo,
	stagingRepo repo.ImageRepo,
	tasks infrastructure.Publisher,
	taskQueue string,
	imageBaseURL string,
	l logger.Interface,
) *PostUseCase {
	return &PostUseCase{
		postRepo:     postRepo,
		stagingRepo:  stagingRepo,
		tasks:        tasks,
		taskQueue:    taskQueue,
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		logger:       l,
		now:          time.Now,
	}
}

// CreatePost inserts the post and, when an image is attached, stages it and
// enqueues a processing task. The returned post never carries a resolved
// image; the URL arrives later through ApplyImageResult.
func (uc *PostUseCase) CreatePost(ctx context.Context, in dto.CreatePost) (*entity.Post, error) {
	if in.AuthorID == "" {
		return nil, fmt.Errorf("PostUseCase - CreatePost - author is required: %w", errs.ErrUnauthorized)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" && in.Image == nil {
		return nil, fmt.Errorf("PostUseCase - CreatePost - text or image is required: %w", errs.ErrInvalidArgument)
	}

	post := &entity.Post{
		ID:        uuid.New(),
		AuthorID:  in.AuthorID,
		Image:     entity.Unset(),
		CreatedAt: uc.now().UTC(),
	}
	if text != "" {
		post.Text = &text
	}
	if in.Image != nil {
		post.Image = entity.Pending()
	}

	// 1. row first, the image stays pending until the worker reports back
	err := uc.postRepo.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("PostUseCase - CreatePost - uc.postRepo.Create: %w", err)
	}

	if in.Image == nil {
		return post, nil
	}

	// 2. stage the upload under a generated key
	stagingKey := uuid.New().String() + strings.ToLower(filepath.Ext(filepath.Base(in.Image.FileName)))

	err = uc.stagingRepo.Upload(ctx, stagingKey, in.Image.Data, in.Image.ContentType, in.Image.Size)
	if err != nil {
		return nil, fmt.Errorf("PostUseCase - CreatePost - uc.stagingRepo.Upload: %w", err)
	}

	// 3. hand off to the worker
	err = uc.enqueueTask(ctx, entity.ImageProcessingTask{
		PostID:           post.ID,
		SourcePath:       stagingKey,
		OriginalFileName: in.Image.FileName,
	})
	if err != nil {
		// the row stays pending, only the staged file is rolled back
		deleteErr := uc.stagingRepo.Delete(ctx, stagingKey)
		if deleteErr != nil {
			uc.logger.Error(deleteErr, "PostUseCase - CreatePost - uc.stagingRepo.Delete")
		}

		return nil, fmt.Errorf("PostUseCase - CreatePost - uc.enqueueTask: %w", err)
	}

	return post, nil
}

func (uc *PostUseCase) enqueueTask(ctx context.Context, task entity.ImageProcessingTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("PostUseCase - enqueueTask - json.Marshal: %w", err)
	}

	err = uc.tasks.Publish(ctx, uc.taskQueue, body)
	if err != nil {
		return fmt.Errorf("PostUseCase - enqueueTask - uc.tasks.Publish: %w", err)
	}

	uc.logger.Debug("PostUseCase - enqueueTask - post %s: task queued", task.PostID)

	return nil
}

func (uc *PostUseCase) GetPost(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	post, err := uc.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("PostUseCase - GetPost - uc.postRepo.GetByID: %w", err)
	}

	return post, nil
}

func (uc *PostUseCase) ListPosts(ctx context.Context, q dto.ListPosts) ([]*entity.Post, error) {
	posts, err := uc.postRepo.List(ctx, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("PostUseCase - ListPosts - uc.postRepo.List: %w", err)
	}

	return posts, nil
}

// ApplyImageResult moves a pending image to resolved or absent. A result for
// a missing post is a logged no-op returning (nil, nil); a result for a post
// that is already terminal returns the stored post unchanged.
func (uc *PostUseCase) ApplyImageResult(ctx context.Context, result entity.ImageProcessingResult) (*entity.Post, error) {
	ref := entity.Absent()

	if result.Success && result.Locator != "" {
		ref = entity.Resolved(uc.imageURL(result.Locator))
	} else {
		reason := result.Error
		if result.Success {
			reason = "success reported without a locator"
		}
		uc.logger.Error("PostUseCase - ApplyImageResult - post %s: image processing failed: %s", result.PostID, reason)
	}

	post, err := uc.postRepo.UpdateImage(ctx, result.PostID, ref)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			uc.logger.Warn("PostUseCase - ApplyImageResult - post %s not found, result dropped", result.PostID)

			return nil, nil
		}

		return nil, fmt.Errorf("PostUseCase - ApplyImageResult - uc.postRepo.UpdateImage: %w", err)
	}

	if post.Image != ref {
		uc.logger.Warn("PostUseCase - ApplyImageResult - post %s already %s, result ignored", post.ID, post.Image.State)
	}

	return post, nil
}

func (uc *PostUseCase) imageURL(locator string) string {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}

	return uc.imageBaseURL + locator
}
