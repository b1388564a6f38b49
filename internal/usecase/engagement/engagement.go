package engagement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/dto"
	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/internal/repo"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/google/uuid"
)

type EngagementUseCase struct {
	postRepo    repo.PostRepo
	commentRepo repo.CommentRepo
	likeRepo    repo.LikeRepo

	logger logger.Interface

	now func() time.Time
}

func New(postRepo repo.PostRepo, commentRepo repo.CommentRepo, likeRepo repo.LikeRepo, l logger.Interface) *EngagementUseCase {
	return &EngagementUseCase{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		logger:      l,
		now:         time.Now,
	}
}

// ToggleLike likes the post, or takes the like back when the author already
// liked it. The like is returned only when one was stored.
func (uc *EngagementUseCase) ToggleLike(ctx context.Context, postID uuid.UUID, authorID string) (*entity.Like, bool, error) {
	if authorID == "" {
		return nil, false, fmt.Errorf("EngagementUseCase - ToggleLike - author is required: %w", errs.ErrUnauthorized)
	}

	_, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, false, fmt.Errorf("EngagementUseCase - ToggleLike - uc.postRepo.GetByID: %w", err)
	}

	like := &entity.Like{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		CreatedAt: uc.now().UTC(),
	}

	liked, err := uc.likeRepo.Toggle(ctx, like)
	if err != nil {
		return nil, false, fmt.Errorf("EngagementUseCase - ToggleLike - uc.likeRepo.Toggle: %w", err)
	}

	if !liked {
		uc.logger.Debug("EngagementUseCase - ToggleLike - post %s: like by %s removed", postID, authorID)

		return nil, false, nil
	}

	return like, true, nil
}

func (uc *EngagementUseCase) CountLikes(ctx context.Context, postID uuid.UUID) (uint64, error) {
	_, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("EngagementUseCase - CountLikes - uc.postRepo.GetByID: %w", err)
	}

	count, err := uc.likeRepo.Count(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("EngagementUseCase - CountLikes - uc.likeRepo.Count: %w", err)
	}

	return count, nil
}

func (uc *EngagementUseCase) AddComment(ctx context.Context, in dto.AddComment) (*entity.Comment, error) {
	if in.AuthorID == "" {
		return nil, fmt.Errorf("EngagementUseCase - AddComment - author is required: %w", errs.ErrUnauthorized)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("EngagementUseCase - AddComment - text is required: %w", errs.ErrInvalidArgument)
	}

	_, err := uc.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, fmt.Errorf("EngagementUseCase - AddComment - uc.postRepo.GetByID: %w", err)
	}

	comment := &entity.Comment{
		ID:        uuid.New(),
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		Text:      text,
		CreatedAt: uc.now().UTC(),
	}

	err = uc.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("EngagementUseCase - AddComment - uc.commentRepo.Create: %w", err)
	}

	return comment, nil
}

func (uc *EngagementUseCase) ListComments(ctx context.Context, q dto.ListComments) ([]*entity.Comment, error) {
	_, err := uc.postRepo.GetByID(ctx, q.PostID)
	if err != nil {
		return nil, fmt.Errorf("EngagementUseCase - ListComments - uc.postRepo.GetByID: %w", err)
	}

	comments, err := uc.commentRepo.ListByPost(ctx, q.PostID, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("EngagementUseCase - ListComments - uc.commentRepo.ListByPost: %w", err)
	}

	return comments, nil
}
