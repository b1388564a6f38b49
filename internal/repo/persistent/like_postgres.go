package persistent

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/pkg/postgres"
	"github.com/google/uuid"
)

// Table
const likesTable = "likes"

var likeColumns = []string{
	idColumn,
	postIDColumn,
	userIDColumn,
	createdAtColumn,
}

type LikeRepo struct {
	*postgres.Postgres
}

func NewLikeRepo(pg *postgres.Postgres) *LikeRepo {
	return &LikeRepo{pg}
}

func (r *LikeRepo) Toggle(ctx context.Context, like *entity.Like) (bool, error) {
	var liked bool

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		executor := r.GetExecutor(ctx)

		// 1. unlike
		sql, args, err := r.Builder.
			Delete(likesTable).
			Where(squirrel.Eq{postIDColumn: like.PostID, userIDColumn: like.AuthorID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("LikeRepo - Toggle - r.Builder.ToSql: %w", err)
		}

		tag, err := executor.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("LikeRepo - Toggle - executor.Exec delete: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		// 2. nothing to remove, like
		sql, args, err = r.Builder.
			Insert(likesTable).
			Columns(likeColumns...).
			Values(like.ID, like.PostID, like.AuthorID, like.CreatedAt).
			Suffix("ON CONFLICT (" + postIDColumn + ", " + userIDColumn + ") DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("LikeRepo - Toggle - r.Builder.ToSql: %w", err)
		}

		_, err = executor.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("LikeRepo - Toggle - executor.Exec insert: %w", err)
		}
		liked = true

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("LikeRepo - Toggle - r.WithinTransaction: %w", err)
	}

	return liked, nil
}

func (r *LikeRepo) Count(ctx context.Context, postID uuid.UUID) (uint64, error) {
	sql, args, err := r.Builder.
		Select("COUNT(*)").
		From(likesTable).
		Where(squirrel.Eq{postIDColumn: postID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("LikeRepo - Count - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var count int64

	err = executor.QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("LikeRepo - Count - executor.QueryRow: %w", err)
	}

	return uint64(count), nil //nolint:gosec // COUNT is never negative
}
