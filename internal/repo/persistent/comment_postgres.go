package persistent

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/pkg/postgres"
	"github.com/google/uuid"
)

const (
	// Table
	commentsTable = "comments"

	// Columns
	postIDColumn = "post_id"
)

var commentColumns = []string{
	idColumn,
	postIDColumn,
	userIDColumn,
	textColumn,
	createdAtColumn,
}

type CommentRepo struct {
	*postgres.Postgres
}

func NewCommentRepo(pg *postgres.Postgres) *CommentRepo {
	return &CommentRepo{pg}
}

func (r *CommentRepo) Create(ctx context.Context, comment *entity.Comment) error {
	sql, args, err := r.Builder.
		Insert(commentsTable).
		Columns(commentColumns...).
		Values(
			comment.ID,
			comment.PostID,
			comment.AuthorID,
			comment.Text,
			comment.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("CommentRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CommentRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID uuid.UUID, limit, offset uint64) ([]*entity.Comment, error) {
	sql, args, err := r.Builder.
		Select(commentColumns...).
		From(commentsTable).
		Where(squirrel.Eq{postIDColumn: postID}).
		OrderBy(createdAtColumn+" ASC", idColumn+" ASC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("CommentRepo - ListByPost - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("CommentRepo - ListByPost - executor.Query: %w", err)
	}
	defer rows.Close()

	comments := make([]*entity.Comment, 0, limit)
	for rows.Next() {
		var c entity.Comment

		err = rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("CommentRepo - ListByPost - rows.Scan: %w", err)
		}
		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CommentRepo - ListByPost - rows.Err: %w", err)
	}

	return comments, nil
}
