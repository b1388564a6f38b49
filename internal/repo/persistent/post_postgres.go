package persistent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/pkg/postgres"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	postsTable = "posts"

	// Columns
	idColumn         = "id"
	userIDColumn     = "user_id"
	textColumn       = "text"
	imageStateColumn = "image_state"
	imageURLColumn   = "image_url"
	createdAtColumn  = "created_at"
)

var postColumns = []string{
	idColumn,
	userIDColumn,
	textColumn,
	imageStateColumn,
	imageURLColumn,
	createdAtColumn,
}

type PostRepo struct {
	*postgres.Postgres
}

func NewPostRepo(pg *postgres.Postgres) *PostRepo {
	return &PostRepo{pg}
}

func (r *PostRepo) Create(ctx context.Context, post *entity.Post) error {
	sql, args, err := r.Builder.
		Insert(postsTable).
		Columns(postColumns...).
		Values(
			post.ID,
			post.AuthorID,
			post.Text,
			string(post.Image.State),
			post.Image.URLOrNil(),
			post.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("PostRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("PostRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	sql, args, err := r.Builder.
		Select(postColumns...).
		From(postsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PostRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	post, err := scanPost(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("PostRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("PostRepo - GetByID - executor.QueryRow: %w", err)
	}

	return post, nil
}

func (r *PostRepo) List(ctx context.Context, limit, offset uint64) ([]*entity.Post, error) {
	sql, args, err := r.Builder.
		Select(postColumns...).
		From(postsTable).
		OrderBy(createdAtColumn + " DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PostRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("PostRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	posts := make([]*entity.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("PostRepo - List - rows.Scan: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PostRepo - List - rows.Err: %w", err)
	}

	return posts, nil
}

func (r *PostRepo) UpdateImage(ctx context.Context, id uuid.UUID, ref entity.ImageRef) (*entity.Post, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("PostRepo - UpdateImage - image %+v: %w", ref, errs.ErrInvalidArgument)
	}

	var post *entity.Post

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := r.Builder.
			Update(postsTable).
			Set(imageStateColumn, string(ref.State)).
			Set(imageURLColumn, ref.URLOrNil()).
			Where(squirrel.And{
				squirrel.Eq{idColumn: id},
				squirrel.Eq{imageStateColumn: []string{string(entity.ImageUnset), string(entity.ImagePending)}},
			}).
			Suffix("RETURNING " + strings.Join(postColumns, ", ")).
			ToSql()
		if err != nil {
			return fmt.Errorf("PostRepo - UpdateImage - r.Builder.ToSql: %w", err)
		}

		executor := r.GetExecutor(ctx)

		post, err = scanPost(executor.QueryRow(ctx, sql, args...))
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("PostRepo - UpdateImage - executor.QueryRow: %w", err)
		}

		// either missing or already terminal
		post, err = r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("PostRepo - UpdateImage - r.GetByID: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("PostRepo - UpdateImage - r.WithinTransaction: %w", err)
	}

	return post, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*entity.Post, error) {
	var (
		post       entity.Post
		imageState string
		imageURL   *string
	)

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Text,
		&imageState,
		&imageURL,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Image.State = entity.ImageState(imageState)
	if imageURL != nil {
		post.Image.URL = *imageURL
	}

	return &post, nil
}
