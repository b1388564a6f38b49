package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/post-pipeline/internal/dto"
	"github.com/andreyxaxa/post-pipeline/internal/entity"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngagement struct {
	postID uuid.UUID
	liked  map[string]bool
	added  []dto.AddComment
	listed []dto.ListComments
	err    error
}

func newFakeEngagement() *fakeEngagement {
	return &fakeEngagement{postID: uuid.New(), liked: make(map[string]bool)}
}

func (f *fakeEngagement) check(postID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if postID != f.postID {
		return fmt.Errorf("fake: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (f *fakeEngagement) ToggleLike(_ context.Context, postID uuid.UUID, authorID string) (*entity.Like, bool, error) {
	if err := f.check(postID); err != nil {
		return nil, false, err
	}

	if f.liked[authorID] {
		delete(f.liked, authorID)

		return nil, false, nil
	}
	f.liked[authorID] = true

	return &entity.Like{ID: uuid.New(), PostID: postID, AuthorID: authorID, CreatedAt: time.Now()}, true, nil
}

func (f *fakeEngagement) CountLikes(_ context.Context, postID uuid.UUID) (uint64, error) {
	if err := f.check(postID); err != nil {
		return 0, err
	}

	return uint64(len(f.liked)), nil
}

func (f *fakeEngagement) AddComment(_ context.Context, in dto.AddComment) (*entity.Comment, error) {
	if err := f.check(in.PostID); err != nil {
		return nil, err
	}
	f.added = append(f.added, in)

	return &entity.Comment{
		ID:        uuid.New(),
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		Text:      in.Text,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeEngagement) ListComments(_ context.Context, q dto.ListComments) ([]*entity.Comment, error) {
	if err := f.check(q.PostID); err != nil {
		return nil, err
	}
	f.listed = append(f.listed, q)

	out := make([]*entity.Comment, 0, len(f.added))
	for _, in := range f.added {
		out = append(out, &entity.Comment{ID: uuid.New(), PostID: in.PostID, AuthorID: in.AuthorID, Text: in.Text})
	}

	return out, nil
}

func newEngagementApp(e *fakeEngagement) *fiber.App {
	app := fiber.New()
	NewPostRoutes(app.Group("/v1"), &fakePosts{}, e, 1024, logger.Nop())

	return app
}

func likeRequest(postID, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/posts/"+postID+"/like", nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	return req
}

func TestToggleLike(t *testing.T) {
	e := newFakeEngagement()
	app := newEngagementApp(e)
	id := e.postID.String()

	resp, err := app.Test(likeRequest(id, "u1"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[response.LikeToggled](t, resp)
	assert.True(t, got.Liked)
	require.NotNil(t, got.Like)
	assert.Equal(t, id, got.Like.PostID)
	assert.Equal(t, "u1", got.Like.UserID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/"+id+"/likes", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, response.LikeCount{PostID: id, Likes: 1}, decode[response.LikeCount](t, resp))

	resp, err = app.Test(likeRequest(id, "u1"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got = decode[response.LikeToggled](t, resp)
	assert.False(t, got.Liked)
	assert.Nil(t, got.Like)
	assert.Equal(t, "Like removed", got.Message)
}

func TestToggleLikeRejected(t *testing.T) {
	e := newFakeEngagement()
	app := newEngagementApp(e)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"no user", likeRequest(e.postID.String(), ""), http.StatusUnauthorized},
		{"bad id", likeRequest("nope", "u1"), http.StatusBadRequest},
		{"missing post", likeRequest(uuid.NewString(), "u1"), http.StatusNotFound},
		{"count missing post", httptest.NewRequest(http.MethodGet, "/v1/posts/"+uuid.NewString()+"/likes", nil), http.StatusNotFound},
		{"count bad id", httptest.NewRequest(http.MethodGet, "/v1/posts/nope/likes", nil), http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	assert.Empty(t, e.liked)
}

func commentRequest(postID, userID, contentType, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/posts/"+postID+"/comments", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	return req
}

func TestAddComment(t *testing.T) {
	e := newFakeEngagement()
	app := newEngagementApp(e)
	id := e.postID.String()

	resp, err := app.Test(commentRequest(id, "u1", fiber.MIMEApplicationJSON, `{"text":" nice "}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[response.Comment](t, resp)
	assert.Equal(t, id, got.PostID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "nice", got.Text)
	assert.Equal(t, "2026-01-02T03:04:05Z", got.CreatedAt)

	form := url.Values{"text": {"from a form"}}
	resp, err = app.Test(commentRequest(id, "u2", fiber.MIMEApplicationForm, form.Encode()))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, e.added, 2)
	assert.Equal(t, "from a form", e.added[1].Text)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/"+id+"/comments?limit=5", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[response.Comments](t, resp)
	require.Len(t, list.Comments, 2)
	assert.Equal(t, "nice", list.Comments[0].Text)
	assert.Equal(t, []dto.ListComments{{PostID: e.postID, Limit: 5, Offset: 0}}, e.listed)
}

func TestAddCommentRejected(t *testing.T) {
	e := newFakeEngagement()
	app := newEngagementApp(e)
	id := e.postID.String()

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"no user", commentRequest(id, "", fiber.MIMEApplicationJSON, `{"text":"x"}`), http.StatusUnauthorized},
		{"bad id", commentRequest("nope", "u1", fiber.MIMEApplicationJSON, `{"text":"x"}`), http.StatusBadRequest},
		{"no body type", commentRequest(id, "u1", "", `text=x`), http.StatusBadRequest},
		{"blank text", commentRequest(id, "u1", fiber.MIMEApplicationJSON, `{"text":"   "}`), http.StatusBadRequest},
		{"too long", commentRequest(id, "u1", fiber.MIMEApplicationJSON, `{"text":"`+strings.Repeat("a", 10001)+`"}`), http.StatusBadRequest},
		{"missing post", commentRequest(uuid.NewString(), "u1", fiber.MIMEApplicationJSON, `{"text":"x"}`), http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			got := decode[response.Error](t, resp)
			assert.NotEmpty(t, got.Error)
		})
	}

	assert.Empty(t, e.added)
}

func TestListCommentsErrors(t *testing.T) {
	e := newFakeEngagement()
	app := newEngagementApp(e)

	for _, q := range []string{"limit=0", "limit=101", "offset=x"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/"+e.postID.String()+"/comments?"+q, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/"+uuid.NewString()+"/comments", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	e.err = errors.New("db down")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/"+e.postID.String()+"/comments", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
