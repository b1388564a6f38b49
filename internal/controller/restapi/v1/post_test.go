package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
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

type capturedImage struct {
	fileName    string
	contentType string
	data        []byte
}

type fakePosts struct {
	created []dto.CreatePost
	image   *capturedImage
	listed  []dto.ListPosts
	posts   map[uuid.UUID]*entity.Post
	err     error
}

func (f *fakePosts) CreatePost(_ context.Context, in dto.CreatePost) (*entity.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)

	post := &entity.Post{
		ID:        uuid.New(),
		AuthorID:  in.AuthorID,
		Image:     entity.Unset(),
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if in.Text != "" {
		text := in.Text
		post.Text = &text
	}
	if in.Image != nil {
		data, err := io.ReadAll(in.Image.Data)
		if err != nil {
			return nil, err
		}
		f.image = &capturedImage{fileName: in.Image.FileName, contentType: in.Image.ContentType, data: data}
		post.Image = entity.Pending()
	}

	return post, nil
}

func (f *fakePosts) GetPost(_ context.Context, id uuid.UUID) (*entity.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", errs.ErrRecordNotFound)
	}

	return p, nil
}

func (f *fakePosts) ListPosts(_ context.Context, q dto.ListPosts) ([]*entity.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.listed = append(f.listed, q)

	out := make([]*entity.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p)
	}

	return out, nil
}

func (f *fakePosts) ApplyImageResult(context.Context, entity.ImageProcessingResult) (*entity.Post, error) {
	return nil, errors.New("not used")
}

func newApp(posts *fakePosts) *fiber.App {
	app := fiber.New()
	NewPostRoutes(app.Group("/v1"), posts, &fakeEngagement{}, 1024, logger.Nop())

	return app
}

func multipartRequest(t *testing.T, text string, fileName string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if text != "" {
		require.NoError(t, w.WriteField("text", text))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("imageFile", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/posts", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestCreatePostTextOnly(t *testing.T) {
	posts := &fakePosts{}
	req := multipartRequest(t, "hello", "", nil)
	req.Header.Set("X-User-ID", "u1")

	resp, err := newApp(posts).Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[response.Post](t, resp)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.Text)
	assert.Equal(t, "hello", *got.Text)
	assert.Equal(t, "unset", got.ImageStatus)
	assert.Nil(t, got.ImageURL)
	assert.Equal(t, "2026-01-02T03:04:05Z", got.CreatedAt)

	require.Len(t, posts.created, 1)
	assert.Nil(t, posts.created[0].Image)
}

func TestCreatePostWithImage(t *testing.T) {
	posts := &fakePosts{}
	req := multipartRequest(t, "hi", "a.png", []byte("png-bytes"))
	req.Header.Set("X-User-ID", "u1")

	resp, err := newApp(posts).Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[response.Post](t, resp)
	assert.Equal(t, "pending", got.ImageStatus)
	assert.Nil(t, got.ImageURL)

	require.NotNil(t, posts.image)
	assert.Equal(t, "a.png", posts.image.fileName)
	assert.Equal(t, "image/png", posts.image.contentType)
	assert.Equal(t, []byte("png-bytes"), posts.image.data)
}

func TestCreatePostAcceptedExtensions(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "a.gif", "a.webp", "a.bmp", "a.tif", "a.TIFF"} {
		t.Run(name, func(t *testing.T) {
			posts := &fakePosts{}
			req := multipartRequest(t, "", name, []byte("img"))
			req.Header.Set("X-User-ID", "u1")

			resp, err := newApp(posts).Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			require.NotNil(t, posts.image)
			assert.Equal(t, name, posts.image.fileName)
		})
	}
}

func TestCreatePostRejected(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		text     string
		fileName string
		data     []byte
		status   int
	}{
		{name: "no user", text: "hello", status: http.StatusUnauthorized},
		{name: "empty file", userID: "u1", fileName: "a.png", data: []byte{}, status: http.StatusBadRequest},
		{name: "too large", userID: "u1", fileName: "a.png", data: make([]byte, 2048), status: http.StatusRequestEntityTooLarge},
		{name: "bad extension", userID: "u1", fileName: "a.exe", data: []byte("x"), status: http.StatusUnsupportedMediaType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			posts := &fakePosts{}
			req := multipartRequest(t, tc.text, tc.fileName, tc.data)
			if tc.userID != "" {
				req.Header.Set("X-User-ID", tc.userID)
			}

			resp, err := newApp(posts).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			got := decode[response.Error](t, resp)
			assert.NotEmpty(t, got.Error)
			assert.Empty(t, posts.created)
		})
	}
}

func TestCreatePostUsecaseErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrapped: %w", errs.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", errs.ErrUnauthorized), http.StatusUnauthorized},
		{errors.New("broker down"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			req := multipartRequest(t, "hello", "", nil)
			req.Header.Set("X-User-ID", "u1")

			resp, err := newApp(&fakePosts{err: tc.err}).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestGetPost(t *testing.T) {
	id := uuid.New()
	posts := &fakePosts{posts: map[uuid.UUID]*entity.Post{
		id: {ID: id, AuthorID: "u1", Image: entity.Resolved("http://img/processed_images/x.png"), CreatedAt: time.Now()},
	}}
	app := newApp(posts)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/"+id.String(), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[response.Post](t, resp)
	assert.Equal(t, id.String(), got.ID)
	assert.Equal(t, "resolved", got.ImageStatus)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, "http://img/processed_images/x.png", *got.ImageURL)
	assert.Nil(t, got.Text)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListPosts(t *testing.T) {
	posts := &fakePosts{posts: map[uuid.UUID]*entity.Post{}}
	app := newApp(posts)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts?limit=5&offset=10", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[response.Posts](t, resp)
	assert.Empty(t, got.Posts)
	assert.Equal(t, uint64(5), got.Limit)
	assert.Equal(t, []dto.ListPosts{{Limit: 5, Offset: 10}}, posts.listed)

	for _, q := range []string{"limit=0", "limit=101", "limit=x", "offset=-1"} {
		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/v1/posts?"+q, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}
