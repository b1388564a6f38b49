package v1

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/post-pipeline/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// @Summary  	Create post
// @Description Creates a post. An attached image is processed asynchronously, the response always carries a pending image
// @Tags 		posts
// @Accept 		mpfd
// @Produce 	json
// @Param 		X-User-ID header   string false "Author id, set by the gateway"
// @Param 		text      formData string false "Post text"
// @Param 		imageFile formData file   false "Image (jpg, png, gif, webp, bmp, tif, tiff)"
// @Success 	201 {object} response.Post
// @Failure 	400 {object} response.Error "Neither text nor image, or invalid file"
// @Failure 	401 {object} response.Error "Missing user identity"
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	415 {object} response.Error "Unsupported format"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/posts [post]
func (r *V1) createPost(ctx *fiber.Ctx) error {
	in := dto.CreatePost{
		AuthorID: strings.TrimSpace(ctx.Get(validate.UserIDHeader)),
		Text:     ctx.FormValue("text"),
	}

	if in.AuthorID == "" {
		return errorResponse(ctx, http.StatusUnauthorized, "user identity is required")
	}

	if len(in.Text) > validate.MaxTextLen {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("text can't be longer than %d bytes", validate.MaxTextLen))
	}

	// 1. optional file part
	var files []*multipart.FileHeader
	form, err := ctx.MultipartForm()
	if err == nil {
		files = form.File[validate.ImageField]
	}

	if len(files) > 0 {
		file := files[0]

		// 1.1 size
		if file.Size == 0 {
			return errorResponse(ctx, http.StatusBadRequest, "file is empty")
		}
		if file.Size > r.maxFileSize {
			return errorResponse(ctx, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file size can't be more than %d bytes", r.maxFileSize))
		}

		// 1.2 extension
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !validate.AllowedExtensions[ext] {
			return errorResponse(ctx, http.StatusUnsupportedMediaType, "unsupported file extension. Allowed: "+validate.AllowedList())
		}

		contentType := file.Header.Get(fiber.HeaderContentType)
		if contentType == "" || contentType == fiber.MIMEOctetStream {
			contentType = mime.TypeByExtension(ext)
		}

		// 1.3 open
		fileReader, err := file.Open()
		if err != nil {
			r.logger.Error(err, "restapi - v1 - createPost - file.Open")

			return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
		}
		defer fileReader.Close()

		in.Image = &dto.ImageUpload{
			Data:        fileReader,
			FileName:    file.Filename,
			ContentType: contentType,
			Size:        file.Size,
		}
	}

	// 2. create
	post, err := r.posts.CreatePost(ctx.UserContext(), in)
	if err != nil {
		return r.usecaseError(ctx, err, "restapi - v1 - createPost - r.posts.CreatePost")
	}

	return ctx.Status(http.StatusCreated).JSON(response.FromPost(post))
}

// @Summary 	Get post
// @Tags 		posts
// @Produce 	json
// @Param 		id path string true "Post ID (uuid)"
// @Success 	200 {object} response.Post
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Post not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/posts/{id} [get]
func (r *V1) getPost(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	post, err := r.posts.GetPost(ctx.UserContext(), id)
	if err != nil {
		return r.usecaseError(ctx, err, "restapi - v1 - getPost - r.posts.GetPost")
	}

	return ctx.JSON(response.FromPost(post))
}

// @Summary 	List posts
// @Description Newest first
// @Tags 		posts
// @Produce 	json
// @Param 		limit  query int false "Page size (1-100, default 20)"
// @Param 		offset query int false "Offset"
// @Success 	200 {object} response.Posts
// @Failure 	400 {object} response.Error "Invalid paging"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/posts [get]
func (r *V1) listPosts(ctx *fiber.Ctx) error {
	limit, err := queryUint(ctx, "limit", validate.DefaultListLimit)
	if err != nil || limit == 0 || limit > validate.MaxListLimit {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("limit must be between 1 and %d", validate.MaxListLimit))
	}

	offset, err := queryUint(ctx, "offset", 0)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "offset must be a non-negative number")
	}

	posts, err := r.posts.ListPosts(ctx.UserContext(), dto.ListPosts{Limit: limit, Offset: offset})
	if err != nil {
		return r.usecaseError(ctx, err, "restapi - v1 - listPosts - r.posts.ListPosts")
	}

	return ctx.JSON(response.FromPosts(posts, limit, offset))
}

func queryUint(ctx *fiber.Ctx, key string, def uint64) (uint64, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return def, nil
	}

	return strconv.ParseUint(raw, 10, 64)
}
