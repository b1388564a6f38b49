package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/post-pipeline/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// @Summary 	Toggle like
// @Description Likes the post, a second call by the same user takes the like back
// @Tags 		engagement
// @Produce 	json
// @Param 		X-User-ID header string true "Author id, set by the gateway"
// @Param 		id        path   string true "Post ID (uuid)"
// @Success 	201 {object} response.LikeToggled "Liked"
// @Success 	200 {object} response.LikeToggled "Like removed"
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	401 {object} response.Error "Missing user identity"
// @Failure 	404 {object} response.Error "Post not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/posts/{id}/like [post]
func (r *V1) toggleLike(ctx *fiber.Ctx) error {
	postID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	authorID := strings.TrimSpace(ctx.Get(validate.UserIDHeader))
	if authorID == "" {
		return errorResponse(ctx, http.StatusUnauthorized, "user identity is required")
	}

	like, liked, err := r.engagement.ToggleLike(ctx.UserContext(), postID, authorID)
	if err != nil {
		return r.usecaseError(ctx, err, "restapi - v1 - toggleLike - r.engagement.ToggleLike")
	}

	if !liked {
		return ctx.JSON(response.LikeToggled{Message: "Like removed"})
	}

	return ctx.Status(http.StatusCreated).JSON(response.LikeToggled{Liked: true, Like: response.FromLike(like)})
}

// @Summary 	Count likes
// @Tags 		engagement
// @Produce 	json
// @Param 		id path string true "Post ID (uuid)"
// @Success 	200 {object} response.LikeCount
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Post not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/posts/{id}/likes [get]
func (r *V1) countLikes(ctx *fiber.Ctx) error {
	postID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	count, err := r.engagement.CountLikes(ctx.UserContext(), postID)
	if err != nil {
		return r.usecaseError(ctx, err, "restapi - v1 - countLikes - r.engagement.CountLikes")
	}

	return ctx.JSON(response.LikeCount{PostID: postID.String(), Likes: count})
}

// @Summary 	Add comment
// @Tags 		engagement
// @Accept 		json,x-www-form-urlencoded
// @Produce 	json
// @Param 		X-User-ID header string          true "Author id, set by the gateway"
// @Param 		id        path   string          true "Post ID (uuid)"
// @Param 		request   body   request.Comment true "Comment"
// @Success 	201 {object} response.Comment
// @Failure 	400 {object} response.Error "Invalid ID or empty text"
// @Failure 	401 {object} response.Error "Missing user identity"
// @Failure 	404 {object} response.Error "Post not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/posts/{id}/comments [post]
func (r *V1) addComment(ctx *fiber.Ctx) error {
	postID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	in := dto.AddComment{
		PostID:   postID,
		AuthorID: strings.TrimSpace(ctx.Get(validate.UserIDHeader)),
	}
	if in.AuthorID == "" {
		return errorResponse(ctx, http.StatusUnauthorized, "user identity is required")
	}

	var body request.Comment

	err = ctx.BodyParser(&body)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	in.Text = strings.TrimSpace(body.Text)
	if in.Text == "" {
		return errorResponse(ctx, http.StatusBadRequest, "comment text is required")
	}
	if len(in.Text) > validate.MaxTextLen {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("text can't be longer than %d bytes", validate.MaxTextLen))
	}

	comment, err := r.engagement.AddComment(ctx.UserContext(), in)
	if err != nil {
		return r.usecaseError(ctx, err, "restapi - v1 - addComment - r.engagement.AddComment")
	}

	return ctx.Status(http.StatusCreated).JSON(response.FromComment(comment))
}

// @Summary 	List comments
// @Description Oldest first
// @Tags 		engagement
// @Produce 	json
// @Param 		id     path  string true  "Post ID (uuid)"
// @Param 		limit  query int    false "Page size (1-100, default 20)"
// @Param 		offset query int    false "Offset"
// @Success 	200 {object} response.Comments
// @Failure 	400 {object} response.Error "Invalid ID or paging"
// @Failure 	404 {object} response.Error "Post not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/posts/{id}/comments [get]
func (r *V1) listComments(ctx *fiber.Ctx) error {
	postID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	limit, err := queryUint(ctx, "limit", validate.DefaultListLimit)
	if err != nil || limit == 0 || limit > validate.MaxListLimit {
		return errorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("limit must be between 1 and %d", validate.MaxListLimit))
	}

	offset, err := queryUint(ctx, "offset", 0)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "offset must be a non-negative number")
	}

	comments, err := r.engagement.ListComments(ctx.UserContext(), dto.ListComments{PostID: postID, Limit: limit, Offset: offset})
	if err != nil {
		return r.usecaseError(ctx, err, "restapi - v1 - listComments - r.engagement.ListComments")
	}

	return ctx.JSON(response.FromComments(comments, limit, offset))
}
