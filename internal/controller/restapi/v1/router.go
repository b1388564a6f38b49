package v1

import (
	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/post-pipeline/internal/usecase"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewPostRoutes(
	apiV1Group fiber.Router,
	posts usecase.PostUseCase,
	engagement usecase.EngagementUseCase,
	maxFileSize int64,
	l logger.Interface,
) {
	if maxFileSize <= 0 {
		maxFileSize = validate.MaxFileSize
	}

	r := &V1{posts: posts, engagement: engagement, logger: l, maxFileSize: maxFileSize}

	{
		apiV1Group.Post("/posts", r.createPost)
		apiV1Group.Get("/posts", r.listPosts)
		apiV1Group.Get("/posts/:id", r.getPost)

		apiV1Group.Post("/posts/:id/like", r.toggleLike)
		apiV1Group.Get("/posts/:id/likes", r.countLikes)
		apiV1Group.Post("/posts/:id/comments", r.addComment)
		apiV1Group.Get("/posts/:id/comments", r.listComments)
	}
}
