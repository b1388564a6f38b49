package restapi

import (
	"github.com/andreyxaxa/post-pipeline/config"
	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/static"
	v1 "github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1"
	"github.com/andreyxaxa/post-pipeline/internal/usecase"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// NewPostRouter -.
// @title Post service
// @version 1.0.0
// @host localhost:3000
// @BasePath /v1
func NewPostRouter(
	app *fiber.App,
	cfg *config.Post,
	posts usecase.PostUseCase,
	engagement usecase.EngagementUseCase,
	l logger.Interface,
) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// K8s probe
	app.Get("/health", health)

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewPostRoutes(apiV1Group, posts, engagement, cfg.Image.MaxFileSize, l)
	}
}

// NewWorkerRouter serves the files the worker produced.
func NewWorkerRouter(app *fiber.App, cfg *config.Worker, worker usecase.ImageWorkerUseCase, l logger.Interface) {
	app.Get("/health", health)

	static.NewImageRoutes(app.Group(cfg.Image.PublicPrefix), worker, l)
}

func health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}
