package static

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/andreyxaxa/post-pipeline/internal/usecase"
	"github.com/andreyxaxa/post-pipeline/pkg/logger"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

type Images struct {
	worker usecase.ImageWorkerUseCase
	logger logger.Interface
}

func NewImageRoutes(group fiber.Router, worker usecase.ImageWorkerUseCase, l logger.Interface) {
	r := &Images{worker: worker, logger: l}

	group.Get("/:name", r.getImage)
}

func (r *Images) getImage(ctx *fiber.Ctx) error {
	name := ctx.Params("name")

	body, err := r.worker.OpenProcessedImage(ctx.UserContext(), name)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidArgument):
			return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid image name"})
		case errors.Is(err, errs.ErrRecordNotFound):
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
		}
		r.logger.Error(err, "restapi - static - getImage - r.worker.OpenProcessedImage")

		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "storage problems"})
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}

	ctx.Set(fiber.HeaderContentType, contentType)
	// names are never reused
	ctx.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")

	return ctx.SendStream(body)
}
