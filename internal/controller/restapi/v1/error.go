package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/post-pipeline/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

// usecaseError maps domain sentinels to status codes. Anything unknown is
// logged and hidden behind a 500.
func (r *V1) usecaseError(ctx *fiber.Ctx, err error, where string) error {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return errorResponse(ctx, http.StatusUnauthorized, "user identity is required")
	case errors.Is(err, errs.ErrInvalidArgument):
		return errorResponse(ctx, http.StatusBadRequest, "post must have text or an image")
	case errors.Is(err, errs.ErrRecordNotFound):
		return errorResponse(ctx, http.StatusNotFound, "post not found")
	}

	r.logger.Error(err, where)

	return errorResponse(ctx, http.StatusInternalServerError, "internal server error")
}
