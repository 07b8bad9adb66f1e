package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"citation-assist-be/internal/service"
	"citation-assist-be/pkg/chunker"
	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/retrieval/pipeline"
	"citation-assist-be/pkg/retrieval/query"
	"citation-assist-be/pkg/retrieval/session"
	"citation-assist-be/pkg/store"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses in one
// place so controllers just return errors.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		switch {
		case errors.Is(err, session.ErrSuperseded):
			// A newer generation took over; nothing to deliver.
			return ctx.SendStatus(fiber.StatusNoContent)
		case errors.Is(err, service.ErrPaperNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, query.ErrEmptyQuery),
			errors.Is(err, store.ErrInvalidStrategy):
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, chunker.ErrEmptyDocument),
			errors.Is(err, chunker.ErrMalformedOffsets):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, pipeline.ErrTimeout):
			return ctx.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, index.ErrUnavailable):
			// Retrying the same request is safe; ingest and query are
			// idempotent.
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse(err.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
