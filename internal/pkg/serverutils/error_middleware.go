package serverutils

import (
	"errors"

	"github.com/ehcaw/documix/internal/session"
	"github.com/ehcaw/documix/internal/transcript"
	"github.com/ehcaw/documix/pkg/llm"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors onto envelope responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(FailureResponse(fiberErr.Message))
		case errors.Is(err, session.ErrTurnInProgress):
			return ctx.Status(fiber.StatusConflict).JSON(FailureResponse("a turn is already in progress for this conversation"))
		case errors.Is(err, session.ErrConversationArchived):
			return ctx.Status(fiber.StatusGone).JSON(FailureResponse("conversation has been archived"))
		case errors.Is(err, session.ErrNotStreaming):
			return ctx.Status(fiber.StatusBadRequest).JSON(FailureResponse("conversation is not streaming"))
		case errors.Is(err, transcript.ErrStoreUnavailable):
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(FailureResponse("could not save conversation"))
		case errors.Is(err, llm.ErrProviderUnavailable):
			return ctx.Status(fiber.StatusBadGateway).JSON(FailureResponse("model provider unavailable"))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(FailureResponse(err.Error()))
		}
	}
}
