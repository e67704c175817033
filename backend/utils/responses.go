package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageResponse is the envelope of every error and of message-only successes.
type MessageResponse struct {
	Message string `json:"message"`
}

func Message(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(MessageResponse{Message: message})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Message(c, fiber.StatusBadRequest, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Message(c, fiber.StatusNotFound, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Message(c, fiber.StatusUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Message(c, fiber.StatusForbidden, message)
}

func InternalServerError(c *fiber.Ctx) error {
	return Message(c, fiber.StatusInternalServerError, "Internal server error")
}

// ErrorHandler answers errors that escape a handler with the message envelope.
func ErrorHandler(logger *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return Message(c, fe.Code, fe.Message)
		}
		logger.Errorw("unhandled error", "path", c.Path(), "method", c.Method(), "error", err)
		return InternalServerError(c)
	}
}
