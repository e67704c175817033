package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"elearning/backend/services"
	"elearning/backend/utils"
)

// handleError answers a service error with its message. Internal errors go to the
// app's ErrorHandler, which logs them.
func handleError(c *fiber.Ctx, err error) error {
	var se *services.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Kind {
	case services.KindValidation, services.KindConflict:
		return utils.BadRequest(c, se.Message)
	case services.KindUnauthorized:
		return utils.Unauthorized(c, se.Message)
	case services.KindForbidden:
		return utils.Forbidden(c, se.Message)
	case services.KindNotFound:
		return utils.NotFound(c, se.Message)
	default:
		return err
	}
}
