package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrMissingFields),
		errors.Is(err, apperr.ErrInsufficientPoints):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidCredentials),
		errors.Is(err, apperr.ErrMissingToken),
		errors.Is(err, apperr.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrEmailAlreadyInUse):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
