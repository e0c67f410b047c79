package handler

import (
	"github.com/gofiber/fiber/v2"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/dto"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/service"
)

type AuthHandler struct {
	userService  *service.UserService
	tokenService service.TokenGenerator
}

func NewAuthHandler(userService *service.UserService, tokenService service.TokenGenerator) *AuthHandler {
	return &AuthHandler{userService: userService, tokenService: tokenService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return fail(c, apperr.ErrMissingFields)
	}

	resp, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return fail(c, apperr.ErrInvalidCredentials)
	}

	resp, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return fail(c, apperr.ErrInvalidToken)
	}

	tokens, err := h.userService.Refresh(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return fail(c, apperr.ErrInvalidToken)
	}

	user, err := h.userService.CurrentUser(c.Context(), claims.Subject)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}
