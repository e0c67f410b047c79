package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/dto"
)

func RegisterRoutes(app *fiber.App, auth *AuthHandler, rewards *RewardsHandler) {
	app.Get("/health", Health)

	app.Post("/auth/register", auth.Register)
	app.Post("/auth/login", auth.Login)
	app.Post("/auth/refresh", auth.Refresh)
	app.Get("/auth/me", auth.RequireAuth, auth.Me)

	app.Post("/rewards/redeem", auth.RequireAuth, rewards.Redeem)
	app.Post("/issues/:id/upvote", auth.RequireAuth, rewards.Upvote)
}

func Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		OK:   true,
		Time: time.Now().UTC().Format(time.RFC3339),
	})
}
