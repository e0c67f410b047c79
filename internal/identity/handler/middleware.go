package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/service"
)

const claimsLocalKey = "claims"

const bearerPrefix = "Bearer "

// RequireAuth verifies the bearer access token and stores its claims in the
// request locals for downstream handlers.
func (h *AuthHandler) RequireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return fail(c, apperr.ErrMissingToken)
	}

	claims, err := h.tokenService.VerifyAccessToken(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return fail(c, apperr.ErrInvalidToken)
	}

	c.Locals(claimsLocalKey, claims)

	return c.Next()
}

func currentClaims(c *fiber.Ctx) *service.JWTCustomClaims {
	claims, _ := c.Locals(claimsLocalKey).(*service.JWTCustomClaims)
	return claims
}

// RequestLogger logs every request with its status and latency.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))

		return err
	}
}
