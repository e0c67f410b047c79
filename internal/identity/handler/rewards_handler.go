package handler

import (
	"github.com/gofiber/fiber/v2"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/dto"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/service"
)

type RewardsHandler struct {
	userService *service.UserService
}

func NewRewardsHandler(userService *service.UserService) *RewardsHandler {
	return &RewardsHandler{userService: userService}
}

func (h *RewardsHandler) Redeem(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return fail(c, apperr.ErrInvalidToken)
	}

	var input dto.RedeemInput
	if err := c.BodyParser(&input); err != nil {
		// A body the parser cannot read coerces to a zero-cost redeem.
		input = dto.RedeemInput{}
	}

	newBalance, err := h.userService.Redeem(c.Context(), claims.Subject, input.Cost())
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.RedeemResponse{
		OK:         true,
		RewardType: input.RewardType,
		NewBalance: newBalance,
	})
}

func (h *RewardsHandler) Upvote(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return fail(c, apperr.ErrInvalidToken)
	}

	newBalance, err := h.userService.AwardUpvote(c.Context(), claims.Subject)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.UpvoteResponse{
		OK:         true,
		NewBalance: newBalance,
	})
}
