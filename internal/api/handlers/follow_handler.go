package handlers

import (
	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/internal/middleware"
	"foodgram/pkg/follow"

	"github.com/gofiber/fiber/v2"
)

type (
	FollowHandler interface {
		Subscribe(c *fiber.Ctx) error
		Unsubscribe(c *fiber.Ctx) error
		GetSubscriptions(c *fiber.Ctx) error
	}

	followHandler struct {
		followService follow.FollowService
	}
)

func NewFollowHandler(followService follow.FollowService) FollowHandler {
	return &followHandler{followService: followService}
}

func (h *followHandler) Subscribe(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubscribe, err)
	}
	recipesLimit, err := parseRecipesLimit(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubscribe, err)
	}

	res, err := h.followService.Subscribe(c.UserContext(), middleware.GetViewer(c), id, recipesLimit)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedSubscribe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessSubscribe)
}

func (h *followHandler) Unsubscribe(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUnsubscribe, err)
	}

	if err := h.followService.Unsubscribe(c.UserContext(), middleware.GetViewer(c), id); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUnsubscribe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessUnsubscribe)
}

func (h *followHandler) GetSubscriptions(c *fiber.Ctx) error {
	recipesLimit, err := parseRecipesLimit(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetSubscriptions, err)
	}

	res, err := h.followService.GetSubscriptions(c.UserContext(), middleware.GetViewer(c), parsePagination(c), recipesLimit)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetSubscriptions, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetSubscriptions)
}
