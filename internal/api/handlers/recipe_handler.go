package handlers

import (
	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/internal/middleware"
	"foodgram/pkg/recipe"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	RecipeHandler interface {
		GetRecipes(c *fiber.Ctx) error
		GetRecipe(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		AddFavorite(c *fiber.Ctx) error
		RemoveFavorite(c *fiber.Ctx) error
		AddToShoppingCart(c *fiber.Ctx) error
		RemoveFromShoppingCart(c *fiber.Ctx) error
		DownloadShoppingCart(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		validator:     validator,
	}
}

func (h *recipeHandler) parseFilter(c *fiber.Ctx) (domain.RecipeFilter, error) {
	var filter domain.RecipeFilter

	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, domain.NewValidationError("author", "expected a user id")
		}
		filter.AuthorID = uint(id)
	}

	seen := make(map[string]bool)
	for _, raw := range c.Context().QueryArgs().PeekMulti("tags") {
		slug := string(raw)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		filter.TagSlugs = append(filter.TagSlugs, slug)
	}

	var err error
	if filter.IsFavorited, err = parseFlag(c, "is_favorited"); err != nil {
		return filter, err
	}
	if filter.IsInShoppingCart, err = parseFlag(c, "is_in_shopping_cart"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRecipes, err)
	}

	res, err := h.recipeService.GetRecipes(c.UserContext(), middleware.GetViewer(c), filter, parsePagination(c))
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetRecipe(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRecipeDetail, err)
	}

	res, err := h.recipeService.GetRecipe(c.UserContext(), middleware.GetViewer(c), id)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetRecipeDetail, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	req := new(domain.RecipeWriteRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	res, err := h.recipeService.CreateRecipe(c.UserContext(), middleware.GetViewer(c), *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCreateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	req := new(domain.RecipeWriteRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.UserContext(), middleware.GetViewer(c), id, *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateRecipe)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteRecipe, err)
	}

	if err := h.recipeService.DeleteRecipe(c.UserContext(), middleware.GetViewer(c), id); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedDeleteRecipe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessDeleteRecipe)
}

func (h *recipeHandler) AddFavorite(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddFavorite, err)
	}

	res, err := h.recipeService.AddFavorite(c.UserContext(), middleware.GetViewer(c), id)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedAddFavorite, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddFavorite)
}

func (h *recipeHandler) RemoveFavorite(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRemoveFavorite, err)
	}

	if err := h.recipeService.RemoveFavorite(c.UserContext(), middleware.GetViewer(c), id); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedRemoveFavorite, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessRemoveFavorite)
}

func (h *recipeHandler) AddToShoppingCart(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddShoppingCart, err)
	}

	res, err := h.recipeService.AddToShoppingCart(c.UserContext(), middleware.GetViewer(c), id)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedAddShoppingCart, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddShoppingCart)
}

func (h *recipeHandler) RemoveFromShoppingCart(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRemoveShoppingCart, err)
	}

	if err := h.recipeService.RemoveFromShoppingCart(c.UserContext(), middleware.GetViewer(c), id); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedRemoveShoppingCart, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessRemoveShoppingCart)
}

func (h *recipeHandler) DownloadShoppingCart(c *fiber.Ctx) error {
	data, err := h.recipeService.DownloadShoppingCart(c.UserContext(), middleware.GetViewer(c))
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedDownloadShoppingCart, err)
	}

	c.Attachment(domain.ShoppingCartFileName)
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.Status(fiber.StatusOK).Send(data)
}
