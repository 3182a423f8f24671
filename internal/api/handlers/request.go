package handlers

import (
	"foodgram/domain"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrParseID
	}
	return uint(id), nil
}

// parsePagination reads page and limit, falling back to the defaults for
// missing or malformed values and capping limit.
func parsePagination(c *fiber.Ctx) domain.PaginationRequest {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(domain.DefaultPageSize)))
	if err != nil || limit < 1 {
		limit = domain.DefaultPageSize
	}
	if limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}

	return domain.PaginationRequest{Page: page, Limit: limit}
}

func parseFlag(c *fiber.Ctx, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError(key, "expected one of 1, 0, true, false")
	}
	return v, nil
}

// parseRecipesLimit reads recipes_limit; zero means no limit.
func parseRecipesLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError("recipes_limit", "expected a non-negative integer")
	}
	return n, nil
}
