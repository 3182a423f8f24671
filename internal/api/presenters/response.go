package presenters

import (
	"errors"
	"foodgram/domain"
	"foodgram/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, data any, statusCode int, message string) error {
	if statusCode == fiber.StatusNoContent {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(statusCode).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse renders err in the failure envelope. Field errors from the
// validator or a domain.ValidationError are reported under "errors".
func ErrorResponse(c *fiber.Ctx, statusCode int, message string, err error) error {
	res := Response{
		Status:  false,
		Message: message,
	}
	if err != nil {
		res.Error = err.Error()

		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			res.Errors = verr.Fields
		} else if fields := utils.ValidationMessages(err); len(fields) > 0 {
			res.Errors = fields
		}
	}
	return c.Status(statusCode).JSON(res)
}

// StatusFromError maps domain errors onto HTTP status codes.
func StatusFromError(err error) int {
	var verr *domain.ValidationError
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.As(err, &ferr):
		return ferr.Code
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenNotFound):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrNotRecipeAuthor),
		errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTagNotFound),
		errors.Is(err, domain.ErrIngredientNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyFavorited),
		errors.Is(err, domain.ErrNotFavorited),
		errors.Is(err, domain.ErrAlreadyInCart),
		errors.Is(err, domain.ErrNotInCart),
		errors.Is(err, domain.ErrSelfFollow),
		errors.Is(err, domain.ErrAlreadyFollowing),
		errors.Is(err, domain.ErrNotFollowing),
		errors.Is(err, domain.ErrEmailAlreadyExists),
		errors.Is(err, domain.ErrUsernameAlreadyExists),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTagAlreadyExists),
		errors.Is(err, domain.ErrParseID):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ServiceError renders an error returned by a service. Unexpected errors are
// reported without their internal details.
func ServiceError(c *fiber.Ctx, message string, err error) error {
	status := StatusFromError(err)
	if status == fiber.StatusInternalServerError {
		return ErrorResponse(c, status, message, errors.New(domain.MessageFailedProcessRequest))
	}
	return ErrorResponse(c, status, message, err)
}

// ErrorHandler is the fiber fallback for errors no handler rendered.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFromError(err)
	message := domain.MessageFailedProcessRequest
	if status == fiber.StatusNotFound {
		message = domain.MessageNotFound
	}
	return ErrorResponse(c, status, message, err)
}
