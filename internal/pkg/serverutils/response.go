package serverutils

import (
	"errors"
	"time"

	"knowledge-chat-be/internal/dto"
	"knowledge-chat-be/pkg/ratelimit"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Success: true,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

var validate = validator.New()

func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

// ErrorHandlerMiddleware converts errors bubbling out of handlers into
// consistent JSON responses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var limitErr *ratelimit.LimitExceededError
		if errors.As(err, &limitErr) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(dto.LimitExceededResponse{
				Success:   false,
				Code:      fiber.StatusTooManyRequests,
				Message:   "Daily chat limit reached. Try again tomorrow.",
				ErrorType: "limit_exceeded",
				Data: dto.LimitExceededData{
					Limit:      limitErr.Limit,
					ResetAfter: nextMidnightUTC(),
				},
			})
		}

		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(400, valErrs.Error()))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, err.Error()))
	}
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
