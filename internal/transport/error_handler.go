package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error         string   `json:"error"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// ErrorHandler is the single place domain errors become HTTP responses.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code, body := classify(err)

		log := observability.WithContextLogger(logger, c.UserContext())
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request error", fields...)
		} else {
			log.Warn("request rejected", fields...)
		}

		return c.Status(code).JSON(body)
	}
}

func classify(err error) (int, errorResponse) {
	var validationErr *domain.ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		if len(validationErr.MissingFields) > 0 {
			return fiber.StatusBadRequest, errorResponse{
				Error:         "missing required fields",
				MissingFields: validationErr.MissingFields,
			}
		}
		return fiber.StatusBadRequest, errorResponse{Error: validationErr.Error()}
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, errorResponse{Error: "proposal not found"}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, errorResponse{Error: err.Error()}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, errorResponse{Error: fiberErr.Message}
	default:
		// Persistence and lookup failures keep the store's message for operators.
		return fiber.StatusInternalServerError, errorResponse{Error: err.Error()}
	}
}
