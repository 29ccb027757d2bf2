package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantMissing []string
	}{
		{
			name:        "missing fields",
			err:         &domain.ValidationError{MissingFields: []string{"nombre", "consumo"}},
			wantStatus:  fiber.StatusBadRequest,
			wantError:   "missing required fields",
			wantMissing: []string{"nombre", "consumo"},
		},
		{
			name:       "validation message",
			err:        &domain.ValidationError{Message: "consumo must be a positive number"},
			wantStatus: fiber.StatusBadRequest,
			wantError:  "validation error: consumo must be a positive number",
		},
		{
			name:       "not found",
			err:        fmt.Errorf("proposal %q: %w", "p-9", domain.ErrNotFound),
			wantStatus: fiber.StatusNotFound,
			wantError:  "proposal not found",
		},
		{
			name:       "persistence keeps store message",
			err:        fmt.Errorf("%w: %w", domain.ErrPersistence, errors.New("relation \"proposals\" does not exist")),
			wantStatus: fiber.StatusInternalServerError,
			wantError:  "persistence error: relation \"proposals\" does not exist",
		},
		{
			name:       "lookup",
			err:        fmt.Errorf("%w: %w", domain.ErrLookup, errors.New("timeout")),
			wantStatus: fiber.StatusInternalServerError,
			wantError:  "lookup error: timeout",
		},
		{
			name:       "fiber error",
			err:        fiber.NewError(fiber.StatusTooManyRequests, "too many requests"),
			wantStatus: fiber.StatusTooManyRequests,
			wantError:  "too many requests",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			raw, _ := io.ReadAll(resp.Body)
			var body errorResponse
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("json.Unmarshal() error = %v, body=%s", err, raw)
			}
			if body.Error != tt.wantError {
				t.Fatalf("error = %q, want %q", body.Error, tt.wantError)
			}
			if !reflect.DeepEqual(body.MissingFields, tt.wantMissing) {
				t.Fatalf("missingFields = %v, want %v", body.MissingFields, tt.wantMissing)
			}
		})
	}
}

func TestErrorHandlerLogLevels(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
	app.Get("/bad", func(c *fiber.Ctx) error { return &domain.ValidationError{MissingFields: []string{"email"}} })
	app.Get("/boom", func(c *fiber.Ctx) error { return domain.ErrPersistence })

	for _, path := range []string{"/bad", "/boom"} {
		if _, err := app.Test(httptest.NewRequest("GET", path, nil)); err != nil {
			t.Fatalf("app.Test(%s) error = %v", path, err)
		}
	}

	if got := recorded.FilterLevelExact(zapcore.WarnLevel).Len(); got != 1 {
		t.Fatalf("warn entries = %d, want 1", got)
	}
	if got := recorded.FilterLevelExact(zapcore.ErrorLevel).Len(); got != 1 {
		t.Fatalf("error entries = %d, want 1", got)
	}
}
