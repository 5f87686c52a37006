package stats

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/api/response"
	"github.com/podfacts/backend/pkg/logger"
)

type Recorder interface {
	Increment(ctx context.Context, route string) error
}

type Source interface {
	Counts(ctx context.Context) (map[string]int64, error)
}

// Middleware counts each request under "METHOD /route/pattern". A failed
// increment is logged and never fails the request.
func Middleware(rec Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		key := c.Method() + " " + c.Route().Path
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if incErr := rec.Increment(ctx, key); incErr != nil {
			logger.Warn("Failed to record request", zap.String("route", key), zap.Error(incErr))
		}

		return err
	}
}

func Handler(src Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := src.Counts(c.UserContext())
		if err != nil {
			logger.Error("Failed to read request counters", zap.Error(err))
			return response.Error(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(response.OK(counts))
	}
}
