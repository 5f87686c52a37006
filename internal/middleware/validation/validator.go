package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/api/response"
)

var ErrInvalidParameter = errors.New("invalid parameter")

type Config struct {
	MaxSearchLength     int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Limits bounds the list parameters accepted from clients. The same values
// apply to HTTP query strings and WebSocket params.
type Limits struct {
	DefaultLimit    int64
	MaxLimit        int64
	MaxSearchLength int
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxSearchLength == 0 {
		cfg.MaxSearchLength = 200
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			if !allowedContentType(c.Get(fiber.HeaderContentType), cfg.AllowedContentTypes) {
				return response.Error(c, fiber.StatusUnsupportedMediaType, "Unsupported content type")
			}
		}

		search := c.Query("search")
		if err := CheckSearch(search, cfg.MaxSearchLength); err != nil {
			cfg.Logger.Warn("Rejected search term",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
				zap.Int("length", len(search)),
			)
			return response.Error(c, fiber.StatusBadRequest, err.Error())
		}

		return c.Next()
	}
}

// ParsePage reads limit and skip from their raw query string forms. Empty
// values take the defaults.
func ParsePage(limitStr, skipStr string, limits Limits) (int64, int64, error) {
	limit := limits.DefaultLimit
	if limitStr != "" {
		v, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be an integer", ErrInvalidParameter)
		}
		limit = v
	}

	var skip int64
	if skipStr != "" {
		v, err := strconv.ParseInt(skipStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: skip must be an integer", ErrInvalidParameter)
		}
		skip = v
	}

	if err := CheckPage(limit, skip, limits); err != nil {
		return 0, 0, err
	}
	return limit, skip, nil
}

func CheckPage(limit, skip int64, limits Limits) error {
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidParameter)
	}
	if limits.MaxLimit > 0 && limit > limits.MaxLimit {
		return fmt.Errorf("%w: limit must not exceed %d", ErrInvalidParameter, limits.MaxLimit)
	}
	if skip < 0 {
		return fmt.Errorf("%w: skip must not be negative", ErrInvalidParameter)
	}
	return nil
}

// CheckSearch rejects search terms longer than maxLen bytes or containing
// NUL, which no store regex accepts. A maxLen of zero disables the length
// check.
func CheckSearch(search string, maxLen int) error {
	if maxLen > 0 && len(search) > maxLen {
		return fmt.Errorf("%w: search exceeds maximum length of %d", ErrInvalidParameter, maxLen)
	}
	if strings.ContainsRune(search, '\x00') {
		return fmt.Errorf("%w: search contains invalid characters", ErrInvalidParameter)
	}
	return nil
}

func allowedContentType(contentType string, allowed []string) bool {
	if contentType == "" {
		return false
	}
	for _, t := range allowed {
		if strings.HasPrefix(strings.ToLower(contentType), t) {
			return true
		}
	}
	return false
}
