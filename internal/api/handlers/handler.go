package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/api/response"
	"github.com/podfacts/backend/internal/middleware/validation"
	"github.com/podfacts/backend/internal/query"
	"github.com/podfacts/backend/pkg/logger"
)

const (
	episodeNotFound = "Podcast episode not found"
	factNotFound    = "Surprising fact not found"
)

// Handler serves the podcast, fact and keyword routes. Each operation is
// written once against plain parameters so the HTTP and WebSocket
// transports return identical bodies.
type Handler struct {
	engine *query.Engine
	limits validation.Limits
}

func New(engine *query.Engine, limits validation.Limits) *Handler {
	return &Handler{
		engine: engine,
		limits: limits,
	}
}

// listParams carries the raw list inputs before validation.
type listParams struct {
	PodcastID string
	EpisodeID string
	Search    string
	Keyword   string
	Limit     string
	Skip      string
}

func listParamsFromQuery(c *fiber.Ctx) listParams {
	return listParams{
		PodcastID: c.Query("podcast_id"),
		EpisodeID: c.Query("episode_id"),
		Search:    c.Query("search"),
		Keyword:   c.Query("keyword"),
		Limit:     c.Query("limit"),
		Skip:      c.Query("skip"),
	}
}

// failure maps an operation error to a status code and error envelope.
func failure(err error, notFound string) (int, response.Envelope) {
	switch {
	case errors.Is(err, query.ErrNotFound):
		return fiber.StatusNotFound, response.Fail(notFound)
	case errors.Is(err, validation.ErrInvalidParameter), errors.Is(err, query.ErrInvalidPage):
		return fiber.StatusBadRequest, response.Fail(err.Error())
	default:
		logger.Error("Request failed", zap.Error(err))
		return fiber.StatusInternalServerError, response.Fail(err.Error())
	}
}

func reply(c *fiber.Ctx, env response.Envelope, err error, notFound string) error {
	if err != nil {
		status, fail := failure(err, notFound)
		return c.Status(status).JSON(fail)
	}
	return c.JSON(env)
}

func formatOptional(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
