package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/podfacts/backend/internal/api/response"
	"github.com/podfacts/backend/internal/middleware/validation"
	"github.com/podfacts/backend/internal/query"
	"github.com/podfacts/backend/internal/storage/models"
	"github.com/podfacts/backend/pkg/logger"
)

func (h *Handler) ListEpisodes(c *fiber.Ctx) error {
	env, err := h.listEpisodes(c.UserContext(), listParamsFromQuery(c))
	return reply(c, env, err, episodeNotFound)
}

// GetEpisode serves /podcasts/:id. With include=facts the episode carries
// every fact recorded for it.
func (h *Handler) GetEpisode(c *fiber.Ctx) error {
	env, err := h.getEpisode(c.UserContext(), c.Params("id"), c.Query("include") == "facts")
	return reply(c, env, err, episodeNotFound)
}

func (h *Handler) CreateEpisode(c *fiber.Ctx) error {
	var episode models.Episode
	if err := c.BodyParser(&episode); err != nil {
		logger.Warn("Failed to parse episode body", zap.Error(err))
		return response.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	id, err := h.engine.CreateEpisode(c.UserContext(), &episode)
	if err != nil {
		status, fail := failure(err, episodeNotFound)
		return c.Status(status).JSON(fail)
	}

	return c.JSON(response.OK(fiber.Map{"insertedId": id.Hex()}))
}

func (h *Handler) listEpisodes(ctx context.Context, p listParams) (response.Envelope, error) {
	limit, skip, err := validation.ParsePage(p.Limit, p.Skip, h.limits)
	if err != nil {
		return response.Envelope{}, err
	}
	if err := validation.CheckSearch(p.Search, h.limits.MaxSearchLength); err != nil {
		return response.Envelope{}, err
	}

	page, err := h.engine.ListEpisodes(ctx, query.EpisodeListRequest{
		PodcastID: p.PodcastID,
		EpisodeID: p.EpisodeID,
		Search:    p.Search,
		Limit:     limit,
		Skip:      skip,
	})
	if err != nil {
		return response.Envelope{}, err
	}

	data := page.Data
	if data == nil {
		data = []models.Episode{}
	}
	return response.Page(data, page.Pagination), nil
}

func (h *Handler) getEpisode(ctx context.Context, id string, withFacts bool) (response.Envelope, error) {
	if withFacts {
		detail, err := h.engine.GetEpisodeWithFacts(ctx, id)
		if err != nil {
			return response.Envelope{}, err
		}
		return response.OK(detail), nil
	}

	episode, err := h.engine.GetEpisode(ctx, id)
	if err != nil {
		return response.Envelope{}, err
	}
	return response.OK(episode), nil
}
