package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/podfacts/backend/internal/api/response"
	"github.com/podfacts/backend/internal/storage/models"
)

// KeywordStats returns the whole keyword table with the number of distinct
// keywords as total.
func (h *Handler) KeywordStats(c *fiber.Ctx) error {
	env, err := h.keywordStats(c.UserContext())
	return reply(c, env, err, "")
}

func (h *Handler) keywordStats(ctx context.Context) (response.Envelope, error) {
	counts, err := h.engine.KeywordStats(ctx)
	if err != nil {
		return response.Envelope{}, err
	}
	if counts == nil {
		counts = []models.KeywordCount{}
	}
	return response.Counted(counts, int64(len(counts))), nil
}
