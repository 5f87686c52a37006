package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/podfacts/backend/internal/api/response"
	"github.com/podfacts/backend/internal/middleware/validation"
	"github.com/podfacts/backend/internal/query"
	"github.com/podfacts/backend/internal/storage/models"
)

func (h *Handler) ListFacts(c *fiber.Ctx) error {
	env, err := h.listFacts(c.UserContext(), listParamsFromQuery(c))
	return reply(c, env, err, factNotFound)
}

func (h *Handler) GetFact(c *fiber.Ctx) error {
	env, err := h.getFact(c.UserContext(), c.Params("id"))
	return reply(c, env, err, factNotFound)
}

func (h *Handler) listFacts(ctx context.Context, p listParams) (response.Envelope, error) {
	limit, skip, err := validation.ParsePage(p.Limit, p.Skip, h.limits)
	if err != nil {
		return response.Envelope{}, err
	}
	if err := validation.CheckSearch(p.Search, h.limits.MaxSearchLength); err != nil {
		return response.Envelope{}, err
	}

	page, err := h.engine.ListFacts(ctx, query.FactListRequest{
		Search:  p.Search,
		Keyword: p.Keyword,
		Limit:   limit,
		Skip:    skip,
	})
	if err != nil {
		return response.Envelope{}, err
	}

	data := page.Data
	if data == nil {
		data = []models.FactRecord{}
	}
	return response.Page(data, page.Pagination), nil
}

func (h *Handler) getFact(ctx context.Context, id string) (response.Envelope, error) {
	fact, err := h.engine.GetFact(ctx, id)
	if err != nil {
		return response.Envelope{}, err
	}
	return response.OK(fact), nil
}
