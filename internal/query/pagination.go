package query

import (
	"errors"
	"fmt"

	"github.com/podfacts/backend/internal/storage"
)

var ErrInvalidPage = errors.New("invalid pagination")

type Pagination struct {
	Total       int64 `json:"total"`
	Limit       int64 `json:"limit"`
	Skip        int64 `json:"skip"`
	HasMore     bool  `json:"hasMore"`
	CurrentPage int64 `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
}

// NewPagination derives the page descriptor for a result of total matches
// viewed through limit and skip. limit must be positive.
func NewPagination(total, limit, skip int64) Pagination {
	return Pagination{
		Total:       total,
		Limit:       limit,
		Skip:        skip,
		HasMore:     skip+limit < total,
		CurrentPage: skip/limit + 1,
		TotalPages:  (total + limit - 1) / limit,
	}
}

func validatePage(limit, skip int64) (storage.Page, error) {
	if limit <= 0 {
		return storage.Page{}, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidPage, limit)
	}
	if skip < 0 {
		return storage.Page{}, fmt.Errorf("%w: skip must not be negative, got %d", ErrInvalidPage, skip)
	}
	return storage.Page{Limit: limit, Skip: skip}, nil
}

func window[T any](items []T, page storage.Page) []T {
	n := int64(len(items))
	start := page.Skip
	if start > n {
		start = n
	}
	end := start + page.Limit
	if end > n {
		end = n
	}
	return items[start:end]
}
