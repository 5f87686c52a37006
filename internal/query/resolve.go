package query

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/podfacts/backend/internal/storage"
)

var ErrNotFound = errors.New("not found")

// resolve looks id up as an ObjectID when it parses as one, then falls back
// to the stable episode id. A well-formed ObjectID that matches nothing still
// takes the fallback.
func resolve[T any](
	ctx context.Context,
	id string,
	byObjectID func(context.Context, primitive.ObjectID) (*T, error),
	byEpisodeID func(context.Context, string) (*T, error),
) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		doc, err := byObjectID(ctx, oid)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	doc, err := byEpisodeID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
