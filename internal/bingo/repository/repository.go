package repository

import (
	"context"
	"errors"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource changed concurrently")
)

// MutateFunc receives the stored payload and returns its replacement.
type MutateFunc[P bingo.Payload] func(current P) (P, error)

// Repository persists resources of one kind. Identity and metadata are
// always assigned here, never by the caller.
type Repository[P bingo.Payload] interface {
	Create(ctx context.Context, data P) (bingo.Saved[P], error)
	Get(ctx context.Context, id bingo.ObjectID) (bingo.Saved[P], error)
	List(ctx context.Context) ([]bingo.Saved[P], error)
	Replace(ctx context.Context, id bingo.ObjectID, data P) (bingo.Saved[P], error)
	Update(ctx context.Context, id bingo.ObjectID, mutate MutateFunc[P]) (bingo.Saved[P], error)
	Delete(ctx context.Context, id bingo.ObjectID) error
}

// CollectionName is the Mongo collection used for kind.
func CollectionName(kind bingo.Kind) string {
	switch kind {
	case bingo.KindCriteria:
		return "criteria"
	case bingo.KindBingoCard:
		return "cards"
	}
	return string(kind)
}
