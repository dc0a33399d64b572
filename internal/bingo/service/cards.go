package service

import (
	"context"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/repository"
)

// CardService adds square marking and card generation to the generic
// bingo card operations.
type CardService struct {
	*Service[bingo.BingoCard]
}

func NewCardService(repo repository.Repository[bingo.BingoCard]) *CardService {
	return &CardService{Service: &Service[bingo.BingoCard]{repo: repo, sanitize: bingo.BingoCard.Sanitized}}
}

// NewMemoryCardService returns a card service backed by the in-memory repository.
func NewMemoryCardService() *CardService {
	return NewCardService(repository.NewMemoryRepo[bingo.BingoCard]())
}

// MarkSquare sets the checked flag of one square. The read-modify-write is
// done by the repository so concurrent marks on one card do not overwrite
// each other.
func (s *CardService) MarkSquare(ctx context.Context, id bingo.ObjectID, row, col int, checked bool) (bingo.Saved[bingo.BingoCard], error) {
	saved, err := s.repo.Update(ctx, id, func(card bingo.BingoCard) (bingo.BingoCard, error) {
		return card.WithChecked(row, col, checked)
	})
	if err != nil {
		return bingo.Saved[bingo.BingoCard]{}, s.record("mark", err)
	}
	return saved, s.record("mark", nil)
}

// Generate creates a card for prospectName with a random layout.
func (s *CardService) Generate(ctx context.Context, prospectName string) (bingo.Saved[bingo.BingoCard], error) {
	card, err := bingo.NewCard(bingo.Sanitize(prospectName))
	if err != nil {
		return bingo.Saved[bingo.BingoCard]{}, s.record("generate", err)
	}
	return s.Create(ctx, card)
}
