package bingo

import (
	"fmt"
	"math/rand/v2"
)

// centerCell is the row/column of the middle square.
const centerCell = GridSize / 2

// LayoutCard builds a card with the center criterion in the middle cell and
// the remaining positions filled row by row from order. order must be a
// permutation of 1..24.
func LayoutCard(prospectName string, order []int) (BingoCard, error) {
	if len(order) != CriteriaCount-1 {
		return BingoCard{}, fmt.Errorf("%w: layout needs %d positions, got %d", ErrInvalid, CriteriaCount-1, len(order))
	}
	card := BingoCard{ProspectName: prospectName, TileMatrix: make([][]BingoSquare, GridSize)}
	next := 0
	for r := 0; r < GridSize; r++ {
		card.TileMatrix[r] = make([]BingoSquare, GridSize)
		for c := 0; c < GridSize; c++ {
			if r == centerCell && c == centerCell {
				card.TileMatrix[r][c] = BingoSquare{Index: CenterIndex}
				continue
			}
			card.TileMatrix[r][c] = BingoSquare{Index: order[next]}
			next++
		}
	}
	if err := card.Validate(); err != nil {
		return BingoCard{}, err
	}
	return card, nil
}

// NewCard lays out a card for prospectName with the non-center criteria in
// random order.
func NewCard(prospectName string) (BingoCard, error) {
	order := make([]int, 0, CriteriaCount-1)
	for i := CenterIndex + 1; i < CriteriaCount; i++ {
		order = append(order, i)
	}
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return LayoutCard(prospectName, order)
}
