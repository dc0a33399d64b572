package bingo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutCardPutsCenterInMiddle(t *testing.T) {
	order := make([]int, 0, 24)
	for i := 24; i >= 1; i-- {
		order = append(order, i)
	}
	card, err := LayoutCard("Globex", order)
	require.NoError(t, err)
	assert.Equal(t, CenterIndex, card.TileMatrix[2][2].Index)
	assert.Equal(t, 24, card.TileMatrix[0][0].Index)
	assert.Equal(t, 1, card.TileMatrix[4][4].Index)
}

func TestLayoutCardRejectsBadOrder(t *testing.T) {
	_, err := LayoutCard("Globex", []int{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalid)

	dup := make([]int, 24)
	for i := range dup {
		dup[i] = 1
	}
	_, err = LayoutCard("Globex", dup)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewCardIsValid(t *testing.T) {
	for i := 0; i < 20; i++ {
		card, err := NewCard("Initech")
		require.NoError(t, err)
		require.NoError(t, card.Validate())
		assert.Equal(t, CenterIndex, card.TileMatrix[2][2].Index)
	}
}
