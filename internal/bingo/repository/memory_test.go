package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/stretchr/testify/require"
)

func criteria(prefix string) bingo.CriteriaArray {
	c := make([]string, bingo.CriteriaCount)
	for i := range c {
		c[i] = fmt.Sprintf("%s %d", prefix, i)
	}
	return bingo.CriteriaArray{Criteria: c}
}

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo[bingo.CriteriaArray]()
	created, err := r.Create(ctx, criteria("first"))
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())
	require.Equal(t, created.Metadata.CreatedAt, created.Metadata.UpdatedAt)

	got, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "first 0", got.Data.Criteria[0])

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	later := created.Metadata.CreatedAt.Add(time.Second)
	r.now = func() time.Time { return later }
	replaced, err := r.Replace(ctx, created.ID, criteria("second"))
	require.NoError(t, err)
	require.Equal(t, "second 3", replaced.Data.Criteria[3])
	require.True(t, replaced.Metadata.CreatedAt.Equal(created.Metadata.CreatedAt), "createdAt must not change")
	require.True(t, replaced.Metadata.UpdatedAt.Equal(later.UTC()))

	err = r.Delete(ctx, created.ID)
	require.NoError(t, err)
	_, err = r.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, created.ID), ErrNotFound)
}

func TestMemoryRepoMetadataSurvivesJSON(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo[bingo.CriteriaArray]()
	r.now = func() time.Time { return time.Date(2024, 3, 9, 10, 11, 12, 345678901, time.UTC) }
	created, err := r.Create(ctx, criteria("a"))
	require.NoError(t, err)
	require.Equal(t, 345000000, created.Metadata.CreatedAt.Nanosecond())

	r.now = func() time.Time { return time.Date(2024, 3, 9, 10, 11, 13, 999999999, time.UTC) }
	updated, err := r.Replace(ctx, created.ID, criteria("b"))
	require.NoError(t, err)

	b, err := json.Marshal(updated)
	require.NoError(t, err)
	var decoded bingo.Saved[bingo.CriteriaArray]
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.True(t, decoded.Metadata.CreatedAt.Equal(updated.Metadata.CreatedAt))
	require.True(t, decoded.Metadata.UpdatedAt.Equal(updated.Metadata.UpdatedAt))

	got, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, got.Metadata.UpdatedAt.Equal(decoded.Metadata.UpdatedAt))
}

func TestMemoryRepoListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo[bingo.CriteriaArray]()
	var ids []bingo.ObjectID
	for i := 0; i < 4; i++ {
		s, err := r.Create(ctx, criteria(fmt.Sprint(i)))
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	require.NoError(t, r.Delete(ctx, ids[1]))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, ids[0], list[0].ID)
	require.Equal(t, ids[2], list[1].ID)
	require.Equal(t, ids[3], list[2].ID)
}

func TestMemoryRepoUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo[bingo.CriteriaArray]()
	s, err := r.Create(ctx, criteria("x"))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = r.Update(ctx, s.ID, func(bingo.CriteriaArray) (bingo.CriteriaArray, error) { return bingo.CriteriaArray{}, boom })
	require.ErrorIs(t, err, boom)
	got, _ := r.Get(ctx, s.ID)
	require.Equal(t, "x 0", got.Data.Criteria[0], "failed mutation must not be stored")

	_, err = r.Update(ctx, bingo.NewObjectID(), func(c bingo.CriteriaArray) (bingo.CriteriaArray, error) { return c, nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo[bingo.CriteriaArray]()
	s, err := r.Create(ctx, bingo.CriteriaArray{Criteria: []string{}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Update(ctx, s.ID, func(c bingo.CriteriaArray) (bingo.CriteriaArray, error) {
				c.Criteria = append(append([]string(nil), c.Criteria...), fmt.Sprint(i))
				return c, nil
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Data.Criteria, 50)
}

func TestCollectionName(t *testing.T) {
	require.Equal(t, "criteria", CollectionName(bingo.KindCriteria))
	require.Equal(t, "cards", CollectionName(bingo.KindBingoCard))
}
