package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// countingRepo records how often Get reaches the backing store.
type countingRepo struct {
	*repository.MemoryRepo[bingo.CriteriaArray]
	gets int
}

func (c *countingRepo) Get(ctx context.Context, id bingo.ObjectID) (bingo.Saved[bingo.CriteriaArray], error) {
	c.gets++
	return c.MemoryRepo.Get(ctx, id)
}

func criteria(prefix string) bingo.CriteriaArray {
	c := make([]string, bingo.CriteriaCount)
	for i := range c {
		c[i] = fmt.Sprintf("%s %d", prefix, i)
	}
	return bingo.CriteriaArray{Criteria: c}
}

func setup(t *testing.T) (*mr.Miniredis, *countingRepo, *RedisRepository[bingo.CriteriaArray]) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &countingRepo{MemoryRepo: repository.NewMemoryRepo[bingo.CriteriaArray]()}
	return m, inner, NewRedisRepository[bingo.CriteriaArray](inner, client, "test:", 2*time.Second)
}

func TestRedisRepository_ReadThrough(t *testing.T) {
	m, inner, repo := setup(t)
	ctx := context.Background()

	s, err := repo.Create(ctx, criteria("a"))
	require.NoError(t, err)
	require.True(t, m.Exists("test:criteria:"+s.ID.Hex()))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.Data.Criteria, got.Data.Criteria)
	require.Equal(t, 0, inner.gets, "cached resource must not hit the store")

	// expire the entry; the next read goes to the store and refills it
	m.FastForward(3 * time.Second)
	require.False(t, m.Exists("test:criteria:"+s.ID.Hex()))
	_, err = repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 1, inner.gets)
	require.True(t, m.Exists("test:criteria:"+s.ID.Hex()))
}

func TestRedisRepository_WritesDropEntry(t *testing.T) {
	m, inner, repo := setup(t)
	ctx := context.Background()

	s, err := repo.Create(ctx, criteria("a"))
	require.NoError(t, err)
	_, err = repo.Replace(ctx, s.ID, criteria("b"))
	require.NoError(t, err)
	require.False(t, m.Exists("test:criteria:"+s.ID.Hex()))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "b 0", got.Data.Criteria[0])
	require.Equal(t, 1, inner.gets)
	require.True(t, m.Exists("test:criteria:"+s.ID.Hex()))

	_, err = repo.Update(ctx, s.ID, func(c bingo.CriteriaArray) (bingo.CriteriaArray, error) {
		c.Criteria = append([]string(nil), c.Criteria...)
		c.Criteria[0] = "center"
		return c, nil
	})
	require.NoError(t, err)
	got, err = repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "center", got.Data.Criteria[0])
	require.Equal(t, 2, inner.gets)
}

// pausingRepo blocks the first Get after it has read from the store, so a
// write can land before the read returns.
type pausingRepo struct {
	*repository.MemoryRepo[bingo.CriteriaArray]
	started chan struct{}
	release chan struct{}
}

func (p *pausingRepo) Get(ctx context.Context, id bingo.ObjectID) (bingo.Saved[bingo.CriteriaArray], error) {
	s, err := p.MemoryRepo.Get(ctx, id)
	if p.release != nil {
		close(p.started)
		<-p.release
		p.release = nil
	}
	return s, err
}

func TestRedisRepository_SlowReadDoesNotCacheStaleValue(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	inner := &pausingRepo{MemoryRepo: repository.NewMemoryRepo[bingo.CriteriaArray]()}
	repo := NewRedisRepository[bingo.CriteriaArray](inner, client, "test:", time.Minute)
	ctx := context.Background()

	s, err := repo.Create(ctx, criteria("old"))
	require.NoError(t, err)
	m.Del("test:criteria:" + s.ID.Hex())

	inner.started = make(chan struct{})
	inner.release = make(chan struct{})
	type result struct {
		s   bingo.Saved[bingo.CriteriaArray]
		err error
	}
	done := make(chan result)
	go func() {
		got, err := repo.Get(ctx, s.ID)
		done <- result{got, err}
	}()

	<-inner.started
	_, err = repo.Replace(ctx, s.ID, criteria("new"))
	require.NoError(t, err)
	close(inner.release)

	racing := <-done
	require.NoError(t, racing.err)
	require.Equal(t, "old 0", racing.s.Data.Criteria[0])
	require.False(t, m.Exists("test:criteria:"+s.ID.Hex()), "read that overlapped a write must not fill the cache")

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "new 0", got.Data.Criteria[0])
}

func TestRedisRepository_DeleteDropsEntry(t *testing.T) {
	m, _, repo := setup(t)
	ctx := context.Background()

	s, err := repo.Create(ctx, criteria("a"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, s.ID))
	require.False(t, m.Exists("test:criteria:"+s.ID.Hex()))

	_, err = repo.Get(ctx, s.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRedisRepository_CorruptEntryFallsThrough(t *testing.T) {
	m, inner, repo := setup(t)
	ctx := context.Background()

	s, err := repo.Create(ctx, criteria("a"))
	require.NoError(t, err)
	require.NoError(t, m.Set("test:criteria:"+s.ID.Hex(), "not json"))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "a 0", got.Data.Criteria[0])
	require.Equal(t, 1, inner.gets)
}
