package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/repository"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// versionTTL outlives any in-flight read of the entry it guards.
const versionTTL = 24 * time.Hour

var errStaleFill = errors.New("cache: entry changed during read")

// RedisRepository is a read-through cache in front of another repository.
// Resources are stored as envelope JSON under "<prefix><kind>:<oid>" with a
// fixed TTL. Every write to an existing resource bumps a version counter at
// "<key>:v" and drops the entry; a read only fills the entry if the version
// it saw before reading the inner repository is still current.
type RedisRepository[P bingo.Payload] struct {
	inner  repository.Repository[P]
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRepository wraps inner. Prefix may be empty.
func NewRedisRepository[P bingo.Payload](inner repository.Repository[P], client *redis.Client, prefix string, ttl time.Duration) *RedisRepository[P] {
	if prefix == "" {
		prefix = "bingo:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisRepository[P]{inner: inner, client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepository[P]) key(id bingo.ObjectID) string {
	return r.prefix + string(bingo.KindOf[P]()) + ":" + id.Hex()
}

func (r *RedisRepository[P]) versionKey(id bingo.ObjectID) string {
	return r.key(id) + ":v"
}

func (r *RedisRepository[P]) version(ctx context.Context, id bingo.ObjectID) (int64, error) {
	v, err := r.client.Get(ctx, r.versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *RedisRepository[P]) store(ctx context.Context, s bingo.Saved[P]) {
	b, err := json.Marshal(s)
	if err != nil {
		logger.Warnf("cache: encode %s: %v", r.key(s.ID), err)
		return
	}
	if err := r.client.Set(ctx, r.key(s.ID), b, r.ttl).Err(); err != nil {
		logger.Warnf("cache: set %s: %v", r.key(s.ID), err)
	}
}

// fill stores s only while the version still equals seen. WATCH aborts the
// SET if a writer bumps the version between the check and EXEC.
func (r *RedisRepository[P]) fill(ctx context.Context, s bingo.Saved[P], seen int64) {
	b, err := json.Marshal(s)
	if err != nil {
		logger.Warnf("cache: encode %s: %v", r.key(s.ID), err)
		return
	}
	vkey := r.versionKey(s.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != seen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, r.key(s.ID), b, r.ttl)
			return nil
		})
		return err
	}, vkey)
	if err != nil && !errors.Is(err, errStaleFill) && !errors.Is(err, redis.TxFailedErr) {
		logger.Warnf("cache: fill %s: %v", r.key(s.ID), err)
	}
}

// invalidate bumps the version and drops the entry in one transaction.
func (r *RedisRepository[P]) invalidate(ctx context.Context, id bingo.ObjectID) {
	vkey := r.versionKey(id)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, vkey)
		p.Expire(ctx, vkey, versionTTL)
		p.Del(ctx, r.key(id))
		return nil
	})
	if err != nil {
		logger.Warnf("cache: invalidate %s: %v", r.key(id), err)
	}
}

// Create caches the new resource directly; its id cannot have been read yet.
func (r *RedisRepository[P]) Create(ctx context.Context, data P) (bingo.Saved[P], error) {
	s, err := r.inner.Create(ctx, data)
	if err != nil {
		return s, err
	}
	r.store(ctx, s)
	return s, nil
}

// Get serves from Redis when possible. Cache failures fall through to the
// inner repository.
func (r *RedisRepository[P]) Get(ctx context.Context, id bingo.ObjectID) (bingo.Saved[P], error) {
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	switch {
	case err == nil:
		var s bingo.Saved[P]
		if uerr := json.Unmarshal(b, &s); uerr == nil {
			return s, nil
		}
		r.invalidate(ctx, id)
	case !errors.Is(err, redis.Nil):
		logger.Warnf("cache: get %s: %v", r.key(id), err)
	}
	seen, verr := r.version(ctx, id)
	s, err := r.inner.Get(ctx, id)
	if err != nil {
		return s, err
	}
	if verr == nil {
		r.fill(ctx, s, seen)
	}
	return s, nil
}

func (r *RedisRepository[P]) List(ctx context.Context) ([]bingo.Saved[P], error) {
	return r.inner.List(ctx)
}

func (r *RedisRepository[P]) Replace(ctx context.Context, id bingo.ObjectID, data P) (bingo.Saved[P], error) {
	s, err := r.inner.Replace(ctx, id, data)
	r.invalidate(ctx, id)
	return s, err
}

func (r *RedisRepository[P]) Update(ctx context.Context, id bingo.ObjectID, mutate repository.MutateFunc[P]) (bingo.Saved[P], error) {
	s, err := r.inner.Update(ctx, id, mutate)
	r.invalidate(ctx, id)
	return s, err
}

func (r *RedisRepository[P]) Delete(ctx context.Context, id bingo.ObjectID) error {
	err := r.inner.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}
