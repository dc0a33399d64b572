package repository

import (
	"context"
	"sync"
	"time"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
)

// MemoryRepo is an in-memory repository used when MongoDB is not configured
// and in tests.
type MemoryRepo[P bingo.Payload] struct {
	mu    sync.RWMutex
	store map[bingo.ObjectID]bingo.Saved[P]
	order []bingo.ObjectID
	now   func() time.Time
}

func NewMemoryRepo[P bingo.Payload]() *MemoryRepo[P] {
	return &MemoryRepo[P]{store: make(map[bingo.ObjectID]bingo.Saved[P]), now: time.Now}
}

func (m *MemoryRepo[P]) Create(_ context.Context, data P) (bingo.Saved[P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := bingo.Saved[P]{ID: bingo.NewObjectID(), Metadata: bingo.NewMetaData(m.now()), Data: data}
	m.store[s.ID] = s
	m.order = append(m.order, s.ID)
	return s, nil
}

func (m *MemoryRepo[P]) Get(_ context.Context, id bingo.ObjectID) (bingo.Saved[P], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.store[id]; ok {
		return s, nil
	}
	return bingo.Saved[P]{}, ErrNotFound
}

func (m *MemoryRepo[P]) List(_ context.Context) ([]bingo.Saved[P], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]bingo.Saved[P], 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.store[id])
	}
	return out, nil
}

func (m *MemoryRepo[P]) Replace(ctx context.Context, id bingo.ObjectID, data P) (bingo.Saved[P], error) {
	return m.Update(ctx, id, func(P) (P, error) { return data, nil })
}

// Update runs mutate under the write lock, so concurrent updates of the same
// resource are serialized.
func (m *MemoryRepo[P]) Update(_ context.Context, id bingo.ObjectID, mutate MutateFunc[P]) (bingo.Saved[P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return bingo.Saved[P]{}, ErrNotFound
	}
	next, err := mutate(s.Data)
	if err != nil {
		return bingo.Saved[P]{}, err
	}
	s.Data = next
	s.Metadata = s.Metadata.Touch(m.now())
	m.store[id] = s
	return s, nil
}

func (m *MemoryRepo[P]) Delete(_ context.Context, id bingo.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
