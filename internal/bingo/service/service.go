package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/repository"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/metrics"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Service implements the resource operations used by the handler layer for
// one payload kind.
type Service[P bingo.Payload] struct {
	repo     repository.Repository[P]
	sanitize func(P) P
}

// NewCriteriaService returns the service for the shared criteria lists.
func NewCriteriaService(repo repository.Repository[bingo.CriteriaArray]) *Service[bingo.CriteriaArray] {
	return &Service[bingo.CriteriaArray]{repo: repo, sanitize: bingo.CriteriaArray.Sanitized}
}

// NewMemoryCriteriaService returns a criteria service backed by the in-memory repository.
func NewMemoryCriteriaService() *Service[bingo.CriteriaArray] {
	return NewCriteriaService(repository.NewMemoryRepo[bingo.CriteriaArray]())
}

func (s *Service[P]) kind() string { return string(bingo.KindOf[P]()) }

// record counts op and maps store errors onto service errors.
func (s *Service[P]) record(op string, err error) error {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		result, err = "not_found", ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		result, err = "conflict", ErrConflict
	case errors.Is(err, bingo.ErrInvalid):
		result = "invalid"
	default:
		result = "error"
		logger.Errorf("%s %s failed: %v", s.kind(), op, err)
	}
	metrics.ResourceOperations.WithLabelValues(s.kind(), op, result).Inc()
	return err
}

func (s *Service[P]) prepare(data P) (P, error) {
	data = s.sanitize(data)
	if err := data.Validate(); err != nil {
		return data, err
	}
	return data, nil
}

// Save persists r. Unsaved resources are created; Saved resources replace
// the stored payload under their identity.
func (s *Service[P]) Save(ctx context.Context, r bingo.Resource[P]) (bingo.Saved[P], error) {
	switch v := r.(type) {
	case bingo.Unsaved[P]:
		return s.Create(ctx, v.Data)
	case bingo.Saved[P]:
		return s.Replace(ctx, v.ID, v.Data)
	default:
		return bingo.Saved[P]{}, fmt.Errorf("unsupported resource variant %T", r)
	}
}

func (s *Service[P]) Create(ctx context.Context, data P) (bingo.Saved[P], error) {
	data, err := s.prepare(data)
	if err != nil {
		return bingo.Saved[P]{}, s.record("create", err)
	}
	saved, err := s.repo.Create(ctx, data)
	if err != nil {
		return bingo.Saved[P]{}, s.record("create", err)
	}
	logger.Debugf("created %s %s", s.kind(), saved.ID)
	return saved, s.record("create", nil)
}

func (s *Service[P]) Get(ctx context.Context, id bingo.ObjectID) (bingo.Saved[P], error) {
	saved, err := s.repo.Get(ctx, id)
	return saved, s.record("get", err)
}

func (s *Service[P]) List(ctx context.Context) ([]bingo.Saved[P], error) {
	list, err := s.repo.List(ctx)
	return list, s.record("list", err)
}

func (s *Service[P]) Replace(ctx context.Context, id bingo.ObjectID, data P) (bingo.Saved[P], error) {
	data, err := s.prepare(data)
	if err != nil {
		return bingo.Saved[P]{}, s.record("replace", err)
	}
	saved, err := s.repo.Replace(ctx, id, data)
	if err != nil {
		return bingo.Saved[P]{}, s.record("replace", err)
	}
	return saved, s.record("replace", nil)
}

func (s *Service[P]) Delete(ctx context.Context, id bingo.ObjectID) error {
	return s.record("delete", s.repo.Delete(ctx, id))
}
