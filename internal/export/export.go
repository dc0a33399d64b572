// Package export writes a snapshot of every stored resource to object
// storage: one envelope per resource plus a manifest listing the keys.
package export

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/repository"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
)

// Sink stores one JSON object under key. *storage.MinIOStorage implements it.
type Sink interface {
	PutJSON(ctx context.Context, key string, v any) error
}

// Lister is the read side of a resource store or service.
type Lister[P bingo.Payload] interface {
	List(ctx context.Context) ([]bingo.Saved[P], error)
}

type Manifest struct {
	ExportedAt string   `json:"exportedAt"`
	Criteria   []string `json:"criteria"`
	Cards      []string `json:"cards"`
}

type Exporter struct {
	criteria Lister[bingo.CriteriaArray]
	cards    Lister[bingo.BingoCard]
	sink     Sink
	prefix   string
	now      func() time.Time
}

// New returns an exporter writing under prefix (may be empty).
func New(criteria Lister[bingo.CriteriaArray], cards Lister[bingo.BingoCard], sink Sink, prefix string) *Exporter {
	return &Exporter{criteria: criteria, cards: cards, sink: sink, prefix: prefix, now: time.Now}
}

// Run exports everything and writes manifest.json last, so a manifest only
// exists for a complete snapshot.
func (e *Exporter) Run(ctx context.Context) (Manifest, error) {
	m := Manifest{ExportedAt: e.now().UTC().Format(time.RFC3339)}

	var err error
	if m.Criteria, err = exportKind(ctx, e, e.criteria); err != nil {
		return Manifest{}, err
	}
	if m.Cards, err = exportKind(ctx, e, e.cards); err != nil {
		return Manifest{}, err
	}
	if err := e.sink.PutJSON(ctx, e.key("manifest.json"), m); err != nil {
		return Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	logger.Infof("exported %d criteria lists and %d cards", len(m.Criteria), len(m.Cards))
	return m, nil
}

func exportKind[P bingo.Payload](ctx context.Context, e *Exporter, l Lister[P]) ([]string, error) {
	kind := bingo.KindOf[P]()
	list, err := l.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	keys := make([]string, 0, len(list))
	for _, r := range list {
		key := e.key(repository.CollectionName(kind), r.ID.Hex()+".json")
		if err := e.sink.PutJSON(ctx, key, r); err != nil {
			return nil, fmt.Errorf("write %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (e *Exporter) key(parts ...string) string {
	return path.Join(append([]string{e.prefix}, parts...)...)
}
