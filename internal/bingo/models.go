package bingo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// CriteriaCount is the number of entries in the shared criteria list and
	// the number of squares on a card.
	CriteriaCount = 25
	// GridSize is the width and height of a card's tile matrix.
	GridSize = 5
	// CenterIndex is the criteria position used for the free center square.
	CenterIndex = 0
	// ImportantCount is how many criteria after the center are "important".
	ImportantCount = 4
)

// isoLayout matches the ISO-8601 form produced by JavaScript's toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// MetaData records document provenance. CreatedAt never changes once set;
// UpdatedAt is refreshed by the store on every mutation.
type MetaData struct {
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMetaData returns metadata for a document created at now. Timestamps are
// kept at the millisecond precision of the wire format.
func NewMetaData(now time.Time) MetaData {
	now = now.UTC().Truncate(time.Millisecond)
	return MetaData{CreatedAt: now, UpdatedAt: now}
}

// Touch returns a copy with UpdatedAt moved to now.
func (m MetaData) Touch(now time.Time) MetaData {
	m.UpdatedAt = now.UTC().Truncate(time.Millisecond)
	return m
}

type metaDataJSON struct {
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (m MetaData) MarshalJSON() ([]byte, error) {
	return json.Marshal(metaDataJSON{
		CreatedAt: m.CreatedAt.UTC().Format(isoLayout),
		UpdatedAt: m.UpdatedAt.UTC().Format(isoLayout),
	})
}

func (m *MetaData) UnmarshalJSON(b []byte) error {
	var raw metaDataJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	created, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return fmt.Errorf("metadata.createdAt: %w", err)
	}
	updated, err := time.Parse(time.RFC3339, raw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("metadata.updatedAt: %w", err)
	}
	m.CreatedAt = created.UTC()
	m.UpdatedAt = updated.UTC()
	return nil
}

// ObjectID is the identity a document store assigns to a resource.
// It encodes to JSON as {"$oid":"<hex>"}.
type ObjectID primitive.ObjectID

// NilObjectID is the zero identity.
var NilObjectID ObjectID

// NewObjectID generates a fresh identity.
func NewObjectID() ObjectID { return ObjectID(primitive.NewObjectID()) }

// ParseObjectID parses a 24 character hex identity.
func ParseObjectID(s string) (ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return NilObjectID, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return ObjectID(oid), nil
}

// Hex returns the 24 character hex form.
func (id ObjectID) Hex() string { return primitive.ObjectID(id).Hex() }

func (id ObjectID) String() string { return id.Hex() }

// IsZero reports whether id is the nil identity.
func (id ObjectID) IsZero() bool { return id == NilObjectID }

// Primitive converts to the driver type.
func (id ObjectID) Primitive() primitive.ObjectID { return primitive.ObjectID(id) }

type oidJSON struct {
	OID *string `json:"$oid"`
}

func (id ObjectID) MarshalJSON() ([]byte, error) {
	h := id.Hex()
	return json.Marshal(oidJSON{OID: &h})
}

func (id *ObjectID) UnmarshalJSON(b []byte) error {
	var raw oidJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("_id: %w", err)
	}
	if raw.OID == nil {
		return errors.New("_id: missing $oid")
	}
	parsed, err := ParseObjectID(*raw.OID)
	if err != nil {
		return fmt.Errorf("_id: %w", err)
	}
	*id = parsed
	return nil
}

// CriteriaArray is the ordered criteria list shared by every card.
type CriteriaArray struct {
	Criteria []string `json:"criteria" bson:"criteria" validate:"len=25,dive,max=200"`
}

// At returns the criterion at position i.
func (c CriteriaArray) At(i int) (string, bool) {
	if i < 0 || i >= len(c.Criteria) {
		return "", false
	}
	return c.Criteria[i], true
}

// IsCenter reports whether position i is the free center square.
func IsCenter(i int) bool { return i == CenterIndex }

// IsImportant reports whether position i is one of the important criteria.
func IsImportant(i int) bool { return i > CenterIndex && i <= CenterIndex+ImportantCount }

// BingoSquare points into the criteria list and records whether the
// prospect satisfies that criterion.
type BingoSquare struct {
	Index   int  `json:"index" bson:"index" validate:"min=0,max=24"`
	Checked bool `json:"checked" bson:"checked"`
}

// BingoCard is a 5x5 grid of squares evaluated against one prospect.
type BingoCard struct {
	ProspectName string          `json:"prospectName" bson:"prospectName" validate:"required,max=120"`
	TileMatrix   [][]BingoSquare `json:"tileMatrix" bson:"tileMatrix" validate:"len=5,dive,len=5,dive"`
}

// Square returns the square at row, col.
func (b BingoCard) Square(row, col int) (BingoSquare, bool) {
	if row < 0 || row >= len(b.TileMatrix) || col < 0 || col >= len(b.TileMatrix[row]) {
		return BingoSquare{}, false
	}
	return b.TileMatrix[row][col], true
}

// WithChecked returns a copy of the card with the square at row, col marked.
// The receiver's matrix is not modified.
func (b BingoCard) WithChecked(row, col int, checked bool) (BingoCard, error) {
	if _, ok := b.Square(row, col); !ok {
		return b, fmt.Errorf("%w: square [%d][%d] out of range", ErrInvalid, row, col)
	}
	out := BingoCard{ProspectName: b.ProspectName, TileMatrix: make([][]BingoSquare, len(b.TileMatrix))}
	for i, r := range b.TileMatrix {
		out.TileMatrix[i] = append([]BingoSquare(nil), r...)
	}
	out.TileMatrix[row][col].Checked = checked
	return out, nil
}
