package bingo

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind names the payload a resource carries.
type Kind string

const (
	KindCriteria  Kind = "criteria"
	KindBingoCard Kind = "bingoCard"
)

// Payload is implemented only by CriteriaArray and BingoCard.
type Payload interface {
	Kind() Kind
	Validate() error
	isPayload()
}

func (CriteriaArray) Kind() Kind { return KindCriteria }
func (BingoCard) Kind() Kind     { return KindBingoCard }

func (CriteriaArray) isPayload() {}
func (BingoCard) isPayload()     {}

// KindOf returns the kind carried by payload type P.
func KindOf[P Payload]() Kind {
	var p P
	return p.Kind()
}

// Resource is either Unsaved (no identity yet) or Saved (identity and
// metadata assigned by the store). Switch over both variants.
type Resource[P Payload] interface {
	Payload() P
	isResource()
}

// Unsaved is a resource the store has not persisted yet.
type Unsaved[P Payload] struct {
	Data P
}

// Saved is a persisted resource.
type Saved[P Payload] struct {
	ID       ObjectID
	Metadata MetaData
	Data     P
}

func (u Unsaved[P]) Payload() P { return u.Data }
func (s Saved[P]) Payload() P   { return s.Data }

func (Unsaved[P]) isResource() {}
func (Saved[P]) isResource()   {}

// envelope is the wire form shared by both variants.
type envelope struct {
	ID       *ObjectID       `json:"_id,omitempty"`
	Metadata *MetaData       `json:"metadata,omitempty"`
	Data     json.RawMessage `json:"data"`
}

type envelopeOut[P Payload] struct {
	ID       *ObjectID `json:"_id,omitempty"`
	Metadata *MetaData `json:"metadata,omitempty"`
	Data     P         `json:"data"`
}

func (u Unsaved[P]) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeOut[P]{Data: u.Data})
}

func (s Saved[P]) MarshalJSON() ([]byte, error) {
	id, md := s.ID, s.Metadata
	return json.Marshal(envelopeOut[P]{ID: &id, Metadata: &md, Data: s.Data})
}

func (s *Saved[P]) UnmarshalJSON(b []byte) error {
	r, err := DecodeResource[P](b)
	if err != nil {
		return err
	}
	saved, ok := r.(Saved[P])
	if !ok {
		return errors.New("resource has no _id")
	}
	*s = saved
	return nil
}

func (u *Unsaved[P]) UnmarshalJSON(b []byte) error {
	r, err := DecodeResource[P](b)
	if err != nil {
		return err
	}
	*u = Unsaved[P]{Data: r.Payload()}
	return nil
}

// DecodeResource reads an envelope. A body with "_id" decodes to Saved;
// otherwise it decodes to Unsaved and any metadata is dropped.
func DecodeResource[P Payload](b []byte) (Resource[P], error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode %s resource: %w", KindOf[P](), err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("decode %s resource: missing data", KindOf[P]())
	}
	var data P
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode %s resource data: %w", KindOf[P](), err)
	}
	if env.ID == nil {
		return Unsaved[P]{Data: data}, nil
	}
	saved := Saved[P]{ID: *env.ID, Data: data}
	if env.Metadata != nil {
		saved.Metadata = *env.Metadata
	}
	return saved, nil
}
