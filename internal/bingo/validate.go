package bingo

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalid is returned (wrapped) when a payload breaks a schema rule.
var ErrInvalid = errors.New("invalid resource")

var (
	validate   = validator.New()
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Validate checks the list length and entry sizes.
func (c CriteriaArray) Validate() error {
	if len(c.Criteria) != CriteriaCount {
		return fmt.Errorf("%w: criteria must have %d entries, got %d", ErrInvalid, CriteriaCount, len(c.Criteria))
	}
	return structErr(validate.Struct(c))
}

// Validate checks the matrix shape and that every square points at a
// distinct criteria position.
func (b BingoCard) Validate() error {
	if strings.TrimSpace(b.ProspectName) == "" {
		return fmt.Errorf("%w: prospectName is required", ErrInvalid)
	}
	if len(b.TileMatrix) != GridSize {
		return fmt.Errorf("%w: tileMatrix must have %d rows, got %d", ErrInvalid, GridSize, len(b.TileMatrix))
	}
	seen := make(map[int]struct{}, CriteriaCount)
	for r, row := range b.TileMatrix {
		if len(row) != GridSize {
			return fmt.Errorf("%w: tileMatrix row %d must have %d squares, got %d", ErrInvalid, r, GridSize, len(row))
		}
		for c, sq := range row {
			if sq.Index < 0 || sq.Index >= CriteriaCount {
				return fmt.Errorf("%w: square [%d][%d] index %d out of range", ErrInvalid, r, c, sq.Index)
			}
			if _, dup := seen[sq.Index]; dup {
				return fmt.Errorf("%w: square [%d][%d] repeats index %d", ErrInvalid, r, c, sq.Index)
			}
			seen[sq.Index] = struct{}{}
		}
	}
	return structErr(validate.Struct(b))
}

func structErr(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

// maxSanitizePasses bounds the decode/strip loop in Sanitize.
const maxSanitizePasses = 16

// Sanitize strips markup from user supplied text and trims surrounding space.
// The result is plain text: entities are decoded, and decoding repeats until
// the policy leaves the text unchanged, so encoded tags cannot survive and
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	policyOnce.Do(func() { policy = bluemonday.StrictPolicy() })
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
		if next == s {
			return s
		}
		s = next
	}
	// still nested after maxSanitizePasses; drop every character that can
	// open a tag or an entity
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '&':
			return -1
		}
		return r
	}, s))
}

// Sanitized returns a copy with every criterion sanitized.
func (c CriteriaArray) Sanitized() CriteriaArray {
	out := CriteriaArray{Criteria: make([]string, len(c.Criteria))}
	for i, s := range c.Criteria {
		out.Criteria[i] = Sanitize(s)
	}
	return out
}

// Sanitized returns a copy with the prospect name sanitized.
func (b BingoCard) Sanitized() BingoCard {
	b.ProspectName = Sanitize(b.ProspectName)
	return b
}
