package verify

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTimeout       = errors.New("verify: exporter did not return the expected records in time")
	ErrMismatch      = errors.New("verify: record did not survive the round trip")
	ErrCountMismatch = errors.New("verify: exporter returned a different number of records")
	ErrNilSource     = errors.New("verify: source is nil")
	ErrInvalidConfig = errors.New("verify: invalid config")
)

// MismatchError describes one expected record that differs from its exported
// counterpart. Index is the position in production order.
type MismatchError struct {
	Index    int
	Position int64
	Fields   []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verify: record %d (position %d) differs in %s", e.Index, e.Position, strings.Join(e.Fields, ", "))
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}
