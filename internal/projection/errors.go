package projection

import (
	"errors"
	"fmt"

	"gaugeScope/internal/model"
)

var (
	// ErrEntityMissing marks an entity that must exist but does not.
	ErrEntityMissing = errors.New("entity missing")
	// ErrBribeNotFound marks a gauge whose external_bribe() read reverted.
	ErrBribeNotFound = errors.New("bribe not found")
)

// FatalError aborts the current event. It names the offending entity.
type FatalError struct {
	Kind model.Kind
	ID   string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func missing(kind model.Kind, id string) error {
	return &FatalError{Kind: kind, ID: id, Err: ErrEntityMissing}
}

// EventError attaches event coordinates to a failed apply.
type EventError struct {
	Event       string
	BlockNumber uint64
	TxHash      string
	LogIndex    uint64
	Err         error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("apply %s (block %d, tx %s, log %d): %v", e.Event, e.BlockNumber, e.TxHash, e.LogIndex, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
