package types

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates the backing store could not be reached or
// timed out. Primitives surface it to callers; the ingestion loop treats it
// as the trigger for backoff-retry.
var ErrStoreUnavailable = errors.New("store unavailable")

// AnalysisError wraps a failure from feature extraction or scoring.
// It is contained at the pipeline boundary: the event is dropped and logged.
type AnalysisError struct {
	Address string // pair address of the event that failed
	Stage   string // "extract" or "score"
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed for %s at %s: %v", e.Address, e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// PublishError wraps a failure to append a signal message. The analysis
// record stays cached even though the signal was not emitted; operators see
// the mismatch in logs and metrics.
type PublishError struct {
	Channel string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %q failed: %v", e.Channel, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
