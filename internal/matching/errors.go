package matching

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means an embedding could not be produced. The
	// whole identification fails; there are no partial results.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrInvalidImage means the query photo could not be decoded.
	ErrInvalidImage = errors.New("invalid image")

	// ErrMetadataInconsistency means the winning book has an embedding but no
	// metadata row.
	ErrMetadataInconsistency = errors.New("metadata inconsistency")

	// ErrDimensionMismatch means an embedding does not have the configured
	// dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Stage names the step of an identification that failed.
type Stage string

const (
	StageDecode         Stage = "decode"
	StageLoadCandidates Stage = "load_candidates"
	StageEmbed          Stage = "embed"
	StageScore          Stage = "score"
	StageLookup         Stage = "lookup"
)

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// DimensionMismatchError reports an embedding of unexpected length.
type DimensionMismatchError struct {
	Source string
	Want   int
	Got    int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s embedding has dimension %d, expected %d", e.Source, e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}
