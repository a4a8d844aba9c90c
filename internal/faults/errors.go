// Package faults defines the error markers shared by the dropsync pipeline and
// maps them onto per-run outcomes.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingInput     = errors.New("missing input")
	ErrSchema           = errors.New("schema error")
	ErrNoSamples        = errors.New("no valid samples")
	ErrNoEvents         = errors.New("no events to align")
	ErrEmptyWindow      = errors.New("empty event window")
	ErrUnsorted         = errors.New("unsorted input")
	ErrOverlap          = errors.New("overlapping intervals")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrConfiguration    = errors.New("configuration error")
	ErrOutput           = errors.New("output error")
)

// Class groups errors by how the batch reacts to them.
type Class string

const (
	// ClassNone is returned for nil errors.
	ClassNone Class = ""
	// ClassFatal aborts the current run; sibling runs continue.
	ClassFatal Class = "fatal"
	// ClassDegenerate skips the remaining stages of a run with a warning.
	ClassDegenerate Class = "degenerate"
	// ClassConsistency reports a violated ordering precondition.
	ClassConsistency Class = "consistency"
)

// Wrap builds an error message that includes run context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, run, operation, message string, err error) error {
	detail := buildDetail(run, operation, message)
	if marker == nil {
		marker = ErrOutput
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the class that decides how a run proceeds.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrNoEvents), errors.Is(err, ErrEmptyWindow):
		return ClassDegenerate
	case errors.Is(err, ErrUnsorted), errors.Is(err, ErrOverlap):
		return ClassConsistency
	default:
		return ClassFatal
	}
}

// IsDegenerate reports whether err only means there is nothing left to do for a run.
func IsDegenerate(err error) bool {
	return Classify(err) == ClassDegenerate
}

func buildDetail(run, operation, message string) string {
	parts := make([]string, 0, 3)
	if run = strings.TrimSpace(run); run != "" {
		parts = append(parts, "run "+run)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
