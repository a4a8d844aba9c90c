package faults_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"dropsync/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrMissingInput, "53", "load sensor log", "open failed", base)
	if !errors.Is(err, faults.ErrMissingInput) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"run 53", "load sensor log", "open failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := faults.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, faults.ErrOutput) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want faults.Class
	}{
		{nil, faults.ClassNone},
		{faults.Wrap(faults.ErrMissingInput, "1", "load", "", nil), faults.ClassFatal},
		{faults.Wrap(faults.ErrSchema, "1", "load", "", nil), faults.ClassFatal},
		{faults.Wrap(faults.ErrNoSamples, "1", "load", "", nil), faults.ClassFatal},
		{faults.Wrap(faults.ErrNoEvents, "1", "match", "", nil), faults.ClassDegenerate},
		{fmt.Errorf("stage: %w", faults.ErrEmptyWindow), faults.ClassDegenerate},
		{faults.Wrap(faults.ErrUnsorted, "1", "match", "", nil), faults.ClassConsistency},
		{faults.ErrOverlap, faults.ClassConsistency},
		{errors.New("plain"), faults.ClassFatal},
	}
	for _, tc := range cases {
		if got := faults.Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if !faults.IsDegenerate(faults.ErrEmptyWindow) || faults.IsDegenerate(faults.ErrSchema) {
		t.Fatal("IsDegenerate mismatch")
	}
}
