package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("bad float")
	err := Wrap(ErrMalformedRecord, "normalize", "parse row 3", "rate column is not numeric", cause)

	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected marker to be preserved: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved: %v", err)
	}
	if !strings.Contains(err.Error(), "normalize: parse row 3: rate column is not numeric") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"fetch":            Wrap(ErrFetch, "fetch", "", "", nil),
		"not_found":        ErrNotFound,
		"malformed_record": Wrap(ErrMalformedRecord, "", "", "x", nil),
		"empty_date_set":   ErrEmptyDateSet,
		"blocked":          ErrBlocked,
		"internal":         errors.New("boom"),
	}
	for want, err := range cases {
		if got := Kind(err); got != want {
			t.Errorf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
	if Kind(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(Wrap(ErrFetch, "fetch", "", "", nil)) {
		t.Fatal("expected fetch errors to be retryable")
	}
	if Retryable(ErrMalformedRecord) {
		t.Fatal("malformed records must not be retryable")
	}
}
