package artifact_test

import (
	"errors"
	"os"
	"slices"
	"testing"

	"fxpipe/internal/artifact"
	"fxpipe/internal/services"
)

func TestStageCommitPublishesDeclaredOutputs(t *testing.T) {
	store := openStore(t)
	stage, err := store.Stage("pairs", "dates")
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	pairs := artifact.NewTable("currency_pair")
	pairs.Append("EUR_USD")
	if err := stage.Write("pairs", pairs); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if store.Exists("pairs") {
		t.Fatal("staged output must not be visible before commit")
	}
	if got := stage.Missing(); !slices.Equal(got, []string{"dates"}) {
		t.Fatalf("Missing = %v", got)
	}
	if err := stage.Commit(); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if !store.Exists("pairs") {
		t.Fatal("expected committed output to exist")
	}
	stage.Discard()
	if !store.Exists("pairs") {
		t.Fatal("discard after commit must keep outputs")
	}
}

func TestStageRejectsUndeclaredKey(t *testing.T) {
	store := openStore(t)
	stage, err := store.Stage("EUR_USD_pairs")
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	defer stage.Discard()
	err = stage.Write("pairs", artifact.NewTable("currency_pair"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageDiscardLeavesPreviousContent(t *testing.T) {
	store := openStore(t)
	original := artifact.NewTable("date")
	original.Append("2024-01-05")
	if err := store.Write("dates", original); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	stage, err := store.Stage("dates")
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if err := stage.Write("dates", artifact.NewTable("date")); err != nil {
		t.Fatalf("staged write: %v", err)
	}
	stage.Discard()

	got, err := store.Read("dates")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected previous content to survive discard, got %v", got.Rows)
	}
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temporaries to be removed, found %d entries", len(entries))
	}
}
