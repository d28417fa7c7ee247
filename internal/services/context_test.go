package services_test

import (
	"context"
	"testing"

	"fxpipe/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "reconcile")
	ctx = services.WithTask(ctx, "reconcile:EUR_USD")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "reconcile" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if task, ok := services.TaskFromContext(ctx); !ok || task != "reconcile:EUR_USD" {
		t.Fatalf("unexpected task: %v %v", task, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithTask(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
	if _, ok := services.TaskFromContext(ctx); ok {
		t.Fatal("expected no task")
	}
}
