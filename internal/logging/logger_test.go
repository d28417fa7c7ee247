package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fxpipe/internal/config"
	"fxpipe/internal/logging"
	"fxpipe/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "fxpipe.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponentAndTask(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithTask(services.WithRunID(context.Background(), "run-1"), "monthly:EUR_USD")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "executor")).Info("task completed", logging.Int("rows", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, " run-1 executor: [monthly:EUR_USD] task completed") {
		t.Fatalf("expected run, component and task prefix, got %q", line)
	}
	if strings.Contains(line, "run_id=") || !strings.Contains(line, "rows=3") {
		t.Fatalf("expected structured fields, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("careful", logging.String(logging.FieldEventType, "task_blocked"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if entry["level"] != "warn" || entry["msg"] != "careful" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	if entry[logging.FieldEventType] != "task_blocked" {
		t.Fatalf("expected event type, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestDebugLevelFiltersInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "error",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Error("shown")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") || !strings.Contains(string(content), "shown") {
		t.Fatalf("unexpected filtering: %q", content)
	}
}

func TestConsoleLoggerShortensRunIDAndTrailsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "0f8fad5b-d9cb-469f-a165-70867728950e")
	logging.ErrorWithContext(logging.WithContext(ctx, logger), "task failed", "task_failure",
		logging.Error(services.Wrap(services.ErrFetch, "fetch", "download", "status 503", nil)),
		logging.Strings("pairs", []string{"EUR_USD", "EUR_SEK"}),
	)

	line := buf.String()
	if !strings.Contains(line, " 0f8fad5b task failed") {
		t.Fatalf("expected shortened run id prefix, got %q", line)
	}
	if !strings.Contains(line, "pairs=[EUR_USD,EUR_SEK]") {
		t.Fatalf("expected list rendering, got %q", line)
	}
	if strings.Index(line, "pairs=") > strings.Index(line, "error=") {
		t.Fatalf("expected error fields last, got %q", line)
	}
	if strings.Contains(line, "event_type=") {
		t.Fatalf("event type should be hidden above debug, got %q", line)
	}
}
