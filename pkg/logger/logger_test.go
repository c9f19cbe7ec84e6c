package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	// Test development mode
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize development logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Test production mode
	err = Init()
	if err != nil {
		t.Fatalf("failed to initialize production logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger = Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

// Basic logging test (slog-backed; no Sugar)
func TestLoggerBasic(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil")
	}

	ctx := context.Background()
	logger.Info(ctx, "test message", String("k", "v"))
}

func TestLoggerNamed(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	ctx := context.Background()
	namedLogger.Info(ctx, "test message")
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat(FormatJSON)); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	Get().Named("ingest").Info(context.Background(), "payload parsed", Int64("events", 3), Bool("ok", true))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v: %s", err, buf.String())
	}
	if entry["msg"] != "payload parsed" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	group, ok := entry["ingest"].(map[string]any)
	if !ok || group["events"] != float64(3) {
		t.Errorf("expected events under the ingest group, got %v", entry)
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Error("expected an error for an unknown format")
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	_ = Init()
}

func TestLoggerFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat(FormatJSON)); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() { _ = Init() }()

	Get().Info(context.Background(), "fields",
		Bool("verbose", true),
		Duration("elapsed", 2*time.Millisecond),
		Float64("latencyMs", 1.5),
		Any("element", map[string]any{"k": "v"}))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v: %s", err, buf.String())
	}
	if entry["verbose"] != true {
		t.Errorf("verbose: got %v", entry["verbose"])
	}
	if entry["elapsed"] != float64(2*time.Millisecond) {
		t.Errorf("elapsed: got %v", entry["elapsed"])
	}
	if entry["latencyMs"] != 1.5 {
		t.Errorf("latencyMs: got %v", entry["latencyMs"])
	}
	if el, ok := entry["element"].(map[string]any); !ok || el["k"] != "v" {
		t.Errorf("element: got %v", entry["element"])
	}
}
