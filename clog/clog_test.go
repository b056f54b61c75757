package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level string, opts ...Option) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts = append(opts, WithWriter(buf))
	logger, err := New(&Config{Level: level, Format: "json", Output: "buffer"}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if idx := strings.LastIndex(line, "\n"); idx >= 0 {
		line = line[idx+1:]
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json %q: %v", line, err)
	}
	return m
}

// TestNew 测试 Logger 创建
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "valid config", config: &Config{Level: "info", Format: "console", Output: "stdout"}},
		{name: "nil config", config: nil},
		{name: "empty config uses defaults", config: &Config{}},
		{name: "invalid level", config: &Config{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: &Config{Format: "xml"}, wantErr: true},
		{name: "buffer without writer", config: &Config{Output: "buffer"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "Warn", "error", "fatal"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q) error = %v", s, err)
		}
	}
	if lvl, err := ParseLevel("nope"); err == nil || lvl != InfoLevel {
		t.Errorf("ParseLevel(nope) = %v, %v", lvl, err)
	}
	if DebugLevel.String() != "debug" || FatalLevel.String() != "fatal" {
		t.Error("unexpected level names")
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, "warn")

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered, got %q", buf.String())
	}

	logger.Warn("shown")
	m := decodeLine(t, buf)
	if m["level"] != "WARN" || m["msg"] != "shown" {
		t.Errorf("unexpected record %v", m)
	}
}

func TestSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.Debug("before")
	if buf.Len() != 0 {
		t.Fatal("debug should be filtered before SetLevel")
	}

	if err := logger.SetLevel(DebugLevel); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	logger.Debug("after")
	if !strings.Contains(buf.String(), "after") {
		t.Errorf("debug not emitted after SetLevel: %q", buf.String())
	}

	if err := logger.SetLevel(Level(42)); err == nil {
		t.Error("SetLevel should reject unknown level")
	}
}

func TestFieldsAndNamespace(t *testing.T) {
	logger, buf := newBufferLogger(t, "debug", WithNamespace("flake"))

	child := logger.WithNamespace("idgen").With(String("component", "coordinator"))
	child.Info("generated",
		Int64("node_id", 7),
		Error(errors.New("boom")),
		ErrorWithCode(errors.New("late"), "clock_went_back"),
	)

	m := decodeLine(t, buf)
	if m["namespace"] != "flake.idgen" {
		t.Errorf("namespace = %v", m["namespace"])
	}
	if m["component"] != "coordinator" {
		t.Errorf("component = %v", m["component"])
	}
	if m["node_id"] != float64(7) {
		t.Errorf("node_id = %v", m["node_id"])
	}
	if m["err_msg"] != "boom" {
		t.Errorf("err_msg = %v", m["err_msg"])
	}
	nested, ok := m["error"].(map[string]any)
	if !ok || nested["code"] != "clock_went_back" || nested["msg"] != "late" {
		t.Errorf("error group = %v", m["error"])
	}

	// 父 Logger 不受子 Logger 影响
	buf.Reset()
	logger.Info("parent")
	m = decodeLine(t, buf)
	if m["namespace"] != "flake" {
		t.Errorf("parent namespace = %v", m["namespace"])
	}
	if _, ok := m["component"]; ok {
		t.Error("parent should not carry child fields")
	}
}

func TestNilErrorFieldDropped(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")
	logger.Info("ok", Error(nil))

	m := decodeLine(t, buf)
	if _, ok := m["err_msg"]; ok {
		t.Errorf("nil error should not be logged: %v", m)
	}
}

type ctxKey string

func TestContextFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "info",
		WithStandardContext(),
		WithContextField(ctxKey("tenant"), "tenant"),
	)

	ctx := context.WithValue(context.Background(), "trace_id", "abc123")
	ctx = context.WithValue(ctx, ctxKey("tenant"), "acme")
	logger.InfoContext(ctx, "with context")

	m := decodeLine(t, buf)
	if m["trace_id"] != "abc123" || m["tenant"] != "acme" {
		t.Errorf("context fields missing: %v", m)
	}
	if _, ok := m["request_id"]; ok {
		t.Error("absent context value should be skipped")
	}
}

func TestConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(&Config{Level: "info", Format: "console", Output: "buffer"}, WithWriter(buf))
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("plain text", String("k", "v"))

	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "k=v") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("nothing")
	logger.With(String("a", "b")).WithNamespace("x").Error("still nothing")
	if err := logger.SetLevel(DebugLevel); err != nil {
		t.Errorf("Discard SetLevel() error = %v", err)
	}
	logger.Flush()
}

func TestDefaultConfigs(t *testing.T) {
	dev := NewDevDefaultConfig("flake")
	if dev.Level != "debug" || !dev.AddSource {
		t.Errorf("unexpected dev config %+v", dev)
	}
	prod := NewProdDefaultConfig()
	if err := prod.validate(); err != nil {
		t.Errorf("prod config invalid: %v", err)
	}
}
