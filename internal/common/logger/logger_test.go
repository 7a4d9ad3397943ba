package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

func TestLoggerWritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Info("Metro config loaded", "corridors", 3, "error", errors.New("boom"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}

	if entry["message"] != "Metro config loaded" {
		t.Errorf("Expected message 'Metro config loaded', got %v", entry["message"])
	}
	if entry["corridors"] != float64(3) {
		t.Errorf("Expected corridors 3, got %v", entry["corridors"])
	}
	if entry["error"] != "boom" {
		t.Errorf("Expected error 'boom', got %v", entry["error"])
	}
}

func TestLoggerAcceptsFieldMap(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Warn("Corridor has no nodes", map[string]interface{}{"route": "I-35W"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line: %v", err)
	}
	if entry["route"] != "I-35W" {
		t.Errorf("Expected route I-35W, got %v", entry["route"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected level warn, got %v", entry["level"])
	}
}

func TestNewWithoutWritersIsNop(t *testing.T) {
	log := New(nil)
	if log == nil {
		t.Fatal("Logger should be created successfully")
	}
	// must not panic
	log.Debug("ignored", "key", "value")
}

func TestFileWriterUsesConfig(t *testing.T) {
	cfg := LoggerConfig{
		FilePath:   "/var/log/mnmetro.log",
		MaxSizeMB:  20,
		MaxBackups: 2,
		MaxAgeDays: 7,
		Compress:   true,
	}

	lj, ok := FileWriter(cfg).(*lumberjack.Logger)
	if !ok {
		t.Fatalf("Expected *lumberjack.Logger, got %T", FileWriter(cfg))
	}
	if lj.Filename != cfg.FilePath {
		t.Errorf("Expected filename %s, got %s", cfg.FilePath, lj.Filename)
	}
	if lj.MaxSize != 20 || lj.MaxBackups != 2 || lj.MaxAge != 7 || !lj.Compress {
		t.Errorf("Expected rotation 20/2/7/true, got %d/%d/%d/%v", lj.MaxSize, lj.MaxBackups, lj.MaxAge, lj.Compress)
	}
}

func TestConsoleWriterTimeFormat(t *testing.T) {
	cw, ok := ConsoleWriter("").(zerolog.ConsoleWriter)
	if !ok {
		t.Fatalf("Expected zerolog.ConsoleWriter, got %T", ConsoleWriter(""))
	}
	if cw.TimeFormat != time.RFC3339 {
		t.Errorf("Expected default time format %s, got %s", time.RFC3339, cw.TimeFormat)
	}

	cw = ConsoleWriter(time.Kitchen).(zerolog.ConsoleWriter)
	if cw.TimeFormat != time.Kitchen {
		t.Errorf("Expected time format %s, got %s", time.Kitchen, cw.TimeFormat)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}

	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
