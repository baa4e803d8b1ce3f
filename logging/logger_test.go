package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := Setup(Config{Level: "info", Output: &buf})

	logger.Info().Str("key", "value").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := Setup(Config{Level: "warn", Output: &buf})

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("info entry should have been filtered at warn level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn entry missing")
	}
}

func TestSetup_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")

	var buf bytes.Buffer
	logger, closeLog := Setup(Config{Level: "info", Output: &buf, FilePath: path})
	logger.Info().Msg("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Error("log file missing entry")
	}
	if !strings.Contains(buf.String(), "to file") {
		t.Error("primary output missing entry")
	}

	if err := closeLog(); err != nil {
		t.Fatalf("close log file: %v", err)
	}
}

func TestSetup_FileOpenFailure(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog := Setup(Config{
		Level:    "info",
		Output:   &buf,
		FilePath: filepath.Join(t.TempDir(), "missing", "svc.log"),
	})

	if !strings.Contains(buf.String(), "log file unavailable") {
		t.Error("open failure was not reported on the primary output")
	}

	logger.Info().Msg("still logging")
	if !strings.Contains(buf.String(), "still logging") {
		t.Error("logger unusable after file open failure")
	}
	if err := closeLog(); err != nil {
		t.Fatalf("close after open failure: %v", err)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := Setup(Config{Level: "info", Output: &buf})

	tagged := Component(logger, "cache")
	tagged.Info().Msg("tagged")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["component"] != "cache" {
		t.Errorf("component = %v, want cache", entry["component"])
	}
}
