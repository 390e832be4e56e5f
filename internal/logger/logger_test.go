package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

type fileConfig struct{ level, output, file string }

func (c fileConfig) GetLevel() string  { return c.level }
func (c fileConfig) GetOutput() string { return c.output }
func (c fileConfig) GetFile() string   { return c.file }

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Fatalf("ParseLogLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLoggerFormatsAndFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WARN, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden %d", 1)
	l.Warn("raise %s closed", "0xabc")
	l.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %q", lines)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["message"] != "raise 0xabc closed" || entry["level"] != "WARN" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestSetupFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := Setup(fileConfig{level: "info", output: "file", file: path}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer SetDefaultLogger(mustNew(INFO, zapcore.Lock(os.Stdout)))

	Info("written to %s", "file")
	Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("log content = %q", data)
	}

	if err := Setup(fileConfig{output: "syslog"}); err == nil {
		t.Fatal("expected unknown output to fail")
	}
	if err := Setup(fileConfig{output: "file"}); err == nil {
		t.Fatal("expected empty file path to fail")
	}
}
