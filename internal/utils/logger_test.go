package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func setupTestLogger(output *bytes.Buffer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	SetLoggerForTest(zerolog.New(output).With().Timestamp().Logger().Level(lvl))
}

func TestInfoLogging(t *testing.T) {
	var buf bytes.Buffer
	setupTestLogger(&buf, "info")

	Info("labels rendered", "symbols", 42, "cached", true)

	out := buf.String()
	if !strings.Contains(out, "labels rendered") {
		t.Error("expected log message not found in output")
	}
	if !strings.Contains(out, `"symbols":42`) || !strings.Contains(out, `"cached":true`) {
		t.Errorf("expected key-value pairs in %q", out)
	}
}

func TestErrorValuesAndDanglingKeys(t *testing.T) {
	var buf bytes.Buffer
	setupTestLogger(&buf, "debug")

	Error("conversion failed", "error", errors.New("boom"), "dangling")

	out := buf.String()
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("expected error string in %q", out)
	}
	if !strings.Contains(out, `"dangling":null`) {
		t.Errorf("expected dangling key in %q", out)
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	setupTestLogger(&buf, "warn")

	Info("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("info must be filtered at warn level")
	}

	SetLogLevel("info")
	Info("should be visible")
	if !strings.Contains(buf.String(), "should be visible") {
		t.Error("expected info log after SetLogLevel")
	}

	SetLogLevel("invalid-level")
	Debug("still filtered")
	if strings.Contains(buf.String(), "still filtered") {
		t.Error("invalid level must fall back to info")
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "dmlabels.log")
	InitLogger(logFile, 1, 1, 1, false, "info")
	Info("hello file", "k", "v")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected message in log file, got %q", string(data))
	}
}

func TestEnsureLogDir(t *testing.T) {
	if err := ensureLogDir(""); err != nil {
		t.Fatalf("empty path should be noop: %v", err)
	}
	if err := ensureLogDir("app.log"); err != nil {
		t.Fatalf("relative file in current dir should be noop: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := ensureLogDir(filepath.Join(dir, "x.log")); err != nil {
		t.Fatalf("ensureLogDir failed: %v", err)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		t.Fatalf("expected directory to be created, err=%v", err)
	}
}
