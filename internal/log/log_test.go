package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})

	logger.Debug("intake stored", "patient_id", "abc")

	out := buf.String()
	if !strings.Contains(out, "intake stored") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "patient_id=abc") {
		t.Errorf("expected attribute in output, got: %s", out)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("search completed", "matches", 2)

	if !strings.Contains(buf.String(), `"msg":"search completed"`) {
		t.Errorf("expected JSON msg field, got: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Info("below threshold")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got: %s", buf.String())
	}

	logger.Warn("at threshold")
	if buf.Len() == 0 {
		t.Error("warn should pass at warn level")
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Fatal("NewNop() returned nil")
	}
	logger.Error("discarded")
}
