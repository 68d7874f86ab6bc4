package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitLogger(LevelInfo, FormatJSON, &buf)
	defer InitLogger(LevelInfo, FormatText, &bytes.Buffer{})

	GetLogger().Info("converted", "sentences", 12)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "converted" {
		t.Errorf("unexpected msg: %v", rec["msg"])
	}
	if rec["sentences"] != float64(12) {
		t.Errorf("unexpected attr: %v", rec["sentences"])
	}
}

func TestInitLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitLogger(LevelWarn, FormatText, &buf)
	defer InitLogger(LevelInfo, FormatText, &bytes.Buffer{})

	GetLogger().Info("quiet")
	GetLogger().Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(out, "loud") {
		t.Error("warn record missing")
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRunID(ctx); got != "" {
		t.Errorf("expected empty run ID, got %q", got)
	}

	ctx = WithRunID(ctx, "run-42")
	if got := GetRunID(ctx); got != "run-42" {
		t.Errorf("run ID = %q, want run-42", got)
	}

	var buf bytes.Buffer
	InitLogger(LevelInfo, FormatText, &buf)
	defer InitLogger(LevelInfo, FormatText, &bytes.Buffer{})

	LoggerFromContext(ctx).Info("aligned")
	if !strings.Contains(buf.String(), "run_id=run-42") {
		t.Errorf("run ID not attached to record: %s", buf.String())
	}
}
