package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", true)

	ctx := IntoContext(context.Background(), With("request_id", "abc"))
	FromContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"abc"`) || !strings.Contains(out, `"msg":"hello"`) {
		t.Fatalf("unexpected log line: %s", out)
	}

	if FromContext(context.Background()) != Get() {
		t.Fatalf("expected default logger without a scoped one")
	}
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "WARN", false)
	Info("dropped")
	Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("level filter not applied: %s", buf.String())
	}
}
