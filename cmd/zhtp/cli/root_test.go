package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRenderJSON(t *testing.T) {
	format = "json"
	defer func() { format = "table" }()

	var buf bytes.Buffer
	if err := Render(&buf, map[string]any{"height": 7}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, `"height": 7`) {
		t.Fatalf("expected JSON output to contain height field, got %q", got)
	}
}

func TestRenderYAML(t *testing.T) {
	format = "yaml"
	defer func() { format = "table" }()

	var buf bytes.Buffer
	if err := Render(&buf, map[string]any{"height": 7}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "height: 7") {
		t.Fatalf("expected YAML output to contain height field, got %q", got)
	}
}

func TestRenderTableFallsBackToStructDump(t *testing.T) {
	format = "table"

	var buf bytes.Buffer
	if err := Render(&buf, struct{ Height int }{Height: 7}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "Height:7") {
		t.Fatalf("expected table output to contain the struct dump, got %q", got)
	}
}

func TestRenderNilIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil); err != nil {
		t.Fatalf("Render(nil) failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for a nil value, got %q", buf.String())
	}
}

func TestExitCodeOfMapsCommandErrors(t *testing.T) {
	cases := []struct {
		err  error
		want ExitCode
	}{
		{nil, ExitSuccess},
		{UserError(errors.New("bad input")), ExitUserError},
		{NetworkError(errors.New("unreachable")), ExitNetworkError},
		{InternalError(errors.New("bug")), ExitInternalError},
		{errors.New("plain error"), ExitInternalError},
	}
	for _, c := range cases {
		if got := ExitCodeOf(c.err); got != c.want {
			t.Fatalf("ExitCodeOf(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	base := errors.New("root cause")
	wrapped := UserError(base)
	if !errors.Is(wrapped, base) {
		t.Fatalf("expected CommandError to unwrap to its underlying error")
	}
}
