package main

import (
	"strings"
	"testing"
)

func TestRenderTableAlignsAndPads(t *testing.T) {
	var buf strings.Builder
	renderTable(&buf, []column{{name: "Category"}, {name: "Tickets", numeric: true}}, [][]string{
		{"Bug", "12"},
		{"Praise"},
	})
	out := buf.String()
	if !strings.Contains(out, "Category") || !strings.Contains(out, "Tickets") {
		t.Fatalf("header missing from output:\n%s", out)
	}
	if !strings.Contains(out, "Praise") {
		t.Errorf("short row missing from output:\n%s", out)
	}
	if strings.Contains(out, "<nil>") {
		t.Errorf("short row rendered a nil cell:\n%s", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
}

func TestRenderTableWithoutColumnsWritesNothing(t *testing.T) {
	var buf strings.Builder
	renderTable(&buf, nil, [][]string{{"orphan"}})
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
