package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTable_TTY_HasBorder(t *testing.T) {
	defer setMockTTY(true)()

	out := renderTable([]string{"ID", "TITLE"}, [][]string{{"logs", "logs-*"}})
	for _, want := range []string{"ID", "TITLE", "logs", "logs-*"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if !strings.ContainsAny(out, "─│╭╮╰╯") {
		t.Error("TTY table should contain border characters")
	}
}

func TestRenderTable_NonTTY_PlainColumns(t *testing.T) {
	defer setMockTTY(false)()

	out := renderTable([]string{"ID", "TITLE"}, [][]string{{"logs", "logs-*"}, {"m", "metrics-*"}})
	want := "ID    TITLE\nlogs  logs-*\nm     metrics-*"
	if out != want {
		t.Errorf("renderTable() =\n%q\nwant\n%q", out, want)
	}
}

func TestPrintHelpers_NonTTY_NoEscapes(t *testing.T) {
	defer setMockTTY(false)()

	var buf bytes.Buffer
	printSuccess(&buf, "done %d", 1)
	printWarning(&buf, "careful")
	printMuted(&buf, "quiet")
	printField(&buf, "Name", "Ops")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("non-TTY output contains ANSI escapes: %q", out)
	}
	for _, want := range []string{"✓ done 1", "⚠ careful", "quiet", "Name:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestRenderPanel_NonTTY(t *testing.T) {
	defer setMockTTY(false)()
	if got := renderPanel("Title", "body"); got != "Title\nbody" {
		t.Errorf("renderPanel() = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:           "0 B",
		1023:        "1023 B",
		1024:        "1.0 KB",
		1536:        "1.5 KB",
		1024 * 1024: "1.0 MB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
