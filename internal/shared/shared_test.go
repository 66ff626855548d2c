package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeTitleKey(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"Lowercases", "Attention Is All You Need", "attention is all you need"},
		{"Strips Punctuation", "MapReduce: Simplified Data-Processing!", "mapreduce simplified data processing"},
		{"Collapses Whitespace", "  Deep   Residual \t Learning ", "deep residual learning"},
		{"Keeps Digits", "ResNet-50 (2016)", "resnet 50 2016"},
		{"Empty", "", ""},
		{"Only Punctuation", "?!---", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTitleKey(tc.title); got != tc.want {
				t.Errorf("NormalizeTitleKey(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestFormatAuthors(t *testing.T) {
	cases := []struct {
		name    string
		authors []string
		want    string
	}{
		{"None", nil, ""},
		{"One", []string{"Burrows, M."}, "Burrows, M."},
		{"Two", []string{"Dean, J.", "Ghemawat, S."}, "Dean, J. & Ghemawat, S."},
		{"Many", []string{"Vaswani, A.", "Shazeer, N.", "Parmar, N."}, "Vaswani, A. et al."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatAuthors(tc.authors); got != tc.want {
				t.Errorf("FormatAuthors(%v) = %q, want %q", tc.authors, got, tc.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"papers": 2}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(compact) != `{"papers":2}` {
		t.Errorf("unexpected compact output %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(pretty), "\n  ") {
		t.Errorf("expected indented output, got %s", pretty)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("ids must be unique")
	}
	if len(a) != 36 {
		t.Errorf("unexpected id shape %q", a)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("staging ready", "rows", 3)

	out := buf.String()
	if !strings.Contains(out, "staging ready") || !strings.Contains(out, "rows=3") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "litstage.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	logger.Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log entry missing from %q", data)
	}
}
