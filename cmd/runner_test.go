package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
	tu "github.com/imanmossavat/litstage/internal/testing"
)

func TestParseFieldArgs(t *testing.T) {
	t.Run("Sets And Unsets", func(t *testing.T) {
		fields, err := parseFieldArgs([]string{"title=Attention Is All You Need", "venue=", "year=2017"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(fields) != 3 {
			t.Fatalf("expected 3 fields, got %d", len(fields))
		}
		if fields["title"] == nil || *fields["title"] != "Attention Is All You Need" {
			t.Errorf("unexpected title %v", fields["title"])
		}
		if fields["venue"] != nil {
			t.Error("empty value must unset the field")
		}
		if fields["year"] == nil || *fields["year"] != "2017" {
			t.Errorf("unexpected year %v", fields["year"])
		}
	})

	t.Run("Value May Contain Equals", func(t *testing.T) {
		fields, err := parseFieldArgs([]string{"url=https://example.org/?q=raft"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if *fields["url"] != "https://example.org/?q=raft" {
			t.Errorf("unexpected url %v", *fields["url"])
		}
	})

	t.Run("Rejects Malformed Pairs", func(t *testing.T) {
		for _, pair := range []string{"no-separator", "=value"} {
			if _, err := parseFieldArgs([]string{pair}); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("parseFieldArgs(%q): expected ErrInvalidArgument, got %v", pair, err)
			}
		}
	})
}

func TestRequireSession(t *testing.T) {
	t.Run("No Tracked Session", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Registry: session.NewRegistry(session.RegistryOpts{})})

		_, err := r.requireSession()
		if !errors.Is(err, shared.ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
		if !strings.Contains(err.Error(), "litstage session start") {
			t.Errorf("error must point at the start command, got %q", err)
		}
	})

	t.Run("Tracked Session", func(t *testing.T) {
		registry := session.NewRegistry(session.RegistryOpts{})
		registry.Set("sess-1", session.UseCaseLibraryCreation)
		r := NewRunner(RunnerOpts{Registry: registry})

		s, err := r.requireSession()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.ID != "sess-1" {
			t.Errorf("unexpected session %+v", s)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	t.Run("Compact", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]int{"staged": 2}, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if buf.String() != "{\"staged\":2}\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("Pretty", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]int{"staged": 2}, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"staged\": 2\n") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("Unmarshalable Value", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		if err := r.writeJSON(make(chan int), false); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := r.writeJSON("x", false); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestWritePlain(t *testing.T) {
	t.Run("Formats", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writePlain("staged %d rows\n", 3); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if buf.String() != "staged 3 rows\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("Plainln Wraps With Newlines", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		r.writePlainln("done")
		if buf.String() != "\ndone\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := r.writePlain("x"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Header", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		r.writePlainHeader("Staged rows")
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 3 || lines[1] != "Staged rows" {
			t.Errorf("unexpected header %q", buf.String())
		}
	})
}

func TestRegisterCoversAllCommands(t *testing.T) {
	r := NewRunner(RunnerOpts{Registry: session.NewRegistry(session.RegistryOpts{})})

	commands := r.register()
	want := []string{"setup", "session", "import", "stage", "match", "library", "settings", "api", "serve", "tui"}
	if len(commands) != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), len(commands))
	}
	for i, name := range want {
		if commands[i].Name != name {
			t.Errorf("command %d: expected %s, got %s", i, name, commands[i].Name)
		}
	}
}
