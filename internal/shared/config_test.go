package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL != "http://localhost:8080/api/v1" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 30 || cfg.API.RequestsPerSecond != 5.0 {
		t.Errorf("unexpected api settings %+v", cfg.API)
	}
	if cfg.Database.Path != "litstage.db" {
		t.Errorf("unexpected database path %q", cfg.Database.Path)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("unexpected server settings %+v", cfg.Server)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Parses TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		contents := `
[api]
base_url = "http://example.org/api"
timeout_seconds = 10

[credentials.reference_manager]
client_id = "abc"

[database]
path = "/tmp/state.db"
`
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.API.BaseURL != "http://example.org/api" {
			t.Errorf("unexpected base url %q", cfg.API.BaseURL)
		}
		if cfg.Credentials.ReferenceManager.ClientID != "abc" {
			t.Errorf("unexpected client id %q", cfg.Credentials.ReferenceManager.ClientID)
		}
		if cfg.Database.Path != "/tmp/state.db" {
			t.Errorf("unexpected database path %q", cfg.Database.Path)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte("api = [unclosed"), 0644)

		if _, err := LoadConfig(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("Writes The Example Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("config not written: %v", err)
		}
		if !strings.Contains(string(data), "[api]") {
			t.Errorf("unexpected config contents %q", data)
		}

		// Round trip: the written file parses back.
		if _, err := LoadConfig(path); err != nil {
			t.Errorf("written config failed to parse: %v", err)
		}
	})

	t.Run("Refuses To Overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte("# mine"), 0644)

		if err := CreateConfigFile(path); err == nil {
			t.Fatal("expected error for existing file")
		}
	})
}

func TestRunMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litstage.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Applying twice is a no-op.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	var name string
	err = db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'workflow_sessions'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("workflow_sessions table missing: %v", err)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("schema_migrations missing: %v", err)
	}
	if applied == 0 {
		t.Error("expected at least one applied migration")
	}
}
