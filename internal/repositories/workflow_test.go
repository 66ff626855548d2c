package repositories

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/shared"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "litstage.db")
	db, err := shared.NewDatabase(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestWorkflowRepository(t *testing.T) {
	t.Run("Load Before Any Save", func(t *testing.T) {
		repo := NewWorkflowRepository(setupDB(t))

		_, _, ok, err := repo.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Error("fresh database must report no saved session")
		}
	})

	t.Run("Save And Load Round Trip", func(t *testing.T) {
		repo := NewWorkflowRepository(setupDB(t))

		if err := repo.Save("sess-1", session.UseCaseLibraryCreation); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		id, useCase, ok, err := repo.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !ok {
			t.Fatal("expected a saved session")
		}
		if id != "sess-1" || useCase != session.UseCaseLibraryCreation {
			t.Errorf("unexpected handle %s/%s", id, useCase)
		}
	})

	t.Run("Save Replaces The Previous Handle", func(t *testing.T) {
		repo := NewWorkflowRepository(setupDB(t))

		repo.Save("sess-1", session.UseCaseLibraryCreation)
		if err := repo.Save("sess-2", session.UseCaseLibraryEdit); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		id, useCase, ok, err := repo.Load()
		if err != nil || !ok {
			t.Fatalf("load failed: ok=%v err=%v", ok, err)
		}
		if id != "sess-2" || useCase != session.UseCaseLibraryEdit {
			t.Errorf("expected the latest handle, got %s/%s", id, useCase)
		}
	})

	t.Run("Clear Soft Deletes", func(t *testing.T) {
		db := setupDB(t)
		repo := NewWorkflowRepository(db)

		repo.Save("sess-1", session.UseCaseLibraryCreation)
		if err := repo.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}

		_, _, ok, err := repo.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if ok {
			t.Error("cleared handle must not load")
		}

		// History is retained for debugging, not wiped.
		var total int
		if err := db.QueryRow("SELECT COUNT(*) FROM workflow_sessions").Scan(&total); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if total != 1 {
			t.Errorf("expected soft-deleted row to remain, got %d rows", total)
		}
	})

	t.Run("Unparseable Use Case Loads As Unsaved", func(t *testing.T) {
		db := setupDB(t)
		repo := NewWorkflowRepository(db)

		repo.Save("sess-1", session.UseCaseLibraryCreation)
		if _, err := db.Exec("UPDATE workflow_sessions SET use_case = 'teleportation'"); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		_, _, ok, err := repo.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if ok {
			t.Error("unknown use case must be treated as no saved session")
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupDB(t)

	first, err := NextSequence(db, "workflow_sessions")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := NextSequence(db, "workflow_sessions")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if second != first+1 {
		t.Errorf("sequence must increment, got %d then %d", first, second)
	}
}
