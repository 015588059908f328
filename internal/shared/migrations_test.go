package shared

import (
	"path/filepath"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM download_jobs LIMIT 1"); err != nil {
			t.Errorf("download_jobs table should exist after migrations: %v", err)
		}

		var value int
		if err := db.QueryRow("SELECT value FROM download_jobs_sequence WHERE id = 1").Scan(&value); err != nil {
			t.Fatalf("sequence row should be seeded: %v", err)
		}
		if value != 0 {
			t.Errorf("expected sequence to start at 0, got %d", value)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM download_jobs LIMIT 1"); err == nil {
			t.Error("download_jobs table should be dropped after rollback")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("OpenLedger", func(t *testing.T) {
		t.Run("Disabled", func(t *testing.T) {
			db, err := OpenLedger(DatabaseConfig{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if db != nil {
				t.Error("expected nil database when path is empty")
			}
		})

		t.Run("File Backed", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tri.db")
			db, err := OpenLedger(DatabaseConfig{Path: path})
			if err != nil {
				t.Fatalf("failed to open ledger: %v", err)
			}
			defer db.Close()

			if _, err := db.Exec("SELECT 1 FROM download_jobs LIMIT 1"); err != nil {
				t.Errorf("ledger should be migrated: %v", err)
			}
		})
	})
}
