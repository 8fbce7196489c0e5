package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrations(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestMigrationFiles_Up(t *testing.T) {
	dir := writeMigrations(t, "002_core_tables.sql", "001_init_extensions.sql", "002_core_tables.down.sql", "README.md")

	files, err := migrationFiles(dir, "up")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"001_init_extensions.sql", "002_core_tables.sql"}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i, f := range files {
		if filepath.Base(f) != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], filepath.Base(f))
		}
	}
}

func TestMigrationFiles_DownIsReversed(t *testing.T) {
	dir := writeMigrations(t, "002_a.sql", "002_a.down.sql", "003_b.sql", "003_b.down.sql")

	files, err := migrationFiles(dir, "down")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "003_b.down.sql" || filepath.Base(files[1]) != "002_a.down.sql" {
		t.Errorf("unexpected order %v", files)
	}
}

func TestMigrationFiles_Errors(t *testing.T) {
	dir := writeMigrations(t, "001_init_extensions.sql")

	if _, err := migrationFiles(dir, "sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
	if _, err := migrationFiles(dir, "down"); err == nil {
		t.Error("expected error when no down scripts exist")
	}
}
