package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- test"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestListMigrationRevisions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000001_create_core_tables.up.sql",
		"000001_create_core_tables.down.sql",
		"000002_add_byte_limits.up.sql",
		"000002_add_byte_limits.down.sql",
		"notes.txt",
		"broken.up.sql",          // no number prefix
		"_leading.up.sql",        // empty number
		"03_short_prefix.up.sql", // unpadded numbers still parse
	)

	revisions, err := listMigrationRevisions(dir)
	if err != nil {
		t.Fatalf("listMigrationRevisions: %v", err)
	}

	want := map[int64]string{
		1: "create_core_tables",
		2: "add_byte_limits",
		3: "short_prefix",
	}
	if len(revisions) != len(want) {
		t.Errorf("got %d revisions, want %d: %v", len(revisions), len(want), revisions)
	}
	for number, name := range want {
		if revisions[number] != name {
			t.Errorf("revision %d = %q, want %q", number, revisions[number], name)
		}
	}
}

func TestListMigrationRevisionsMissingDir(t *testing.T) {
	_, err := listMigrationRevisions(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestGetNextMigrationNumber(t *testing.T) {
	dir := t.TempDir()

	n, err := getNextMigrationNumber(dir)
	if err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	if n != 1 {
		t.Errorf("empty dir next = %d, want 1", n)
	}

	writeFiles(t, dir,
		"000001_create_core_tables.up.sql",
		"000004_gap.up.sql",
	)

	n, err = getNextMigrationNumber(dir)
	if err != nil {
		t.Fatalf("getNextMigrationNumber: %v", err)
	}
	if n != 5 {
		t.Errorf("next = %d, want 5", n)
	}
}

func TestGetNextMigrationNumberMissingDirStartsAtOne(t *testing.T) {
	n, err := getNextMigrationNumber(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("getNextMigrationNumber: %v", err)
	}
	if n != 1 {
		t.Errorf("next = %d, want 1", n)
	}
}
