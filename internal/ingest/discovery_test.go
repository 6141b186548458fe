package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"activities_20240102.csv",
		"activities_20240101.csv",
		"activities_notadate.csv",
		"activities_20240103.txt",
		"transactions_20240101.csv",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(csvHeader+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "activities_dir.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := DiscoverFiles(dir, DefaultFilePrefix)
	if err != nil {
		t.Fatalf("DiscoverFiles: %v", err)
	}

	want := []string{
		"activities_20240101.csv",
		"activities_20240102.csv",
		"activities_notadate.csv",
	}
	if len(files) != len(want) {
		t.Fatalf("got %d files (%v), want %d", len(files), files, len(want))
	}
	for i, name := range want {
		if filepath.Base(files[i]) != name {
			t.Errorf("files[%d] = %s, want %s", i, filepath.Base(files[i]), name)
		}
		if filepath.Dir(files[i]) != dir {
			t.Errorf("files[%d] should be joined with the source dir", i)
		}
	}
}

func TestDiscoverFiles_MissingDir(t *testing.T) {
	files, err := DiscoverFiles(filepath.Join(t.TempDir(), "missing"), DefaultFilePrefix)
	if !errors.Is(err, ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestDiscoverFiles_EmptyDir(t *testing.T) {
	files, err := DiscoverFiles(t.TempDir(), DefaultFilePrefix)
	if err != nil {
		t.Fatalf("DiscoverFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}
