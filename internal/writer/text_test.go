package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hovering-clouds/acsengine/internal/driver"
)

func TestTextWriterWrite(t *testing.T) {
	tmpDir := t.TempDir()
	w := NewTextWriter(tmpDir)

	reports := []driver.Report{
		{Flow: "10.0.0.1", Value: 42},
		{Flow: "10.0.0.2", Value: 7},
	}

	if err := w.Write(reports, "2026-08-03_10-00-00", "per_src_ip"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	path := filepath.Join(tmpDir, "2026-08-03_10-00-00", "per_src_ip.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}
	if lines[0] != "10.0.0.1 42" {
		t.Errorf("line 0 = %q, want %q", lines[0], "10.0.0.1 42")
	}
	if lines[1] != "10.0.0.2 7" {
		t.Errorf("line 1 = %q, want %q", lines[1], "10.0.0.2 7")
	}
}

func TestTextWriterRejectsWrongPayload(t *testing.T) {
	w := NewTextWriter(t.TempDir())
	if err := w.Write("not a report slice", "2026-08-03_10-00-00", "per_src_ip"); err == nil {
		t.Fatal("expected an error for a non-[]driver.Report payload")
	}
}

func TestTextWriterEmptyReportsStillCreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	w := NewTextWriter(tmpDir)

	if err := w.Write([]driver.Report{}, "2026-08-03_10-00-00", "empty_task"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	path := filepath.Join(tmpDir, "2026-08-03_10-00-00", "empty_task.txt")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to be created even with no reports: %v", err)
	}
}
