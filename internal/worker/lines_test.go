package worker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadLinesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.txt")
	content := "Water boils at 100 degrees Celsius at sea level\n" +
		"# comment\n" +
		"The Eiffel Tower is in Paris\n" +
		"\n" +
		"Water boils at 100 degrees Celsius at sea level   \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLinesFromFile(path)
	if err != nil {
		t.Fatalf("ReadLinesFromFile failed: %v", err)
	}

	want := []string{
		"Water boils at 100 degrees Celsius at sea level",
		"The Eiffel Tower is in Paris",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestReadLinesFromFile_Missing(t *testing.T) {
	if _, err := ReadLinesFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
