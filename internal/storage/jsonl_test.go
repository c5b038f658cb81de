package storage

import (
	"path/filepath"
	"testing"
)

type record struct {
	N int `json:"n"`
}

func TestAppendAndReadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.jsonl")

	for i := 0; i < 3; i++ {
		if err := AppendJSONL(path, record{N: i}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	lines, err := ReadJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestDrainJSONL_EmptiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.jsonl")
	if err := AppendJSONL(path, record{N: 1}); err != nil {
		t.Fatal(err)
	}

	first, err := DrainJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 line drained, got %d", len(first))
	}

	second, err := DrainJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Fatalf("expected 0 lines on second drain, got %d", len(second))
	}
}

func TestAppendJSONLBounded_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wtmp.jsonl")

	for i := 0; i < 10; i++ {
		if err := AppendJSONLBounded(path, record{N: i}, 5); err != nil {
			t.Fatal(err)
		}
	}

	lines, err := ReadJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 5 {
		t.Fatalf("expected 5 retained lines, got %d", len(lines))
	}
}
