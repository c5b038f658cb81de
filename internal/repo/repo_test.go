package repo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestResolve_GitRepo(t *testing.T) {
	dir := t.TempDir()
	repoDir := filepath.Join(dir, "my-repo!!")
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := exec.Command("git", "-C", repoDir, "init", "-q").Run(); err != nil {
		t.Skip("git not available in test environment")
	}

	info := Resolve(repoDir)
	if info.Root == "" {
		t.Fatal("expected a resolved git root")
	}
	if info.Name != "my-repo" {
		t.Errorf("got name %q, want sanitized %q", info.Name, "my-repo")
	}
}

func TestResolve_NoGit(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "not a repo")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	info := Resolve(sub)
	if info.Root != "" {
		t.Errorf("expected no git root, got %q", info.Root)
	}
	if info.Name == "" {
		t.Error("expected a non-empty fallback name")
	}
}
