// Package repo resolves the repository that scopes a biff session: its
// root directory and a sanitized name used to namespace relay resources.
//
// Detection asks git for the worktree's top level (`git rev-parse
// --show-toplevel`) from the working directory; the result names a
// repository instead of watching it for branch changes.
package repo

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/biffhq/biff/internal/model"
)

// Info describes the repository a session is running inside.
type Info struct {
	Root string // absolute path to the repository root, or "" if none found
	Name string // sanitized name used to scope relay resources
}

// Resolve determines the repository root for workDir via `git
// rev-parse --show-toplevel` and names it after the sanitized base name of
// that root. If workDir is not inside a git worktree, Root is "" and Name
// is "_default".
func Resolve(workDir string) Info {
	root := findGitRoot(workDir)
	if root == "" {
		return Info{Root: "", Name: "_default"}
	}
	name := model.SanitizeRepoName(filepath.Base(root))
	return Info{Root: root, Name: name}
}

// findGitRoot shells out to git the same way the upstream VCS watcher does
// to find the .git directory, but asks for the worktree's top level so we
// can name the repository rather than locate its metadata directory.
func findGitRoot(workDir string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = workDir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		return ""
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(workDir, root)
	}
	return root
}
