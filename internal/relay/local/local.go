// Package local implements relay.Relay on the local filesystem: JSONL
// inboxes and an event log appended and drained in place under advisory
// flock, and JSON session snapshots written via temp-file-then-rename,
// rooted at a per-repository directory.
package local

import (
	"path/filepath"
	"time"

	"github.com/biffhq/biff/internal/storage"
)

// StaleAfter is how long a session file may go without a heartbeat before
// it is treated as stale: ignored by ListSessions/GetSession and swept by
// orphan reconciliation at the next startup for the same login+host.
const StaleAfter = 10 * time.Minute

// MaxWtmpLines bounds local session-history retention by line count, since
// the local variant has no background TTL garbage collector the way the
// cluster KV store does.
const MaxWtmpLines = 20000

// Relay is the filesystem-backed implementation of relay.Relay.
type Relay struct {
	root  string // {data_dir}, containing one subdirectory per repository
	store *storage.Storage
}

// New creates a LocalRelay rooted at dataDir.
func New(dataDir string) (*Relay, error) {
	return &Relay{
		root:  dataDir,
		store: storage.New(dataDir),
	}, nil
}

// Close is a no-op: LocalRelay holds no long-lived connections, only
// per-operation file handles and advisory locks.
func (r *Relay) Close() error { return nil }

func (r *Relay) repoDir(repo string) string {
	return filepath.Join(r.root, repo)
}

func sessionRecordKey(login, tty string) string {
	return "session-" + login + "-" + tty
}

func (r *Relay) targetedInboxPath(repo, login, tty string) string {
	return filepath.Join(r.repoDir(repo), "inbox-"+login+"-"+tty+".jsonl")
}

func (r *Relay) broadcastInboxPath(repo, login string) string {
	return filepath.Join(r.repoDir(repo), "userinbox-"+login+".jsonl")
}

func (r *Relay) wtmpPath(repo string) string {
	return filepath.Join(r.repoDir(repo), "wtmp.jsonl")
}
