package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AppendJSONL appends one JSON-encoded line to the file at path, creating
// the file and its parent directory if needed. Used for inbox deliveries
// and wtmp event logging, where each record is independent and append-only.
func AppendJSONL(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	lock := NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal jsonl record: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}

// ReadJSONL reads every line of a JSONL file into raw JSON messages,
// skipping blank lines. A missing file yields an empty, non-error result.
func ReadJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		lines = append(lines, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return lines, nil
}

// DrainJSONL atomically reads and truncates a JSONL file under an advisory
// file lock, so that two concurrent drainers on different processes never
// both observe the same lines: the file is empty by the time the lock is
// released. A missing file drains to an empty result.
func DrainJSONL(path string) ([]json.RawMessage, error) {
	lock := NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	lines, err := ReadJSONL(path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	if err := os.Truncate(path, 0); err != nil {
		return nil, fmt.Errorf("truncate %s: %w", path, err)
	}
	return lines, nil
}

// AppendJSONLBounded appends a line, then rewrites the file to keep only
// the most recent maxLines lines if it has grown past that. Used for wtmp
// retention in LocalRelay, where disk-bounded rotation stands in for the
// cluster variant's time-bounded (30 day) retention.
func AppendJSONLBounded(path string, v any, maxLines int) error {
	if err := AppendJSONL(path, v); err != nil {
		return err
	}

	lock := NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	lines, err := ReadJSONL(path)
	if err != nil {
		return err
	}
	if len(lines) <= maxLines {
		return nil
	}

	keep := lines[len(lines)-maxLines:]
	var buf bytes.Buffer
	for _, l := range keep {
		buf.Write(l)
		buf.WriteByte('\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write rotated %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}
