// Package snapshot persists the most recent raw counter reading per metric
// stream. The snapshot file's modification time doubles as the previous
// sample timestamp, so rates can be derived across process lifetimes.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const snapshotMode = 0644

// Stream identifies one persisted counter stream.
type Stream struct {
	Probe  string // owning probe, e.g. "cpu"
	SubKey string // entity key such as a device name; empty for system-wide streams
}

// filename returns the storage key for the stream. Distinct raw sub-keys
// always produce distinct names: "a/b", "a_b" and "a%2Fb" do not collide.
func (s Stream) filename() string {
	if s.SubKey == "" {
		return s.Probe
	}
	return s.Probe + "_" + escape(s.SubKey)
}

// escape percent-encodes every byte outside [A-Za-z0-9._-].
func escape(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '_', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// Store reads and writes stream snapshots under a single directory.
type Store struct {
	root string
}

// New opens a store rooted at dir, creating the directory when absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Path returns the file backing one stream.
func (s *Store) Path(stream Stream) string {
	return filepath.Join(s.root, stream.filename())
}

// Load returns the previously saved raw reading. The boolean is false when
// the stream has never been saved; that signals the bootstrap path and is
// not an error.
func (s *Store) Load(stream Stream) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(stream))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot %s: %w", stream.filename(), err)
	}
	return data, true, nil
}

// Age returns the time elapsed since the stream was last saved.
func (s *Store) Age(stream Stream) (time.Duration, error) {
	fi, err := os.Stat(s.Path(stream))
	if err != nil {
		return 0, fmt.Errorf("failed to stat snapshot %s: %w", stream.filename(), err)
	}
	return time.Since(fi.ModTime()), nil
}

// Save atomically replaces the stream snapshot with the given raw reading.
// The data lands in a uniquely named temp file in the same directory and is
// renamed over the target, so a concurrent reader observes either the old
// or the new complete snapshot, never a partial one. The leading dot keeps
// an orphaned temp file from ever being read as some stream's snapshot.
func (s *Store) Save(stream Stream, data []byte) error {
	tmp, err := os.CreateTemp(s.root, ".tmp-"+stream.filename()+".*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot %s: %w", stream.filename(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to sync snapshot %s: %w", stream.filename(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot %s: %w", stream.filename(), err)
	}
	if err := os.Chmod(tmp.Name(), snapshotMode); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to chmod snapshot %s: %w", stream.filename(), err)
	}

	if err := os.Rename(tmp.Name(), s.Path(stream)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot %s: %w", stream.filename(), err)
	}
	return nil
}
