// Package procfs reads kernel counter sources and decodes them into typed
// structures. Probes never index raw lines themselves; every source format
// has exactly one decoder here, shared by all probes that read it.
package procfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Read and decode failures fold into these sentinels so callers can map them
// to exit codes without inspecting message text.
var (
	// ErrSourceUnavailable means a counter source could not be opened or read.
	ErrSourceUnavailable = errors.New("counter source unavailable")

	// ErrShapeMismatch means a counter source does not have the expected layout.
	ErrShapeMismatch = errors.New("unexpected counter source format")

	// ErrEntityNotFound means the requested device or interface has no record
	// in the counter source.
	ErrEntityNotFound = errors.New("entity not found")
)

// Counter source names, relative to the proc mount point.
const (
	SourceStat      = "stat"
	SourceLoadAvg   = "loadavg"
	SourceMemInfo   = "meminfo"
	SourceDiskStats = "diskstats"
	SourceNetDev    = "net/dev"
	SourceFileNR    = "sys/fs/file-nr"
)

// FS reads counter sources relative to a proc mount point.
type FS struct {
	root string
}

// NewFS returns a reader rooted at the given proc mount point.
func NewFS(root string) FS {
	return FS{root: root}
}

// Root returns the proc mount point this reader uses.
func (fs FS) Root() string {
	return fs.root
}

// Raw reads the complete current contents of one counter source.
func (fs FS) Raw(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(fs.root, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	return data, nil
}

// parseCounters converts whitespace-split counter fields to integers.
func parseCounters(fields []string) ([]uint64, error) {
	out := make([]uint64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %q is not a counter", i+1, f)
		}
		out[i] = v
	}
	return out, nil
}
