package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shirou/gopsutil/v3/disk"

	"linux_metrics/internal/procfs"
	"linux_metrics/internal/snapshot"
	"linux_metrics/internal/threshold"
)

// fakeDisks serves a canned mount table keyed by mount point.
type fakeDisks struct {
	mounts map[string]*disk.UsageStat
}

func (f *fakeDisks) Usage(ctx context.Context, path string) (*disk.UsageStat, error) {
	if u, ok := f.mounts[filepath.Clean(path)]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("not mounted: %s", path)
}

func (f *fakeDisks) IsMount(ctx context.Context, path string) (bool, error) {
	_, ok := f.mounts[filepath.Clean(path)]
	return ok, nil
}

// fixture wires a probe against a synthetic proc tree and a scratch
// snapshot directory.
type fixture struct {
	procRoot string
	store    *snapshot.Store
	disks    *fakeDisks
	probe    *Probe
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	procRoot := t.TempDir()
	store, err := snapshot.New(filepath.Join(t.TempDir(), "interim"))
	if err != nil {
		t.Fatalf("snapshot.New: %v", err)
	}
	disks := &fakeDisks{}
	return &fixture{
		procRoot: procRoot,
		store:    store,
		disks:    disks,
		probe:    New(procfs.NewFS(procRoot), store, disks, "/dev", zap.NewNop()),
	}
}

// writeSource places a file under the synthetic proc tree.
func (f *fixture) writeSource(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.procRoot, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// backdate moves a snapshot's modification time into the past so the next
// probe run sees a meaningful sample period. An hour keeps the rendered
// rates stable against the wall clock ticking during the test.
func (f *fixture) backdate(t *testing.T, stream snapshot.Stream, age time.Duration) {
	t.Helper()
	when := time.Now().Add(-age)
	if err := os.Chtimes(f.store.Path(stream), when, when); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func scalar(t *testing.T, warn, crit string) *threshold.Thresholds {
	t.Helper()
	th, err := threshold.ParseScalar(warn, crit)
	if err != nil {
		t.Fatalf("ParseScalar(%q, %q): %v", warn, crit, err)
	}
	return th
}

func tuple(t *testing.T, warn, crit string, slots int) *threshold.Thresholds {
	t.Helper()
	th, err := threshold.ParseTuple(warn, crit, slots)
	if err != nil {
		t.Fatalf("ParseTuple(%q, %q): %v", warn, crit, err)
	}
	return th
}

func tupleExact(t *testing.T, warn, crit string, slots int) *threshold.Thresholds {
	t.Helper()
	th, err := threshold.ParseTupleExact(warn, crit, slots)
	if err != nil {
		t.Fatalf("ParseTupleExact(%q, %q): %v", warn, crit, err)
	}
	return th
}

// perfPart returns everything after the perfdata separator of a rendered
// line.
func perfPart(t *testing.T, line string) string {
	t.Helper()
	i := strings.Index(line, " | ")
	if i < 0 {
		t.Fatalf("no perfdata separator in %q", line)
	}
	return line[i+3:]
}
