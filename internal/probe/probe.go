// Package probe implements the host metric checks. Each probe reads its
// kernel source, derives values, classifies them against the requested
// thresholds and returns a renderable result. Probes that report rates keep
// the previous raw reading on disk between invocations.
package probe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shirou/gopsutil/v3/disk"

	"linux_metrics/internal/nagios"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/rate"
	"linux_metrics/internal/snapshot"
)

// Informational status lines for cycles that could not derive rates. The
// exit code stays OK so schedulers do not alert on a freshly deployed or
// freshly rebooted host.
const (
	msgFirstRun = "This was the first run, run again to get values"
	msgReset    = "Counter reset detected, run again to get values"
)

// NotFoundError reports a block device, network interface or mount point
// the host does not have. The text lands on the status line verbatim.
type NotFoundError string

// Error returns the status line text.
func (e NotFoundError) Error() string { return string(e) }

// DiskQuerier answers the mount table questions the disk usage probe asks.
// Production code uses gopsutil through SystemDisks; tests substitute a
// fake.
type DiskQuerier interface {
	Usage(ctx context.Context, path string) (*disk.UsageStat, error)
	IsMount(ctx context.Context, path string) (bool, error)
}

// Probe evaluates host metrics against thresholds.
type Probe struct {
	fs      procfs.FS
	store   *snapshot.Store
	disks   DiskQuerier
	devRoot string
	logger  *zap.Logger
}

// New creates a probe reading from the given proc tree and persisting
// interim readings through store. devRoot is the directory block device
// paths must resolve into, /dev outside of tests.
func New(fs procfs.FS, store *snapshot.Store, disks DiskQuerier, devRoot string, logger *zap.Logger) *Probe {
	return &Probe{
		fs:      fs,
		store:   store,
		disks:   disks,
		devRoot: devRoot,
		logger:  logger,
	}
}

// sample is the outcome of loading a rate probe's previous reading.
type sample struct {
	previous []byte
	elapsed  time.Duration
	// first is set when no previous reading existed; the probe returns it
	// as-is instead of deriving anything.
	first *nagios.Result
}

// loadPrevious fetches the stream's previous raw reading and its age. With
// no snapshot on disk it stores the current reading and returns the
// informational first-run result instead.
func (p *Probe) loadPrevious(stream snapshot.Stream, current []byte, firstRun string) (*sample, error) {
	previous, ok, err := p.store.Load(stream)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := p.store.Save(stream, current); err != nil {
			return nil, err
		}
		p.logger.Info("first run, snapshot created",
			zap.String("snapshot", p.store.Path(stream)))
		return &sample{first: nagios.Info(firstRun)}, nil
	}
	elapsed, err := p.store.Age(stream)
	if err != nil {
		return nil, err
	}
	return &sample{previous: previous, elapsed: elapsed}, nil
}

// rebootstrap replaces the snapshot after a counter reset and reports the
// informational reset result, again with an OK exit.
func (p *Probe) rebootstrap(stream snapshot.Stream, current []byte, msg string, cause error) (*nagios.Result, error) {
	if err := p.store.Save(stream, current); err != nil {
		return nil, err
	}
	p.logger.Warn("counter reset, snapshot rebuilt",
		zap.String("snapshot", p.store.Path(stream)),
		zap.Error(cause))
	return nagios.Info(msg), nil
}

// failUnreadable replaces a snapshot that no longer decodes with the fresh
// reading before failing, so the next cycle derives normally instead of
// tripping over the same bytes again.
func (p *Probe) failUnreadable(stream snapshot.Stream, current []byte, cause error) error {
	if err := p.store.Save(stream, current); err != nil {
		p.logger.Error("failed to replace unreadable snapshot",
			zap.String("snapshot", p.store.Path(stream)),
			zap.Error(err))
	}
	return fmt.Errorf("%w: previous snapshot unreadable: %v", rate.ErrInsufficientSample, cause)
}
