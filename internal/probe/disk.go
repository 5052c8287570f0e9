package probe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"linux_metrics/internal/nagios"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/rate"
	"linux_metrics/internal/snapshot"
	"linux_metrics/internal/threshold"
)

// resolveDevice maps a device argument to its diskstats name. Path
// arguments are resolved through symlinks, so LVM and multipath aliases
// work, and must land under the block device root. Anything not starting
// with a slash is taken as a device name directly.
func (p *Probe) resolveDevice(arg string) (string, error) {
	if !strings.HasPrefix(arg, "/") {
		return arg, nil
	}
	real, err := filepath.EvalSymlinks(arg)
	if err != nil {
		return "", NotFoundError(fmt.Sprintf("Block device not found: %s", arg))
	}
	prefix := p.devRoot
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !strings.HasPrefix(real, prefix) {
		return "", NotFoundError(fmt.Sprintf("Block device not found: %s", arg))
	}
	return strings.TrimPrefix(real, prefix), nil
}

// DiskIO reports per-second transfer rates for one block device. The
// sector rates are classified; the operation counts and time spent ride
// along in the performance data.
func (p *Probe) DiskIO(ctx context.Context, arg string, t *threshold.Thresholds) (*nagios.Result, error) {
	device, err := p.resolveDevice(arg)
	if err != nil {
		return nil, err
	}

	raw, err := p.fs.Raw(procfs.SourceDiskStats)
	if err != nil {
		return nil, err
	}
	curr, err := procfs.ParseDiskStats(raw, device)
	if errors.Is(err, procfs.ErrEntityNotFound) {
		return nil, NotFoundError(fmt.Sprintf("Block device not found: (%s)", device))
	}
	if err != nil {
		return nil, err
	}

	stream := snapshot.Stream{Probe: "diskio", SubKey: device}
	smp, err := p.loadPrevious(stream, raw, fmt.Sprintf("%s: diskio(%s)", msgFirstRun, device))
	if err != nil {
		return nil, err
	}
	if smp.first != nil {
		return smp.first, nil
	}

	prev, err := procfs.ParseDiskStats(smp.previous, device)
	if err != nil {
		return nil, p.failUnreadable(stream, raw, err)
	}

	deltas, err := rate.Deltas(
		[]uint64{prev.ReadsCompleted, prev.SectorsRead, prev.ReadTime,
			prev.WritesCompleted, prev.SectorsWritten, prev.WriteTime},
		[]uint64{curr.ReadsCompleted, curr.SectorsRead, curr.ReadTime,
			curr.WritesCompleted, curr.SectorsWritten, curr.WriteTime},
	)
	if errors.Is(err, rate.ErrCounterReset) {
		return p.rebootstrap(stream, raw, fmt.Sprintf("%s: diskio(%s)", msgReset, device), err)
	}
	if err != nil {
		return nil, err
	}
	rates, err := rate.PerSecondAll(deltas, smp.elapsed)
	if err != nil {
		return nil, err
	}
	readOps, readSectors, readTime := rates[0], rates[1], rates[2]
	writeOps, writeSectors, writeTime := rates[3], rates[4], rates[5]

	sev := nagios.Max(t.At(0).Classify(readSectors), t.At(1).Classify(writeSectors))
	status := fmt.Sprintf("%s (%s) Read: %.2f sec/s (%.2f t/s) Write: %.2f sec/s (%.2f t/s) [t:%.2f]",
		arg, device, readSectors, readOps, writeSectors, writeOps, smp.elapsed.Seconds())
	if t.Len() > 0 {
		status += threshold.Annotation(sev, "")
	}

	metrics := []struct {
		label string
		value float64
		slot  int
	}{
		{"read_operations", readOps, -1},
		{"read_sectors", readSectors, 0},
		{"read_time", readTime, -1},
		{"write_operations", writeOps, -1},
		{"write_sectors", writeSectors, 1},
		{"write_time", writeTime, -1},
	}
	perf := make([]nagios.Perf, 0, len(metrics))
	for _, m := range metrics {
		pf := nagios.Perf{Label: m.label, Value: fmt.Sprintf("%.2f", m.value)}
		if m.slot >= 0 {
			pf.Extras = t.EchoAt(m.slot)
		}
		perf = append(perf, pf)
	}

	if err := p.store.Save(stream, raw); err != nil {
		return nil, err
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}

// DiskUsage reports filesystem capacity for one mount point in gigabytes.
// The classified value is the used percentage of the filesystem size.
func (p *Probe) DiskUsage(ctx context.Context, mount string, t *threshold.Thresholds) (*nagios.Result, error) {
	mounted, err := p.disks.IsMount(ctx, mount)
	if err != nil {
		return nil, err
	}
	if !mounted {
		return nil, NotFoundError(fmt.Sprintf("Mount point not valid: (%s)", mount))
	}

	usage, err := p.disks.Usage(ctx, mount)
	if err != nil {
		return nil, fmt.Errorf("failed to query filesystem usage: %w", err)
	}
	if usage.Total == 0 {
		return nil, fmt.Errorf("filesystem %s reports zero size", mount)
	}

	const gib = 1024 * 1024 * 1024
	size := float64(usage.Total) / gib
	avail := float64(usage.Free) / gib
	used := size - avail
	usedPct := used / size * 100

	sev := t.At(0).Classify(usedPct)
	status := fmt.Sprintf("%s Used: %.2f GB / %.2f GB (%.2f%%)", mount, used, size, usedPct)
	if t.Len() > 0 {
		status += threshold.Annotation(sev, "")
	}

	perf := []nagios.Perf{
		{Label: "used", Value: fmt.Sprintf("%.2f%%", usedPct), Extras: t.EchoAt(0)},
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}
