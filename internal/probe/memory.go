package probe

import (
	"context"
	"fmt"
	"strconv"

	"linux_metrics/internal/nagios"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/threshold"
)

// Memory reports physical memory usage. Page cache and buffers count as
// reclaimable, so used memory is total minus free minus both of them, and
// the classified percentage is that figure over the total.
func (p *Probe) Memory(ctx context.Context, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceMemInfo)
	if err != nil {
		return nil, err
	}
	mi, err := procfs.ParseMemInfo(raw)
	if err != nil {
		return nil, err
	}
	if mi.MemTotal == 0 {
		return nil, fmt.Errorf("meminfo reports zero total memory")
	}

	total := float64(mi.MemTotal)
	used := total - float64(mi.MemFree) - float64(mi.Cached) - float64(mi.Buffers)
	usedMB := used / 1024
	totalMB := total / 1024
	cachedMB := (float64(mi.Cached) + float64(mi.Buffers)) / 1024
	activeMB := float64(mi.Active) / 1024
	usedPct := used / total * 100

	pair := t.At(0)
	sev := pair.Classify(usedPct)
	status := fmt.Sprintf("Memory Used: %.2fMB / %.2fMB (%.2f%%)", usedMB, totalMB, usedPct)
	if t.Len() > 0 {
		status += threshold.Annotation(sev, "")
	}

	perf := []nagios.Perf{
		{Label: "used", Value: fmt.Sprintf("%.2f", usedMB), Extras: usageBounds(pair, totalMB)},
		{Label: "cached", Value: fmt.Sprintf("%.2f", cachedMB)},
		{Label: "active", Value: fmt.Sprintf("%.2f", activeMB)},
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}

// Swap reports swap usage the same way Memory does, short-circuiting on
// hosts that run without any swap at all.
func (p *Probe) Swap(ctx context.Context, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceMemInfo)
	if err != nil {
		return nil, err
	}
	mi, err := procfs.ParseMemInfo(raw)
	if err != nil {
		return nil, err
	}

	if mi.SwapTotal == 0 {
		// Not a failure, the host simply has no swap. Thresholds are
		// deliberately ignored.
		return &nagios.Result{Severity: nagios.OK, Status: "No swap space configured on this system"}, nil
	}

	total := float64(mi.SwapTotal)
	used := total - float64(mi.SwapFree) - float64(mi.SwapCached)
	usedMB := used / 1024
	totalMB := total / 1024
	cachedMB := float64(mi.SwapCached) / 1024
	usedPct := used / total * 100

	pair := t.At(0)
	sev := pair.Classify(usedPct)
	status := fmt.Sprintf("Swap Used: %.2fMB / %.2fMB (%.2f%%)", usedMB, totalMB, usedPct)
	if t.Len() > 0 {
		status += threshold.Annotation(sev, "")
	}

	perf := []nagios.Perf{
		{Label: "used", Value: fmt.Sprintf("%.2f", usedMB), Extras: usageBounds(pair, totalMB)},
		{Label: "cached", Value: fmt.Sprintf("%.2f", cachedMB)},
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}

// usageBounds renders the used-token perfdata bounds for the memory style
// probes: warn and crit converted from percentages to whole megabytes,
// then the fixed zero floor and the total as ceiling.
func usageBounds(pair *threshold.Pair, totalMB float64) []string {
	warnMB, critMB := "", ""
	if pair != nil {
		warnMB = strconv.Itoa(int(totalMB * pair.Warn / 100))
		critMB = strconv.Itoa(int(totalMB * pair.Crit / 100))
	}
	return []string{warnMB, critMB, "0", strconv.Itoa(int(totalMB))}
}
