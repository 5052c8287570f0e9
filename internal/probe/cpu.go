package probe

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"linux_metrics/internal/nagios"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/rate"
	"linux_metrics/internal/snapshot"
	"linux_metrics/internal/threshold"
)

// CPU derives processor utilization percentages from the aggregate tick
// counters of two consecutive stat readings. Busy time is everything that
// is not idle; the per-mode breakdown lands in the performance data.
func (p *Probe) CPU(ctx context.Context, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceStat)
	if err != nil {
		return nil, err
	}
	curr, err := procfs.ParseStat(raw)
	if err != nil {
		return nil, err
	}

	stream := snapshot.Stream{Probe: "cpu"}
	smp, err := p.loadPrevious(stream, raw, msgFirstRun)
	if err != nil {
		return nil, err
	}
	if smp.first != nil {
		return smp.first, nil
	}
	// The percentages come from tick ratios, not wall clock division, so
	// the period needs its own sanity check here.
	if smp.elapsed < rate.MinPeriod {
		return nil, fmt.Errorf("%w: elapsed %v", rate.ErrInsufficientSample, smp.elapsed)
	}

	prev, err := procfs.ParseStat(smp.previous)
	if err != nil {
		return nil, p.failUnreadable(stream, raw, err)
	}

	deltas, err := rate.Deltas(prev.CPUTicks, curr.CPUTicks)
	if errors.Is(err, rate.ErrCounterReset) {
		return p.rebootstrap(stream, raw, msgReset, err)
	}
	if err != nil {
		return nil, err
	}
	percents, err := rate.PercentOfTotal(deltas)
	if err != nil {
		return nil, err
	}

	busy := 100 - percents[procfs.CPUIdle]
	steal := 0.0
	if len(percents) > procfs.CPUSteal {
		steal = percents[procfs.CPUSteal]
	}
	p.logger.Debug("derived cpu usage",
		zap.Float64("busy", busy),
		zap.Duration("period", smp.elapsed))

	pair := t.At(0)
	sev := pair.Classify(busy)
	status := fmt.Sprintf("CPU Usage: %.2f%% [t:%.2f]", busy, smp.elapsed.Seconds())
	if t.Len() > 0 {
		status += threshold.Annotation(sev, "")
	}

	metrics := []struct {
		label string
		value float64
	}{
		{"cpu", busy},
		{"user", percents[procfs.CPUUser]},
		{"system", percents[procfs.CPUSystem]},
		{"iowait", percents[procfs.CPUIOWait]},
		{"nice", percents[procfs.CPUNice]},
		{"irq", percents[procfs.CPUIRQ]},
		{"softirq", percents[procfs.CPUSoftIRQ]},
		{"steal", steal},
	}
	perf := make([]nagios.Perf, 0, len(metrics))
	for _, m := range metrics {
		perf = append(perf, nagios.Perf{
			Label:  m.label,
			Value:  fmt.Sprintf("%.2f%%", m.value),
			Extras: t.EchoAt(0),
		})
	}

	if err := p.store.Save(stream, raw); err != nil {
		return nil, err
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}
