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

// Procs reports the process table broken down by scheduler state plus the
// fork rate since the previous run. Tuple slots classify total, running and
// waiting in that order.
func (p *Probe) Procs(ctx context.Context, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceStat)
	if err != nil {
		return nil, err
	}
	curr, err := procfs.ParseStat(raw)
	if err != nil {
		return nil, err
	}

	stream := snapshot.Stream{Probe: "procs"}
	smp, err := p.loadPrevious(stream, raw, msgFirstRun)
	if err != nil {
		return nil, err
	}
	if smp.first != nil {
		return smp.first, nil
	}

	prev, err := procfs.ParseStat(smp.previous)
	if err != nil {
		return nil, p.failUnreadable(stream, raw, err)
	}

	forkDelta, err := rate.Delta(prev.Forks, curr.Forks)
	if errors.Is(err, rate.ErrCounterReset) {
		return p.rebootstrap(stream, raw, msgReset, err)
	}
	if err != nil {
		return nil, err
	}
	forks, err := rate.PerSecond(forkDelta, smp.elapsed)
	if err != nil {
		return nil, err
	}

	states, err := p.fs.CountProcessStates()
	if err != nil {
		return nil, err
	}
	if states.Skipped > 0 {
		p.logger.Debug("process entries vanished during walk",
			zap.Int("skipped", states.Skipped))
	}

	values := []float64{float64(states.Total), float64(states.Running), float64(states.Waiting)}
	sev, verdicts := t.ClassifyAll(values)

	status := fmt.Sprintf("Total: %d Running: %d Sleeping: %d Waiting: %d Zombie: %d Others: %d New_Forks: %.2f/s",
		states.Total, states.Running, states.Sleeping, states.Waiting,
		states.Zombie, states.Others, forks)
	labels := []string{"total", "running", "waiting"}
	for i, v := range verdicts {
		if v.Evaluated {
			status += threshold.Annotation(v.Severity, labels[i])
		}
	}

	// Classified sub-metrics echo their tuple slot; everything else is
	// reported bare.
	metrics := []struct {
		label string
		value float64
		slot  int
	}{
		{"total", values[0], 0},
		{"forks", forks, -1},
		{"sleeping", float64(states.Sleeping), -1},
		{"running", values[1], 1},
		{"waiting", values[2], 2},
		{"zombie", float64(states.Zombie), -1},
		{"others", float64(states.Others), -1},
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
