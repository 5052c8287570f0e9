package probe

import (
	"context"
	"fmt"
	"strconv"

	"linux_metrics/internal/nagios"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/threshold"
)

// Load reports the one, five and fifteen minute run queue averages. The
// tuple slots follow the same order; an empty slot leaves that average
// unclassified.
func (p *Probe) Load(ctx context.Context, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceLoadAvg)
	if err != nil {
		return nil, err
	}
	la, err := procfs.ParseLoadAvg(raw)
	if err != nil {
		return nil, err
	}

	values := []float64{la.Load1, la.Load5, la.Load15}
	sev, verdicts := t.ClassifyAll(values)

	status := fmt.Sprintf("Load1: %.2f Load5: %.2f Load15: %.2f", la.Load1, la.Load5, la.Load15)
	for _, v := range verdicts {
		if v.Evaluated {
			status += threshold.Annotation(v.Severity, "")
		}
	}

	labels := []string{"load1", "load5", "load15"}
	perf := make([]nagios.Perf, 0, len(labels))
	for i, label := range labels {
		perf = append(perf, nagios.Perf{
			Label:  label,
			Value:  fmt.Sprintf("%.2f", values[i]),
			Extras: t.EchoAt(i),
		})
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}

// Threads reports runnable versus existing scheduling entities from the
// loadavg line. Only the runnable count is classified.
func (p *Probe) Threads(ctx context.Context, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceLoadAvg)
	if err != nil {
		return nil, err
	}
	la, err := procfs.ParseLoadAvg(raw)
	if err != nil {
		return nil, err
	}

	running := float64(la.Running)
	sev := t.At(0).Classify(running)
	status := fmt.Sprintf("Threads: %d/%d", la.Running, la.Total)
	if t.Len() > 0 {
		status += threshold.Annotation(sev, "")
	}

	perf := []nagios.Perf{
		{Label: "running", Value: fmt.Sprintf("%.2f", running), Extras: t.EchoAt(0)},
		{Label: "total", Value: fmt.Sprintf("%.2f", float64(la.Total))},
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}

// Files reports kernel file handle usage. The allocated count is classified;
// when bounds are given the perfdata also carries the kernel maximum so
// graphs get a meaningful ceiling.
func (p *Probe) Files(ctx context.Context, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceFileNR)
	if err != nil {
		return nil, err
	}
	fn, err := procfs.ParseFileNR(raw)
	if err != nil {
		return nil, err
	}

	open := float64(fn.Allocated)
	sev := t.At(0).Classify(open)
	status := fmt.Sprintf("Open Files: %d (free: %d)", fn.Allocated, fn.Free)
	if t.Len() > 0 {
		status += threshold.Annotation(sev, "")
	}

	openPerf := nagios.Perf{Label: "open", Value: fmt.Sprintf("%.2f", open)}
	if t.Len() > 0 {
		openPerf.Extras = append(t.EchoAt(0), "0", strconv.FormatUint(fn.Max, 10))
	}
	perf := []nagios.Perf{
		openPerf,
		{Label: "free", Value: fmt.Sprintf("%.2f", float64(fn.Free))},
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}
