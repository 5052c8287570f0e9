package probe

import (
	"context"
	"errors"
	"fmt"

	"linux_metrics/internal/nagios"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/rate"
	"linux_metrics/internal/snapshot"
	"linux_metrics/internal/threshold"
)

// netErrorCounters are the hard failure counters of an interface. Any of
// them moving between samples forces CRITICAL for the cycle and outranks
// the bandwidth classification.
var netErrorCounters = []struct {
	name  string
	index int
}{
	{"r_errs", procfs.NetRxErrs},
	{"r_drop", procfs.NetRxDrop},
	{"r_fifo", procfs.NetRxFifo},
	{"r_frame", procfs.NetRxFrame},
	{"t_errs", procfs.NetTxErrs},
	{"t_drop", procfs.NetTxDrop},
	{"t_fifo", procfs.NetTxFifo},
	{"t_colls", procfs.NetTxColls},
	{"t_carrier", procfs.NetTxCarrier},
}

// Network reports bandwidth and packet rates for one interface. Tuple slot
// zero bounds the receive megabytes per second, slot one the transmit side.
func (p *Probe) Network(ctx context.Context, iface string, t *threshold.Thresholds) (*nagios.Result, error) {
	raw, err := p.fs.Raw(procfs.SourceNetDev)
	if err != nil {
		return nil, err
	}
	curr, err := procfs.ParseNetDev(raw, iface)
	if errors.Is(err, procfs.ErrEntityNotFound) {
		return nil, NotFoundError(fmt.Sprintf("Network device not found: (%s)", iface))
	}
	if err != nil {
		return nil, err
	}

	stream := snapshot.Stream{Probe: "network", SubKey: iface}
	smp, err := p.loadPrevious(stream, raw, msgFirstRun+": net:"+iface)
	if err != nil {
		return nil, err
	}
	if smp.first != nil {
		return smp.first, nil
	}

	prev, err := procfs.ParseNetDev(smp.previous, iface)
	if err != nil {
		return nil, p.failUnreadable(stream, raw, err)
	}

	deltas, err := rate.Deltas(prev.Counters, curr.Counters)
	if errors.Is(err, rate.ErrCounterReset) {
		return p.rebootstrap(stream, raw, msgReset+": net:"+iface, err)
	}
	if err != nil {
		return nil, err
	}
	rates, err := rate.PerSecondAll(deltas, smp.elapsed)
	if err != nil {
		return nil, err
	}

	rxMBps := rates[procfs.NetRxBytes] / 1024 / 1024
	txMBps := rates[procfs.NetTxBytes] / 1024 / 1024
	rxPKps := rates[procfs.NetRxPackets]
	txPKps := rates[procfs.NetTxPackets]

	status := fmt.Sprintf("%s Rx: %.2f MB/s (%.2f p/s) Tx: %.2f MB/s (%.2f p/s) [t:%.2f]",
		iface, rxMBps, rxPKps, txMBps, txPKps, smp.elapsed.Seconds())

	sev := nagios.OK
	var errTotal uint64
	for _, c := range netErrorCounters {
		if d := deltas[c.index]; d > 0 {
			errTotal += d
			sev = nagios.Critical
			status += fmt.Sprintf(" (Critical %s:%d)", c.name, d)
		}
	}

	// Bandwidth bounds only apply on a clean cycle; error counters moving
	// already say everything about the interface.
	if t.Len() > 0 && errTotal == 0 {
		bw := nagios.Max(t.At(0).Classify(rxMBps), t.At(1).Classify(txMBps))
		sev = nagios.Max(sev, bw)
		status += threshold.Annotation(bw, "BW")
	}

	perf := []nagios.Perf{
		{Label: "RX_MBps", Value: fmt.Sprintf("%.2f", rxMBps), Extras: t.EchoAt(0)},
		{Label: "RX_PKps", Value: fmt.Sprintf("%.2f", rxPKps)},
		{Label: "TX_MBps", Value: fmt.Sprintf("%.2f", txMBps), Extras: t.EchoAt(1)},
		{Label: "TX_PKps", Value: fmt.Sprintf("%.2f", txPKps)},
		{Label: "PK_ERRORS", Value: fmt.Sprintf("%.2f", float64(errTotal))},
	}

	if err := p.store.Save(stream, raw); err != nil {
		return nil, err
	}
	return &nagios.Result{Severity: sev, Status: status, Perf: perf}, nil
}
