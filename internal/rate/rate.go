package rate

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientSample reports that no meaningful rate can be derived from
// the sample pair: the elapsed period is too short, or no counter ticks
// accumulated between the samples.
var ErrInsufficientSample = errors.New("insufficient sample period")

// MinPeriod is the shortest sample period a rate can be derived from.
// Snapshot timestamps are only trustworthy to the second on some
// filesystems, so anything shorter reads as a rerun within the same
// instant.
const MinPeriod = time.Second

// ErrCounterReset reports that a counter went backwards or changed shape
// between samples, which happens after a reboot or a kernel change. Probes
// treat it as a fresh bootstrap rather than emitting a negative rate.
var ErrCounterReset = errors.New("counter reset detected")

// Deltas returns the element-wise difference current minus previous.
// Counters are monotonic between reboots, so any negative difference, like
// any change in the number of columns, identifies a reset.
func Deltas(previous, current []uint64) ([]uint64, error) {
	if len(previous) != len(current) {
		return nil, fmt.Errorf("%w: field count changed from %d to %d",
			ErrCounterReset, len(previous), len(current))
	}
	deltas := make([]uint64, len(current))
	for i := range current {
		if current[i] < previous[i] {
			return nil, fmt.Errorf("%w: field %d went from %d to %d",
				ErrCounterReset, i, previous[i], current[i])
		}
		deltas[i] = current[i] - previous[i]
	}
	return deltas, nil
}

// Delta returns current minus previous for a single counter.
func Delta(previous, current uint64) (uint64, error) {
	d, err := Deltas([]uint64{previous}, []uint64{current})
	if err != nil {
		return 0, err
	}
	return d[0], nil
}

// PercentOfTotal expresses each delta as its percentage contribution to the
// sum of all deltas. A zero total means no ticks elapsed between samples and
// no percentage is defined.
func PercentOfTotal(deltas []uint64) ([]float64, error) {
	var total uint64
	for _, d := range deltas {
		total += d
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: zero total tick delta", ErrInsufficientSample)
	}
	percents := make([]float64, len(deltas))
	for i, d := range deltas {
		percents[i] = 100 - 100*float64(total-d)/float64(total)
	}
	return percents, nil
}

// PerSecond converts a counter delta into a per-second rate over the elapsed
// wall-clock period. The period must be at least MinPeriod; a repeated
// invocation within the same instant or a clock stepping backwards cannot
// produce a rate.
func PerSecond(delta uint64, elapsed time.Duration) (float64, error) {
	if elapsed < MinPeriod {
		return 0, fmt.Errorf("%w: elapsed %v", ErrInsufficientSample, elapsed)
	}
	return float64(delta) / elapsed.Seconds(), nil
}

// PerSecondAll converts a delta vector into per-second rates over one shared
// elapsed period.
func PerSecondAll(deltas []uint64, elapsed time.Duration) ([]float64, error) {
	if elapsed < MinPeriod {
		return nil, fmt.Errorf("%w: elapsed %v", ErrInsufficientSample, elapsed)
	}
	secs := elapsed.Seconds()
	rates := make([]float64, len(deltas))
	for i, d := range deltas {
		rates[i] = float64(d) / secs
	}
	return rates, nil
}
