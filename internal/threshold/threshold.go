package threshold

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"linux_metrics/internal/nagios"
)

// ErrInvalidArgument reports warn/crit arguments that violate the CLI
// contract: not a number, mismatched tuple lengths, or crit not strictly
// above warn. It always surfaces before any counter is read.
var ErrInvalidArgument = errors.New("invalid threshold arguments")

// Pair is one resolved (warn, crit) bound. The original argument text is
// retained so performance data echoes exactly what the caller passed.
type Pair struct {
	Warn     float64
	Crit     float64
	WarnText string
	CritText string
}

// Classify evaluates a value against the pair. Comparisons are inclusive:
// a value exactly at a bound takes that bound's severity. A nil pair means
// no classification was requested and always yields OK.
func (p *Pair) Classify(v float64) nagios.Severity {
	if p == nil {
		return nagios.OK
	}
	switch {
	case v >= p.Crit:
		return nagios.Critical
	case v >= p.Warn:
		return nagios.Warning
	default:
		return nagios.OK
	}
}

// Thresholds is an ordered set of optional pairs. A scalar threshold is a
// one-slot set; tuple probes carry one slot per sub-metric, where a slot may
// be present but empty (no bounds for that position). A nil *Thresholds
// means no thresholds were supplied at all.
type Thresholds struct {
	pairs []*Pair
}

// Len returns the number of slots, zero for nil.
func (t *Thresholds) Len() int {
	if t == nil {
		return 0
	}
	return len(t.pairs)
}

// At returns the pair for slot i, nil when the slot is empty or out of range.
func (t *Thresholds) At(i int) *Pair {
	if t == nil || i < 0 || i >= len(t.pairs) {
		return nil
	}
	return t.pairs[i]
}

// EchoAt returns the warn/crit texts for slot i as perfdata extras. Slots the
// tuple covers are echoed even when empty; slots beyond it produce nothing.
func (t *Thresholds) EchoAt(i int) []string {
	if t == nil || i < 0 || i >= len(t.pairs) {
		return nil
	}
	if p := t.pairs[i]; p != nil {
		return []string{p.WarnText, p.CritText}
	}
	return []string{"", ""}
}

// Verdict is the classification outcome for one slot. Evaluated is false for
// empty slots, which receive no annotation and cannot affect the overall
// severity.
type Verdict struct {
	Evaluated bool
	Severity  nagios.Severity
}

// ClassifyAll evaluates every slot against its value and aggregates the
// overall severity as the maximum observed. Evaluation never stops early so
// callers can annotate every breached sub-metric, but nothing can downgrade
// a CRITICAL once one slot reached it.
func (t *Thresholds) ClassifyAll(values []float64) (nagios.Severity, []Verdict) {
	overall := nagios.OK
	if t == nil {
		return overall, nil
	}
	verdicts := make([]Verdict, 0, len(t.pairs))
	for i, p := range t.pairs {
		if i >= len(values) {
			break
		}
		if p == nil {
			verdicts = append(verdicts, Verdict{})
			continue
		}
		sev := p.Classify(values[i])
		overall = nagios.Max(overall, sev)
		verdicts = append(verdicts, Verdict{Evaluated: true, Severity: sev})
	}
	return overall, verdicts
}

// Annotation renders the status-line suffix for one classified sub-metric.
// OK is reported without a label; breaches name the sub-metric when one is
// given.
func Annotation(sev nagios.Severity, label string) string {
	var word string
	switch sev {
	case nagios.OK:
		return " (OK)"
	case nagios.Warning:
		word = "Warning"
	case nagios.Critical:
		word = "Critical"
	default:
		return ""
	}
	if label == "" {
		return " (" + word + ")"
	}
	return " (" + word + " " + label + ")"
}

// ParseScalar resolves a single warn/crit argument pair.
func ParseScalar(warn, crit string) (*Thresholds, error) {
	p, err := parsePair(warn, crit)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: warn and crit must both be given", ErrInvalidArgument)
	}
	return &Thresholds{pairs: []*Pair{p}}, nil
}

// ParseTuple resolves comma-separated warn/crit arguments into at most slots
// positions. Both tuples must have the same length; a position may be left
// empty in both to skip it.
func ParseTuple(warn, crit string, slots int) (*Thresholds, error) {
	warns := strings.Split(warn, ",")
	crits := strings.Split(crit, ",")
	if len(warns) != len(crits) {
		return nil, fmt.Errorf("%w: warn has %d positions, crit has %d",
			ErrInvalidArgument, len(warns), len(crits))
	}
	if len(warns) > slots {
		return nil, fmt.Errorf("%w: at most %d positions allowed, got %d",
			ErrInvalidArgument, slots, len(warns))
	}
	pairs := make([]*Pair, len(warns))
	for i := range warns {
		p, err := parsePair(warns[i], crits[i])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i+1, err)
		}
		pairs[i] = p
	}
	return &Thresholds{pairs: pairs}, nil
}

// ParseTupleExact resolves comma-separated warn/crit arguments for probes
// whose sub-metrics are all mandatory: every slot must be filled and none
// may be empty.
func ParseTupleExact(warn, crit string, slots int) (*Thresholds, error) {
	t, err := ParseTuple(warn, crit, slots)
	if err != nil {
		return nil, err
	}
	if len(t.pairs) != slots {
		return nil, fmt.Errorf("%w: need exactly %d positions, got %d",
			ErrInvalidArgument, slots, len(t.pairs))
	}
	for i, p := range t.pairs {
		if p == nil {
			return nil, fmt.Errorf("%w: position %d must not be empty", ErrInvalidArgument, i+1)
		}
	}
	return t, nil
}

// parsePair resolves one warn/crit text pair, returning nil for an
// empty-on-both-sides position.
func parsePair(warn, crit string) (*Pair, error) {
	if warn == "" && crit == "" {
		return nil, nil
	}
	if warn == "" || crit == "" {
		return nil, fmt.Errorf("%w: warn and crit must both be given or both be empty",
			ErrInvalidArgument)
	}
	w, err := parseBound(warn)
	if err != nil {
		return nil, err
	}
	c, err := parseBound(crit)
	if err != nil {
		return nil, err
	}
	if c <= w {
		return nil, fmt.Errorf("%w: crit %s must be above warn %s", ErrInvalidArgument, crit, warn)
	}
	return &Pair{Warn: w, Crit: c, WarnText: warn, CritText: crit}, nil
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidArgument, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", ErrInvalidArgument, s)
	}
	return v, nil
}
