package nagios

import "strings"

// Severity is a plugin outcome ordered by urgency. Its integer value is the
// process exit code defined by the monitoring plugin API.
type Severity int

const (
	OK Severity = iota
	Warning
	Critical
	Unknown
)

// String returns the conventional label for the severity.
func (s Severity) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode returns the process exit code for the severity.
func (s Severity) ExitCode() int {
	if s < OK || s > Unknown {
		return Unknown.ExitCode()
	}
	return int(s)
}

// Max returns the more severe of a and b.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// Perf is one performance-data token, rendered as label=value[;extra;...].
// Value carries its unit suffix when it has one. Extras are emitted verbatim,
// so a tuple slot without bounds still renders its ";;" placeholders the way
// consumers of this format expect.
type Perf struct {
	Label  string
	Value  string
	Extras []string
}

func (p Perf) render() string {
	var b strings.Builder
	b.WriteString(p.Label)
	b.WriteByte('=')
	b.WriteString(p.Value)
	for _, e := range p.Extras {
		b.WriteByte(';')
		b.WriteString(e)
	}
	return b.String()
}

// Result is a finished probe outcome ready to report.
type Result struct {
	Severity Severity
	Status   string
	Perf     []Perf

	// Plain suppresses the performance-data separator entirely. It is used
	// for informational outcomes (first run, counter reset) that carry no
	// measurement at all. A measured result with zero perf tokens still
	// renders the separator.
	Plain bool
}

// Render returns the single plugin output line.
func (r *Result) Render() string {
	if r.Plain {
		return r.Status
	}
	tokens := make([]string, 0, len(r.Perf))
	for _, p := range r.Perf {
		tokens = append(tokens, p.render())
	}
	return r.Status + " | " + strings.Join(tokens, " ")
}

// Info builds an informational OK result with no performance data.
func Info(status string) *Result {
	return &Result{Severity: OK, Status: status, Plain: true}
}
