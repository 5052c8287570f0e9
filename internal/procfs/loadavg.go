package procfs

import (
	"fmt"
	"strconv"
	"strings"
)

// LoadAvg holds the decoded loadavg source: run-queue averages and the
// scheduling entity counts.
type LoadAvg struct {
	Load1   float64
	Load5   float64
	Load15  float64
	Running uint64 // currently runnable scheduling entities
	Total   uint64 // scheduling entities on the system
	LastPID uint64
}

// ParseLoadAvg decodes the loadavg source.
func ParseLoadAvg(data []byte) (*LoadAvg, error) {
	fields := strings.Fields(string(data))
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: loadavg has %d fields, want 5", ErrShapeMismatch, len(fields))
	}

	var la LoadAvg
	for i, dst := range []*float64{&la.Load1, &la.Load5, &la.Load15} {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: loadavg average %d: %v", ErrShapeMismatch, i+1, err)
		}
		*dst = v
	}

	running, total, ok := strings.Cut(fields[3], "/")
	if !ok {
		return nil, fmt.Errorf("%w: loadavg entity field %q", ErrShapeMismatch, fields[3])
	}
	var err error
	if la.Running, err = strconv.ParseUint(running, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: loadavg running entities: %v", ErrShapeMismatch, err)
	}
	if la.Total, err = strconv.ParseUint(total, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: loadavg total entities: %v", ErrShapeMismatch, err)
	}
	if la.LastPID, err = strconv.ParseUint(fields[4], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: loadavg last pid: %v", ErrShapeMismatch, err)
	}
	return &la, nil
}
