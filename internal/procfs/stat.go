package procfs

import (
	"fmt"
	"strconv"
	"strings"
)

// Aggregate cpu line columns, in the order the kernel publishes them.
const (
	CPUUser = iota
	CPUNice
	CPUSystem
	CPUIdle
	CPUIOWait
	CPUIRQ
	CPUSoftIRQ
	CPUSteal
)

// minCPUColumns is the shortest aggregate cpu line still decodable; the
// steal column only exists on kernels 2.6.11 and later.
const minCPUColumns = 7

// Stat holds the decoded stat source: the aggregate CPU tick counters and
// the cumulative fork counter.
type Stat struct {
	CPUTicks     []uint64 // aggregate cpu line, every column present
	Forks        uint64   // processes created since boot
	ProcsRunning uint64
	ProcsBlocked uint64
}

// ParseStat decodes the stat source.
func ParseStat(data []byte) (*Stat, error) {
	var st Stat
	var haveCPU, haveForks bool

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "cpu":
			ticks, err := parseCounters(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: stat cpu line: %v", ErrShapeMismatch, err)
			}
			if len(ticks) < minCPUColumns {
				return nil, fmt.Errorf("%w: stat cpu line has %d columns, want at least %d",
					ErrShapeMismatch, len(ticks), minCPUColumns)
			}
			st.CPUTicks = ticks
			haveCPU = true
		case "processes":
			v, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: stat processes counter: %v", ErrShapeMismatch, err)
			}
			st.Forks = v
			haveForks = true
		case "procs_running":
			if v, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				st.ProcsRunning = v
			}
		case "procs_blocked":
			if v, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				st.ProcsBlocked = v
			}
		}
	}

	if !haveCPU {
		return nil, fmt.Errorf("%w: stat has no aggregate cpu line", ErrShapeMismatch)
	}
	if !haveForks {
		return nil, fmt.Errorf("%w: stat has no processes counter", ErrShapeMismatch)
	}
	return &st, nil
}
