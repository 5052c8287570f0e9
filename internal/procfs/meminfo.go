package procfs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MemInfo holds the memory accounting figures from the meminfo source.
// All values are kibibytes, as published.
type MemInfo struct {
	MemTotal   uint64
	MemFree    uint64
	Buffers    uint64
	Cached     uint64
	Active     uint64
	SwapTotal  uint64
	SwapFree   uint64
	SwapCached uint64
}

// ParseMemInfo decodes the meminfo source. Every field above is required.
func ParseMemInfo(data []byte) (*MemInfo, error) {
	var mi MemInfo
	want := map[string]*uint64{
		"MemTotal":   &mi.MemTotal,
		"MemFree":    &mi.MemFree,
		"Buffers":    &mi.Buffers,
		"Cached":     &mi.Cached,
		"Active":     &mi.Active,
		"SwapTotal":  &mi.SwapTotal,
		"SwapFree":   &mi.SwapFree,
		"SwapCached": &mi.SwapCached,
	}

	for _, line := range strings.Split(string(data), "\n") {
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		dst, ok := want[name]
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: meminfo %s has no value", ErrShapeMismatch, name)
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: meminfo %s: %v", ErrShapeMismatch, name, err)
		}
		*dst = v
		delete(want, name)
	}

	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for name := range want {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: meminfo missing %s", ErrShapeMismatch, strings.Join(missing, ", "))
	}
	return &mi, nil
}
