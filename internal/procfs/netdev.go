package procfs

import (
	"fmt"
	"strings"
)

// Per-interface counter columns of the net/dev source, in publish order.
const (
	NetRxBytes = iota
	NetRxPackets
	NetRxErrs
	NetRxDrop
	NetRxFifo
	NetRxFrame
	NetRxCompressed
	NetRxMulticast
	NetTxBytes
	NetTxPackets
	NetTxErrs
	NetTxDrop
	NetTxFifo
	NetTxColls
	NetTxCarrier
	NetTxCompressed

	netFieldCount
)

// NetDev holds the counters for one interface from the net/dev source.
type NetDev struct {
	Iface    string
	Counters []uint64 // exactly netFieldCount entries, publish order
}

// ParseNetDev decodes the net/dev record for one interface. Older kernels
// glue the first counter to the interface colon, so the line is split on
// the colon rather than on whitespace alone.
func ParseNetDev(data []byte, iface string) (*NetDev, error) {
	prefix := iface + ":"
	for _, line := range strings.Split(string(data), "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), prefix)
		if !ok {
			continue
		}
		counters, err := parseCounters(strings.Fields(rest))
		if err != nil {
			return nil, fmt.Errorf("%w: net/dev %s: %v", ErrShapeMismatch, iface, err)
		}
		if len(counters) < netFieldCount {
			return nil, fmt.Errorf("%w: net/dev %s has %d counters, want %d",
				ErrShapeMismatch, iface, len(counters), netFieldCount)
		}
		return &NetDev{Iface: iface, Counters: counters[:netFieldCount]}, nil
	}
	return nil, fmt.Errorf("%w: network device %s not in net/dev", ErrEntityNotFound, iface)
}
