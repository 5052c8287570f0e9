package procfs

import (
	"fmt"
	"strings"
)

// diskFieldCount is how many counters we need after the device name;
// modern kernels publish at least eleven.
const diskFieldCount = 8

// DiskStats holds the block device counters consumed from the diskstats
// source. Times are milliseconds, sizes are 512-byte sectors.
type DiskStats struct {
	Device          string
	ReadsCompleted  uint64
	SectorsRead     uint64
	ReadTime        uint64
	WritesCompleted uint64
	SectorsWritten  uint64
	WriteTime       uint64
}

// ParseDiskStats decodes the diskstats record for one device.
func ParseDiskStats(data []byte, device string) (*DiskStats, error) {
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[2] != device {
			continue
		}
		counters, err := parseCounters(fields[3:])
		if err != nil {
			return nil, fmt.Errorf("%w: diskstats %s: %v", ErrShapeMismatch, device, err)
		}
		if len(counters) < diskFieldCount {
			return nil, fmt.Errorf("%w: diskstats %s has %d counters, want at least %d",
				ErrShapeMismatch, device, len(counters), diskFieldCount)
		}
		return &DiskStats{
			Device:          device,
			ReadsCompleted:  counters[0],
			SectorsRead:     counters[2],
			ReadTime:        counters[3],
			WritesCompleted: counters[4],
			SectorsWritten:  counters[6],
			WriteTime:       counters[7],
		}, nil
	}
	return nil, fmt.Errorf("%w: block device %s not in diskstats", ErrEntityNotFound, device)
}
