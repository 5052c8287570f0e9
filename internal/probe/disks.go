package probe

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// SystemDisks queries the real mount table of the host.
type SystemDisks struct{}

// Usage reports filesystem capacity for a mounted path.
func (SystemDisks) Usage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

// IsMount reports whether path is a mount point, physical or virtual.
func (SystemDisks) IsMount(ctx context.Context, path string) (bool, error) {
	partitions, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return false, fmt.Errorf("failed to list mounted filesystems: %w", err)
	}
	clean := filepath.Clean(path)
	for _, part := range partitions {
		if part.Mountpoint == clean {
			return true, nil
		}
	}
	return false, nil
}
