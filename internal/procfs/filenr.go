package procfs

import (
	"fmt"
	"strings"
)

// FileNR holds the file handle accounting from the sys/fs/file-nr source.
type FileNR struct {
	Allocated uint64 // handles handed out by the kernel
	Free      uint64 // allocated but currently unused
	Max       uint64 // system-wide limit
}

// ParseFileNR decodes the sys/fs/file-nr source.
func ParseFileNR(data []byte) (*FileNR, error) {
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: file-nr has %d fields, want 3", ErrShapeMismatch, len(fields))
	}
	values, err := parseCounters(fields[:3])
	if err != nil {
		return nil, fmt.Errorf("%w: file-nr: %v", ErrShapeMismatch, err)
	}
	return &FileNR{Allocated: values[0], Free: values[1], Max: values[2]}, nil
}
