package procfs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProcessStates holds one bucket per process execution state. Total counts
// every numeric proc entry, including the ones that vanished before their
// stat file could be read; those are also tallied in Skipped.
type ProcessStates struct {
	Total    int
	Running  int // R
	Sleeping int // S
	Waiting  int // D, uninterruptible io wait
	Zombie   int // Z
	Others   int
	Skipped  int
}

// CountProcessStates walks the numeric entries of the proc root and buckets
// each process by the state field of its stat file. A process exiting
// between the directory listing and the read is normal churn, so unreadable
// entries are counted rather than treated as errors.
func (fs FS) CountProcessStates() (*ProcessStates, error) {
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		return nil, fmt.Errorf("%w: process table: %v", ErrSourceUnavailable, err)
	}

	var ps ProcessStates
	for _, entry := range entries {
		if !isPID(entry.Name()) {
			continue
		}
		ps.Total++
		data, err := os.ReadFile(filepath.Join(fs.root, entry.Name(), "stat"))
		if err != nil {
			ps.Skipped++
			continue
		}
		state, ok := processState(data)
		if !ok {
			ps.Skipped++
			continue
		}
		switch state {
		case 'R':
			ps.Running++
		case 'S':
			ps.Sleeping++
		case 'D':
			ps.Waiting++
		case 'Z':
			ps.Zombie++
		default:
			ps.Others++
		}
	}
	return &ps, nil
}

// processState extracts the single-letter state following the parenthesized
// command name. The name itself may contain parentheses, so the match runs
// from the last closing one.
func processState(stat []byte) (byte, bool) {
	i := bytes.LastIndexByte(stat, ')')
	if i < 0 {
		return 0, false
	}
	fields := strings.Fields(string(stat[i+1:]))
	if len(fields) == 0 || len(fields[0]) != 1 {
		return 0, false
	}
	return fields[0][0], true
}

// isPID reports whether a proc entry name is all digits.
func isPID(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}
