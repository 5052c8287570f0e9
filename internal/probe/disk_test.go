package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shirou/gopsutil/v3/disk"

	"linux_metrics/internal/nagios"
	"linux_metrics/internal/procfs"
	"linux_metrics/internal/rate"
	"linux_metrics/internal/snapshot"
)

// Over the hour between the readings sda moves 36000 reads, 1800000 read
// sectors, 7200 ms read time, 72000 writes, 2880000 written sectors and
// 14400 ms write time. The in-flight column drops on purpose: it is the
// one non-cumulative field and must not be treated as a counter.
const diskStatsFirst = `   8       0 sda 100000 500 5000000 30000 200000 1500 8000000 60000 3 5000 90000
   8       1 sda1 99000 400 4900000 29000 199000 1400 7900000 59000 0 4900 89000
 253       0 dm-0 1000 0 8000 100 2000 0 16000 200 0 300 300
`

const diskStatsSecond = `   8       0 sda 136000 500 6800000 37200 272000 1500 10880000 74400 0 5000 111600
   8       1 sda1 99000 400 4900000 29000 199000 1400 7900000 59000 0 4900 89000
 253       0 dm-0 1000 0 8000 100 2000 0 16000 200 0 300 300
`

func TestDiskIOFirstRun(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "diskstats", diskStatsFirst)

	res, err := f.probe.DiskIO(context.Background(), "sda", nil)
	if err != nil {
		t.Fatalf("DiskIO: %v", err)
	}
	if res.Severity != nagios.OK {
		t.Errorf("severity = %v, want OK", res.Severity)
	}
	if got := res.Render(); got != "This was the first run, run again to get values: diskio(sda)" {
		t.Errorf("render = %q", got)
	}
}

func TestDiskIODerivesRates(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "diskstats", diskStatsFirst)
	if _, err := f.probe.DiskIO(context.Background(), "sda", nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	f.backdate(t, snapshot.Stream{Probe: "diskio", SubKey: "sda"}, time.Hour)
	f.writeSource(t, "diskstats", diskStatsSecond)

	res, err := f.probe.DiskIO(context.Background(), "sda", tupleExact(t, "600,600", "1000,1000", 2))
	if err != nil {
		t.Fatalf("DiskIO: %v", err)
	}
	if res.Severity != nagios.Warning {
		t.Errorf("severity = %v, want Warning", res.Severity)
	}

	line := res.Render()
	if !strings.HasPrefix(line, "sda (sda) Read: 500.00 sec/s (10.00 t/s) Write: 800.00 sec/s (20.00 t/s) [t:3600.0") {
		t.Errorf("line = %q, want the sector and transfer rates", line)
	}
	if !strings.Contains(line, "(Warning) | ") {
		t.Errorf("line = %q, want a Warning annotation", line)
	}
	want := "read_operations=10.00 read_sectors=500.00;600;1000 read_time=2.00" +
		" write_operations=20.00 write_sectors=800.00;600;1000 write_time=4.00"
	if got := perfPart(t, line); got != want {
		t.Errorf("perfdata = %q, want %q", got, want)
	}
}

func TestDiskIORerunTooSoon(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "diskstats", diskStatsFirst)
	if _, err := f.probe.DiskIO(context.Background(), "sda", nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	// An idle disk is a valid zero rate, but not over a sub-second window.
	if _, err := f.probe.DiskIO(context.Background(), "sda", nil); !errors.Is(err, rate.ErrInsufficientSample) {
		t.Errorf("err = %v, want ErrInsufficientSample", err)
	}
}

func TestDiskIODeviceMissing(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "diskstats", diskStatsFirst)

	_, err := f.probe.DiskIO(context.Background(), "sdz", nil)
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if got := err.Error(); got != "Block device not found: (sdz)" {
		t.Errorf("err = %q", got)
	}
}

func TestDiskIOCounterReset(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "diskstats", diskStatsSecond)
	if _, err := f.probe.DiskIO(context.Background(), "sda", nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	stream := snapshot.Stream{Probe: "diskio", SubKey: "sda"}
	f.backdate(t, stream, time.Hour)
	f.writeSource(t, "diskstats", diskStatsFirst)

	res, err := f.probe.DiskIO(context.Background(), "sda", nil)
	if err != nil {
		t.Fatalf("DiskIO: %v", err)
	}
	if got := res.Render(); got != "Counter reset detected, run again to get values: diskio(sda)" {
		t.Errorf("render = %q", got)
	}

	saved, _, err := f.store.Load(stream)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(saved) != diskStatsFirst {
		t.Errorf("snapshot was not rebuilt from the fresh reading")
	}
}

func TestDiskIOSlashDeviceSnapshotName(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "diskstats",
		" 104       0 cciss/c0d0 500 10 4000 100 900 20 8000 300 0 200 400\n")

	if _, err := f.probe.DiskIO(context.Background(), "cciss/c0d0", nil); err != nil {
		t.Fatalf("DiskIO: %v", err)
	}

	path := f.store.Path(snapshot.Stream{Probe: "diskio", SubKey: "cciss/c0d0"})
	if got := filepath.Base(path); got != "diskio_cciss%2Fc0d0" {
		t.Errorf("snapshot name = %q, want the slash escaped", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot missing: %v", err)
	}
}

func TestResolveDevice(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	devRoot := filepath.Join(base, "dev")
	if err := os.MkdirAll(filepath.Join(devRoot, "mapper"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(devRoot, "dm-0"), nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Symlink(filepath.Join("..", "dm-0"), filepath.Join(devRoot, "mapper", "vg-root")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	outside := filepath.Join(base, "loopback")
	if err := os.WriteFile(outside, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f := newFixture(t)
	p := New(procfs.NewFS(f.procRoot), f.store, f.disks, devRoot, zap.NewNop())

	tests := []struct {
		arg  string
		want string
	}{
		{"sda", "sda"},
		{"cciss/c0d0", "cciss/c0d0"},
		{filepath.Join(devRoot, "dm-0"), "dm-0"},
		// LVM style alias resolving through its symlink.
		{filepath.Join(devRoot, "mapper", "vg-root"), "dm-0"},
	}
	for _, tt := range tests {
		got, err := p.resolveDevice(tt.arg)
		if err != nil {
			t.Errorf("resolveDevice(%q): %v", tt.arg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveDevice(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}

	for _, arg := range []string{outside, filepath.Join(devRoot, "missing")} {
		_, err := p.resolveDevice(arg)
		var nf NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("resolveDevice(%q) err = %v, want NotFoundError", arg, err)
			continue
		}
		if want := "Block device not found: " + arg; err.Error() != want {
			t.Errorf("resolveDevice(%q) err = %q, want %q", arg, err.Error(), want)
		}
	}
}

func TestDiskUsage(t *testing.T) {
	f := newFixture(t)
	f.disks.mounts = map[string]*disk.UsageStat{
		"/data": {Path: "/data", Total: 100 << 30, Free: 20 << 30},
	}

	res, err := f.probe.DiskUsage(context.Background(), "/data", scalar(t, "75", "90"))
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}
	if res.Severity != nagios.Warning {
		t.Errorf("severity = %v, want Warning", res.Severity)
	}
	want := "/data Used: 80.00 GB / 100.00 GB (80.00%) (Warning) | used=80.00%;75;90"
	if got := res.Render(); got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	res, err = f.probe.DiskUsage(context.Background(), "/data", nil)
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}
	if res.Severity != nagios.OK {
		t.Errorf("severity = %v, want OK", res.Severity)
	}
	want = "/data Used: 80.00 GB / 100.00 GB (80.00%) | used=80.00%"
	if got := res.Render(); got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestDiskUsageNotMounted(t *testing.T) {
	f := newFixture(t)

	_, err := f.probe.DiskUsage(context.Background(), "/nope", nil)
	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if got := err.Error(); got != "Mount point not valid: (/nope)" {
		t.Errorf("err = %q", got)
	}
}
