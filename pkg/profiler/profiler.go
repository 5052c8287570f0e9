// Package profiler writes pprof profiles covering a single plugin
// invocation. The process lives for milliseconds, far too short for the
// usual pprof HTTP endpoints, so the profiles land in files named by
// hidden command line flags instead.
package profiler

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"go.uber.org/zap"
)

// Config names the profile output files. An empty field disables the
// corresponding profile.
type Config struct {
	CPUFile string
	MemFile string
}

// Profiler manages profile collection for the lifetime of one invocation.
type Profiler struct {
	config  Config
	logger  *zap.Logger
	cpuFile *os.File
}

// New creates a profiler.
func New(config Config, logger *zap.Logger) *Profiler {
	return &Profiler{
		config: config,
		logger: logger,
	}
}

// Start begins CPU profiling when a CPU profile file is configured.
func (p *Profiler) Start() error {
	if p.config.CPUFile == "" {
		return nil
	}

	file, err := os.Create(p.config.CPUFile)
	if err != nil {
		return fmt.Errorf("failed to create CPU profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to start CPU profiling: %w", err)
	}

	p.cpuFile = file
	p.logger.Debug("started CPU profiling", zap.String("file", p.config.CPUFile))
	return nil
}

// Stop finishes the CPU profile and writes the heap profile when one was
// requested.
func (p *Profiler) Stop() error {
	var errs []error

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close CPU profile file: %w", err))
		}
		p.cpuFile = nil
		p.logger.Debug("stopped CPU profiling", zap.String("file", p.config.CPUFile))
	}

	if p.config.MemFile != "" {
		if err := p.writeMemProfile(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("profiler shutdown errors: %v", errs)
	}
	return nil
}

// writeMemProfile dumps the heap profile after a forced GC so the numbers
// reflect live memory rather than garbage.
func (p *Profiler) writeMemProfile() error {
	file, err := os.Create(p.config.MemFile)
	if err != nil {
		return fmt.Errorf("failed to create memory profile file: %w", err)
	}
	defer file.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(file); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}

	p.logger.Debug("written memory profile", zap.String("file", p.config.MemFile))
	return nil
}
