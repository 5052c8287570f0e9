package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Config holds the full runtime configuration.
type Config struct {
	// Probe environment
	InterimDir string
	ProcRoot   string
	DevRoot    string

	// General settings
	LogLevel string

	// Profiling
	ProfileCPUFile string
	ProfileMemFile string
}

// NewConfig returns a configuration with default values.
func NewConfig() *Config {
	return &Config{
		InterimDir:     "/var/tmp/linux_metrics",
		ProcRoot:       "/proc",
		DevRoot:        "/dev",
		LogLevel:       "error",
		ProfileCPUFile: "",
		ProfileMemFile: "",
	}
}

// Load reads configuration from environment variables and command line
// flags. Flags take priority over the environment.
func (c *Config) Load(cmd *cobra.Command) error {
	c.loadFromEnv()

	if cmd.Flags().Changed("interim-dir") {
		c.InterimDir, _ = cmd.Flags().GetString("interim-dir")
	}
	if cmd.Flags().Changed("proc-root") {
		c.ProcRoot, _ = cmd.Flags().GetString("proc-root")
	}
	if cmd.Flags().Changed("dev-root") {
		c.DevRoot, _ = cmd.Flags().GetString("dev-root")
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("profile-cpu") {
		c.ProfileCPUFile, _ = cmd.Flags().GetString("profile-cpu")
	}
	if cmd.Flags().Changed("profile-mem") {
		c.ProfileMemFile, _ = cmd.Flags().GetString("profile-mem")
	}

	return c.Validate()
}

// loadFromEnv reads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if dir := os.Getenv("INTERIM_DIR"); dir != "" {
		c.InterimDir = dir
	}
	if root := os.Getenv("PROC_ROOT"); root != "" {
		c.ProcRoot = root
	}
	if root := os.Getenv("DEV_ROOT"); root != "" {
		c.DevRoot = root
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if cpuFile := os.Getenv("PROFILE_CPU_FILE"); cpuFile != "" {
		c.ProfileCPUFile = cpuFile
	}
	if memFile := os.Getenv("PROFILE_MEM_FILE"); memFile != "" {
		c.ProfileMemFile = memFile
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.InterimDir == "" {
		return fmt.Errorf("interim directory is required")
	}
	if c.ProcRoot == "" {
		return fmt.Errorf("proc root is required")
	}
	if c.DevRoot == "" {
		return fmt.Errorf("dev root is required")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// AddFlags registers the flags shared by every probe command.
func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("interim-dir", "/var/tmp/linux_metrics", "Directory for interim counter snapshots")
	cmd.PersistentFlags().String("proc-root", "/proc", "Mount point of the proc filesystem")
	cmd.PersistentFlags().String("dev-root", "/dev", "Directory holding block device nodes")
	cmd.PersistentFlags().String("log-level", "error", "Log level (debug, info, warn, error)")

	// Profiling flags are development aids, kept out of the usage text.
	cmd.PersistentFlags().String("profile-cpu", "", "CPU profile output file")
	cmd.PersistentFlags().String("profile-mem", "", "Memory profile output file")
	_ = cmd.PersistentFlags().MarkHidden("profile-cpu")
	_ = cmd.PersistentFlags().MarkHidden("profile-mem")
}
