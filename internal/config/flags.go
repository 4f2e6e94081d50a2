package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagOut      = flag.String("out", "", "Output directory")
	flagWorkers  = flag.Int("workers", 0, "Batch worker count")
	flagDot      = flag.Bool("dot", false, "Write a graphviz view of each scene")
	flagLogFile  = flag.String("log", "", "Log file path")
	flagFailFast = flag.Bool("fail-fast", false, "Stop a batch at the first failure")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagOut != "" {
		cfg.Export.OutputDir = *flagOut
	}
	if *flagWorkers > 0 {
		cfg.Batch.Workers = *flagWorkers
	}
	if *flagDot {
		cfg.Export.WriteDot = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagFailFast {
		cfg.Batch.FailFast = true
	}
}
