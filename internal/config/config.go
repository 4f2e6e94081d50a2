// Package config handles compiler configuration loading and management.
package config

// Config holds all compiler settings.
type Config struct {
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Import  ImportConfig  `yaml:"import" toml:"import"`
	Batch   BatchConfig   `yaml:"batch" toml:"batch"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" toml:"output_dir"` // Directory receiving exported assets
	WriteDot  bool   `yaml:"write_dot" toml:"write_dot"`   // Also write a graphviz view of each scene
	DotDir    string `yaml:"dot_dir" toml:"dot_dir"`       // Defaults to OutputDir
}

// ImportConfig holds source file settings.
type ImportConfig struct {
	Extensions          []string `yaml:"extensions" toml:"extensions"` // Restrict batch/watch to these, empty for all
	SaveDefaultManifest bool     `yaml:"save_default_manifest" toml:"save_default_manifest"`
}

// BatchConfig holds settings for exporting many files.
type BatchConfig struct {
	Workers   int  `yaml:"workers" toml:"workers"` // 0 uses one worker per CPU
	Recursive bool `yaml:"recursive" toml:"recursive"`
	FailFast  bool `yaml:"fail_fast" toml:"fail_fast"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" toml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	LogFile    string `yaml:"log_file" toml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			OutputDir: "out",
		},
		Batch: BatchConfig{
			Workers:   0,
			Recursive: true,
		},
		Watch: WatchConfig{
			DebounceMS: 250,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// DotDirectory returns the directory for graphviz files.
func (e ExportConfig) DotDirectory() string {
	if e.DotDir != "" {
		return e.DotDir
	}
	return e.OutputDir
}
