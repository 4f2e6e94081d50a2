package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Export.OutputDir != "out" {
		t.Errorf("expected output dir 'out', got %s", cfg.Export.OutputDir)
	}
	if cfg.Export.WriteDot {
		t.Error("expected write_dot to be false by default")
	}
	if cfg.Export.DotDirectory() != "out" {
		t.Errorf("expected dot dir to default to the output dir, got %s", cfg.Export.DotDirectory())
	}

	if cfg.Batch.Workers != 0 {
		t.Errorf("expected 0 workers, got %d", cfg.Batch.Workers)
	}
	if !cfg.Batch.Recursive {
		t.Error("expected recursive batches by default")
	}

	if cfg.Watch.DebounceMS != 250 {
		t.Errorf("expected debounce 250ms, got %d", cfg.Watch.DebounceMS)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scenerc.yaml")

	yamlContent := `
export:
  output_dir: "build/assets"
  write_dot: true
  dot_dir: "build/graphs"

import:
  extensions: ["gltf", "glb"]
  save_default_manifest: true

batch:
  workers: 4
  recursive: false
  fail_fast: true

watch:
  debounce_ms: 500

logging:
  level: "debug"
  log_file: "scenerc.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.OutputDir != "build/assets" {
		t.Errorf("expected output dir build/assets, got %s", cfg.Export.OutputDir)
	}
	if !cfg.Export.WriteDot {
		t.Error("expected write_dot to be true")
	}
	if cfg.Export.DotDirectory() != "build/graphs" {
		t.Errorf("expected dot dir build/graphs, got %s", cfg.Export.DotDirectory())
	}
	if len(cfg.Import.Extensions) != 2 || cfg.Import.Extensions[1] != "glb" {
		t.Errorf("unexpected extensions %v", cfg.Import.Extensions)
	}
	if !cfg.Import.SaveDefaultManifest {
		t.Error("expected save_default_manifest to be true")
	}
	if cfg.Batch.Workers != 4 || cfg.Batch.Recursive || !cfg.Batch.FailFast {
		t.Errorf("unexpected batch config %+v", cfg.Batch)
	}
	if cfg.Watch.DebounceMS != 500 {
		t.Errorf("expected debounce 500, got %d", cfg.Watch.DebounceMS)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	// Values absent from the file keep their defaults
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("expected default max backups 3, got %d", cfg.Logging.MaxBackups)
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scenerc.toml")

	tomlContent := `
[export]
output_dir = "assets"

[batch]
workers = 2

[logging]
level = "warn"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.OutputDir != "assets" {
		t.Errorf("expected output dir assets, got %s", cfg.Export.OutputDir)
	}
	if cfg.Batch.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
	}
	if cfg.Watch.DebounceMS != 250 {
		t.Errorf("expected default debounce, got %d", cfg.Watch.DebounceMS)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"invalid.yaml": "batch:\n  workers: not a number\n  invalid syntax here\n",
		"invalid.toml": "[batch\nworkers = ",
	}
	for name, content := range files {
		configPath := filepath.Join(tmpDir, name)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := Default()
		if err := loadFromFile(cfg, configPath); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/scenerc.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("scenerc.toml", []byte("[batch]\nworkers = 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./scenerc.toml" {
		t.Errorf("expected ./scenerc.toml, got %s", path)
	}

	// YAML wins when both exist
	if err := os.WriteFile("scenerc.yaml", []byte("batch:\n  workers: 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./scenerc.yaml" {
		t.Errorf("expected ./scenerc.yaml, got %s", path)
	}
}

func TestExpandPaths(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	cfg := Default()
	cfg.Export.OutputDir = "~/assets"
	cfg.Logging.LogFile = "/var/log/scenerc.log"
	if err := cfg.ExpandPaths(); err != nil {
		t.Fatalf("ExpandPaths: %v", err)
	}

	if cfg.Export.OutputDir != filepath.Join(home, "assets") {
		t.Errorf("expected %s, got %s", filepath.Join(home, "assets"), cfg.Export.OutputDir)
	}
	if cfg.Logging.LogFile != "/var/log/scenerc.log" {
		t.Errorf("absolute path changed to %s", cfg.Logging.LogFile)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "out flag",
			setup: func() { *flagOut = "/tmp/assets" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.OutputDir != "/tmp/assets" {
					t.Errorf("expected output dir /tmp/assets, got %s", cfg.Export.OutputDir)
				}
			},
			teardown: func() { *flagOut = "" },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 8 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Batch.Workers != 8 {
					t.Errorf("expected 8 workers, got %d", cfg.Batch.Workers)
				}
			},
			teardown: func() { *flagWorkers = 0 },
		},
		{
			name: "dot and fail-fast flags",
			setup: func() {
				*flagDot = true
				*flagFailFast = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Export.WriteDot {
					t.Error("expected write_dot with dot flag")
				}
				if !cfg.Batch.FailFast {
					t.Error("expected fail_fast with fail-fast flag")
				}
			},
			teardown: func() {
				*flagDot = false
				*flagFailFast = false
			},
		},
		{
			name:  "log flag",
			setup: func() { *flagLogFile = "run.log" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLogFile = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scenerc.yaml")

	yamlContent := `
export:
  output_dir: "from-file"
batch:
  workers: 3
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagOut = "from-flag"
	defer func() {
		*flagConfig = ""
		*flagOut = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Output dir from flag, not file
	if cfg.Export.OutputDir != "from-flag" {
		t.Errorf("expected output dir from flag, got %s", cfg.Export.OutputDir)
	}
	// Workers from file since no flag override
	if cfg.Batch.Workers != 3 {
		t.Errorf("expected 3 workers from file, got %d", cfg.Batch.Workers)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"saved.yaml", "saved.toml"} {
		path := filepath.Join(tmpDir, "nested", name)

		cfg := Default()
		cfg.Export.OutputDir = "assets"
		cfg.Batch.Workers = 6
		cfg.Import.Extensions = []string{"glb"}
		if err := cfg.SaveTo(path); err != nil {
			t.Fatalf("%s: SaveTo: %v", name, err)
		}

		loaded := Default()
		if err := loadFromFile(loaded, path); err != nil {
			t.Fatalf("%s: reload: %v", name, err)
		}
		if loaded.Export.OutputDir != "assets" || loaded.Batch.Workers != 6 {
			t.Errorf("%s: unexpected reloaded config %+v", name, loaded)
		}
		if len(loaded.Import.Extensions) != 1 || loaded.Import.Extensions[0] != "glb" {
			t.Errorf("%s: unexpected extensions %v", name, loaded.Import.Extensions)
		}
	}
}
