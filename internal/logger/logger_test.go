package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// restoreGlobal puts the package loggers back after a test replaced them.
func restoreGlobal(t *testing.T) {
	t.Helper()
	log, sugar := Log, Sugar
	t.Cleanup(func() {
		Log, Sugar = log, sugar
	})
}

func TestNewLevelFiltering(t *testing.T) {
	lines := map[zapcore.Level]string{
		zapcore.DebugLevel: "collecting stream layout",
		zapcore.InfoLevel:  "mesh group exported",
		zapcore.WarnLevel:  "material has no texture",
		zapcore.ErrorLevel: "chunk write failed",
	}

	tests := []struct {
		level   string
		minimum zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Options{Level: tt.level, Console: &buf})
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			for lvl, msg := range lines {
				if ce := l.Check(lvl, msg); ce != nil {
					ce.Write()
				}
			}
			_ = l.Sync()

			out := buf.String()
			for lvl, msg := range lines {
				written := strings.Contains(out, msg)
				if want := lvl >= tt.minimum; written != want {
					t.Errorf("%s line %q written = %v, want %v", lvl, msg, written, want)
				}
			}
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scenetool.log")

	l, err := New(Options{Level: "debug", File: FileConfig{Path: path, MaxSizeMB: 10}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("scene loaded", zap.String("source", "crate.glb"))
	l.Error("export failed", zap.String("group", "crate"))
	_ = l.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	text := string(content)

	for _, want := range []string{"DEBUG", "scene loaded", "crate.glb", "ERROR", "export failed"} {
		if !strings.Contains(text, want) {
			t.Errorf("log file missing %q:\n%s", want, text)
		}
	}
	// File lines are plain text.
	if strings.Contains(text, "\x1b[") {
		t.Error("file output contains colour escape codes")
	}
}

func TestNewRotatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.log")

	// lumberjack sizes are in MB, so roughly 1.5MB is logged.
	l, err := New(Options{
		Level: "info",
		File:  FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	payload := strings.Repeat("v", 256)
	for i := range 6000 {
		l.Info("vertex stream", zap.Int("index", i), zap.String("data", payload))
	}
	_ = l.Sync()

	backups, err := filepath.Glob(filepath.Join(dir, "batch-*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(backups) == 0 {
		t.Fatal("no rotated log files")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("current log file missing: %v", err)
	}
}

func TestNewWithoutOutputs(t *testing.T) {
	l, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a no-op logger without outputs")
	}
}

func TestUnknownLevel(t *testing.T) {
	restoreGlobal(t)

	if _, err := New(Options{Level: "verbose", Console: &bytes.Buffer{}}); err == nil {
		t.Error("New accepted an unknown level")
	}
	before := Log
	if err := InitWithFileConfig("loud", FileConfig{}, false); err == nil {
		t.Error("InitWithFileConfig accepted an unknown level")
	}
	if Log != before {
		t.Error("failed init replaced the global logger")
	}
}

func TestInitReplacesGlobal(t *testing.T) {
	restoreGlobal(t)

	path := filepath.Join(t.TempDir(), "tool.log")
	if err := InitWithFileConfig("warn", FileConfig{Path: path}, false); err != nil {
		t.Fatalf("InitWithFileConfig: %v", err)
	}
	if Log.Core().Enabled(zapcore.InfoLevel) || !Log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("global logger does not use the requested level")
	}

	Info("hidden")
	Warn("watch restarted")
	Sugar.Errorw("sugared", "count", 2)
	Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(text, "watch restarted") || !strings.Contains(text, "sugared") {
		t.Errorf("missing lines in %q", text)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	got := DefaultFileConfig("out/scenetool.log")
	want := FileConfig{
		Path:       "out/scenetool.log",
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
	if got != want {
		t.Errorf("DefaultFileConfig() = %+v, want %+v", got, want)
	}
}
