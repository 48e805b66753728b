package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/quickkeys/internal/config"
	"github.com/verte-zerg/quickkeys/internal/model"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	meta, err := toml.Decode(defaultConfigTemplate(), &cfg)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if len(meta.Undecoded()) != 0 {
		t.Fatalf("unexpected keys: %v", meta.Undecoded())
	}
	if cfg.Game.FlashMs != nil || cfg.Log.Level != nil {
		t.Fatalf("expected all values commented out, got %+v", cfg)
	}
}

func TestEnsureConfigFileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickkeys", "config.toml")
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := os.WriteFile(path, []byte("[game]\nflash-ms = 300\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "flash-ms = 300") {
		t.Fatalf("expected existing config untouched, got %q", data)
	}
}

func TestValidateFlashMs(t *testing.T) {
	for _, ms := range []int{1, defaultFlashMs, maxFlashMs} {
		if err := validateFlashMs(ms); err != nil {
			t.Fatalf("validateFlashMs(%d): %v", ms, err)
		}
	}
	for _, ms := range []int{0, -5, maxFlashMs + 1} {
		if err := validateFlashMs(ms); err == nil {
			t.Fatalf("expected error for %d", ms)
		}
	}
}

func TestBuildStatsConfig(t *testing.T) {
	cfg, err := buildStatsConfig("2026-10-01", 3, 5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Since == nil || cfg.Since.Day() != 1 || cfg.Last != 3 || cfg.Window != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := buildStatsConfig("10/01/2026", 0, 5); err == nil {
		t.Fatalf("expected invalid --since error")
	}
	if _, err := buildStatsConfig("", -1, 5); err == nil {
		t.Fatalf("expected invalid --last error")
	}
	if _, err := buildStatsConfig("", 0, 0); err == nil {
		t.Fatalf("expected invalid --window error")
	}
}

func TestWriteScoresPlain(t *testing.T) {
	var buf bytes.Buffer
	entries := []model.ScoreEntry{{ID: "a", Score: 6.4, Date: "2026-10-18"}}
	if err := writeScores(&buf, entries, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "#  Date       Score\n1. 2026-10-18 6.40s\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", buf.String(), want)
	}

	buf.Reset()
	if err := writeScores(&buf, nil, true); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if buf.String() != "No scores yet.\n" {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}

func TestIsTerminalRejectsBuffers(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Fatalf("buffer is not a terminal")
	}
}

// blockedPath returns a path whose parent is a regular file, so nothing can
// be created beneath it.
func blockedPath(t *testing.T, name string) string {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	return filepath.Join(blocker, name)
}

func TestOpenGameStorageFallsBackToMemory(t *testing.T) {
	var logs bytes.Buffer
	storage := openGameStorage(blockedPath(t, "quickkeys.db"), false, zerolog.New(&logs))
	defer storage.close()

	if storage.persistent || storage.history != nil {
		t.Fatalf("expected in-memory storage without history, got %+v", storage)
	}
	ctx := context.Background()
	if err := storage.slots.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("memory set: %v", err)
	}
	if got, ok, err := storage.slots.Get(ctx, "k"); err != nil || !ok || string(got) != "v" {
		t.Fatalf("memory get: %q ok=%v err=%v", got, ok, err)
	}
	if !strings.Contains(logs.String(), "failed to open db") {
		t.Fatalf("expected a warning, got %q", logs.String())
	}
}

func TestOpenGameStorageUsesDatabase(t *testing.T) {
	storage := openGameStorage(filepath.Join(t.TempDir(), "quickkeys.db"), false, zerolog.Nop())
	defer storage.close()
	if !storage.persistent || storage.history == nil {
		t.Fatalf("expected database storage, got %+v", storage)
	}
}

func TestOpenGameStorageNoSave(t *testing.T) {
	storage := openGameStorage(filepath.Join(t.TempDir(), "quickkeys.db"), true, zerolog.Nop())
	defer storage.close()
	if storage.persistent || storage.history != nil {
		t.Fatalf("expected memory storage for --no-save, got %+v", storage)
	}
}

func TestOpenGameLoggerFallsBack(t *testing.T) {
	var console bytes.Buffer
	logger, closeLog, err := openGameLogger(blockedPath(t, "quickkeys.log"), "info", zerolog.New(&console))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer closeLog()
	logger.Info().Msg("dropped")
	if !strings.Contains(console.String(), "logging disabled") {
		t.Fatalf("expected a console warning, got %q", console.String())
	}

	if _, _, err := openGameLogger(filepath.Join(t.TempDir(), "q.log"), "loud", zerolog.Nop()); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestOpenGameLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "quickkeys.log")
	logger, closeLog, err := openGameLogger(path, "info", zerolog.Nop())
	if err != nil {
		t.Fatalf("open logger: %v", err)
	}
	logger.Info().Msg("hello")
	closeLog()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("expected log line, got %q", data)
	}
}
