package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"asset": "fox.glb", "frames": 4, "stepped_interval_ms": 50, "yaw": 90, "ground": true}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Asset != "fox.glb" || cfg.Frames != 4 || cfg.SteppedInterval != 50 || cfg.Yaw != 90 || !cfg.Ground {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Mode != "" || cfg.RenderSize != 0 {
		t.Fatalf("unset fields should stay zero, got mode %q size %d", cfg.Mode, cfg.RenderSize)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file error = %v, want fs.ErrNotExist", err)
	}
	if _, err := Load(writeConfig(t, `{"frames": "many"}`)); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Resolve(Flags{}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := Config{
		Mode:               ModeSnapshot,
		OutputDir:          "snapshots",
		Frames:             16,
		Duration:           5,
		Workers:            runtime.NumCPU(),
		RenderSize:         256,
		ContinuousInterval: 1000,
		SteppedInterval:    200,
		FrameStep:          125,
		TickRate:           60,
		Supersample:        2,
		Yaw:                60,
		Pitch:              20,
	}
	if cfg != want {
		t.Fatalf("cfg = %+v\nwant  %+v", cfg, want)
	}
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"mode": "live", "frames": 4, "render_size": 128, "output_dir": "out", "bones": true}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Resolve(Flags{Frames: 9, OutputDir: "elsewhere", Ground: true}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Mode != ModeLive || cfg.Frames != 9 || cfg.RenderSize != 128 || cfg.OutputDir != "elsewhere" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.Bones || !cfg.Ground {
		t.Fatalf("bones = %v, ground = %v, want both enabled", cfg.Bones, cfg.Ground)
	}
}

func TestResolveUnknownMode(t *testing.T) {
	cfg := Config{Mode: "replay"}
	if err := cfg.Resolve(Flags{}); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}
