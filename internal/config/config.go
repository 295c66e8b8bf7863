package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-skin/common"
)

// Run modes.
const (
	ModeSnapshot = "snapshot"
	ModeLive     = "live"
)

// Config holds the scene, output and render settings of the skinsnap CLI.
type Config struct {
	// Scene
	Asset              string `json:"asset"`
	ContinuousInterval int    `json:"continuous_interval_ms"`
	SteppedInterval    int    `json:"stepped_interval_ms"`
	Ground             bool   `json:"ground"`

	// Run
	Mode       string  `json:"mode"`
	Frames     int     `json:"frames"`
	FrameStep  int     `json:"frame_step_ms"`
	Duration   int     `json:"duration_s"`
	TickRate   float64 `json:"tick_rate"`
	Workers    int     `json:"workers"`
	OutputDir  string  `json:"output_dir"`
	Bones      bool    `json:"bones"`
	Normalized bool    `json:"normalized_weights"`

	// Render settings
	RenderSize  int     `json:"render_size"`
	Supersample int     `json:"supersample"`
	Yaw         float32 `json:"yaw"`
	Pitch       float32 `json:"pitch"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Asset     string
	Mode      string
	OutputDir string
	Frames    int
	Duration  int
	Workers   int
	Size      int
	Bones     bool
	Ground    bool
}

// Resolve applies CLI flags over the file values and fills what is still empty with defaults.
// Non-zero flags take priority.
//
// Parameters:
//   - flags: the parsed command line
//
// Returns:
//   - error: error if the resolved mode is unknown
func (c *Config) Resolve(flags Flags) error {
	c.Asset = common.Coalesce(flags.Asset, c.Asset)
	c.Mode = common.Coalesce(flags.Mode, c.Mode, ModeSnapshot)
	c.OutputDir = common.Coalesce(flags.OutputDir, c.OutputDir, "snapshots")
	c.Frames = common.Coalesce(flags.Frames, c.Frames, 16)
	c.Duration = common.Coalesce(flags.Duration, c.Duration, 5)
	c.Workers = common.Coalesce(flags.Workers, c.Workers, runtime.NumCPU())
	c.RenderSize = common.Coalesce(flags.Size, c.RenderSize, 256)
	c.Bones = c.Bones || flags.Bones
	c.Ground = c.Ground || flags.Ground

	// Defaults for the rest
	c.ContinuousInterval = common.Coalesce(c.ContinuousInterval, 1000)
	c.SteppedInterval = common.Coalesce(c.SteppedInterval, 200)
	c.FrameStep = common.Coalesce(c.FrameStep, 125)
	c.TickRate = common.Coalesce(c.TickRate, 60)
	c.Supersample = common.Coalesce(c.Supersample, 2)
	c.Yaw = common.Coalesce(c.Yaw, 60)
	c.Pitch = common.Coalesce(c.Pitch, 20)

	if c.Mode != ModeSnapshot && c.Mode != ModeLive {
		return fmt.Errorf("config: unknown mode %q, want %q or %q", c.Mode, ModeSnapshot, ModeLive)
	}
	return nil
}
