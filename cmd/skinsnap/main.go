package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine"
	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/animator"
	"github.com/Carmen-Shannon/oxy-skin/engine/clock"
	"github.com/Carmen-Shannon/oxy-skin/engine/loader"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/raster"
	"github.com/Carmen-Shannon/oxy-skin/engine/scene"
	"github.com/Carmen-Shannon/oxy-skin/engine/skinning"
	"github.com/Carmen-Shannon/oxy-skin/internal/config"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	asset := flag.String("asset", "", "glTF/GLB file for the second object (default: a second cylinder)")
	mode := flag.String("mode", "", "Run mode: snapshot or live (default: snapshot)")
	outputDir := flag.String("output", "", "Snapshot directory (default: snapshots)")
	frames := flag.Int("frames", 0, "Number of snapshots (default: 16)")
	duration := flag.Int("duration", 0, "Live run length in seconds (default: 5)")
	workers := flag.Int("workers", 0, "Scene compute workers (default: NumCPU)")
	size := flag.Int("size", 0, "Snapshot edge in pixels (default: 256)")
	bones := flag.Bool("bones", false, "Draw bone segments over the meshes")
	ground := flag.Bool("ground", false, "Draw a ground plane under the scene")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	if err := cfg.Resolve(config.Flags{
		Asset:     *asset,
		Mode:      *mode,
		OutputDir: *outputDir,
		Frames:    *frames,
		Duration:  *duration,
		Workers:   *workers,
		Size:      *size,
		Bones:     *bones,
		Ground:    *ground,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Snapshots run on simulated time so every image lands on an exact animation time.
	var manual *clock.Manual
	if cfg.Mode == config.ModeSnapshot {
		manual = clock.NewManual(time.Unix(0, 0))
	}

	sc, err := buildScene(cfg, manual)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scene: %v\n", err)
		os.Exit(1)
	}
	defer sc.Release()

	start := time.Now()
	switch cfg.Mode {
	case config.ModeSnapshot:
		err = runSnapshots(cfg, sc, manual)
	case config.ModeLive:
		err = runLive(cfg, sc)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Done in %v\n", time.Since(start).Round(time.Millisecond))
}

// buildScene creates the procedural cylinder on continuous playback and a second object on
// stepped playback next to it: the glTF asset from the config, or another cylinder.
func buildScene(cfg config.Config, manual *clock.Manual) (scene.Scene, error) {
	cylinder, err := loader.CylinderAsset(loader.CylinderRadius, loader.CylinderLength, loader.CylinderSegments, loader.CylinderRings)
	if err != nil {
		return nil, err
	}
	ldr := loader.NewLoader(loader.BackendTypeGLTF, loader.WithAsset("cylinder", cylinder))

	second := cylinder
	if cfg.Asset != "" {
		if second, err = ldr.Load(cfg.Asset); err != nil {
			return nil, err
		}
	}
	if second, err = second.Translated(besideOffset(cylinder, second)); err != nil {
		return nil, err
	}

	first, err := newAnimator(cfg, manual, "cylinder", ldr.Get("cylinder"), animation.BackendTypeContinuous, cfg.ContinuousInterval)
	if err != nil {
		return nil, err
	}
	stepped, err := newAnimator(cfg, manual, second.Name+"_stepped", second, animation.BackendTypeStepped, cfg.SteppedInterval)
	if err != nil {
		return nil, err
	}

	return scene.NewScene("skinsnap",
		scene.WithActive(true),
		scene.WithComputeWorkers(cfg.Workers),
		scene.WithAnimators(first, stepped),
	)
}

func newAnimator(cfg config.Config, manual *clock.Manual, name string, a *loader.Asset, backend animation.PlaybackBackendType, intervalMS int) (animator.Animator, error) {
	weightMode := skinning.WeightModeRaw
	if cfg.Normalized {
		weightMode = skinning.WeightModeNormalized
	}

	options := []animator.AnimatorBuilderOption{
		animator.WithName(name),
		animator.WithHierarchy(a.Hierarchy),
		animator.WithBindPose(a.BindPose),
		animator.WithTrack(a.Tracks[0]),
		animator.WithMesh(a.NewMesh()),
		animator.WithInterval(time.Duration(intervalMS) * time.Millisecond),
		animator.WithWeightMode(weightMode),
		animator.WithBones(cfg.Bones),
	}
	if manual != nil {
		options = append(options, animator.WithClock(clock.NewClock(clock.WithNow(manual.Now))))
	}
	return animator.NewAnimator(backend, options...)
}

// besideOffset moves b so its mesh sits to the +X side of a's mesh with a small gap.
func besideOffset(a, b *loader.Asset) mgl32.Vec3 {
	if a.Mesh == nil || b.Mesh == nil {
		return mgl32.Vec3{}
	}
	ab, bb := a.Mesh.Bounds(), b.Mesh.Bounds()
	ac, bc := mgl32.Vec3(ab.Center()), mgl32.Vec3(bb.Center())
	gap := (ab.Radius() + bb.Radius()) * 1.1
	return ac.Sub(bc).Add(mgl32.Vec3{gap, 0, 0})
}

func runSnapshots(cfg config.Config, sc scene.Scene, manual *clock.Manual) error {
	r := raster.NewRenderer(
		raster.WithSize(cfg.RenderSize),
		raster.WithSupersample(cfg.Supersample),
		raster.WithOrbit(cfg.Yaw, cfg.Pitch),
	)

	var static []*mesh.Mesh
	if cfg.Ground {
		b := sc.Bounds()
		c := b.Center()
		g := loader.BuildGround(b.Radius()*1.2, b.Min[1]-0.05*b.Radius())
		for i := range g.Positions {
			g.Positions[i] = g.Positions[i].Add(mgl32.Vec3{c[0], 0, c[2]})
		}
		static = append(static, g)
	}

	step := time.Duration(cfg.FrameStep) * time.Millisecond
	n := 0
	eng := engine.NewEngine(
		engine.WithScene(0, sc),
		engine.WithFrameCallback(func(_ int, frames []animator.Frame) error {
			path := filepath.Join(cfg.OutputDir, fmt.Sprintf("frame_%03d.webp", n))
			if err := raster.WriteWebP(path, r.RenderFrames(frames, static...)); err != nil {
				return err
			}
			for _, f := range frames {
				log.Printf("[Snapshot] %s: %s keyframe %d (%.2f)", path, f.Name, f.Cursor.Index, f.Cursor.Fraction)
			}
			n++
			return nil
		}),
	)

	fmt.Printf("Snapshots: %d every %v, %dpx\n", cfg.Frames, step, cfg.RenderSize)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	for i := 0; i < cfg.Frames; i++ {
		if err := eng.Step(float32(step.Seconds())); err != nil {
			return err
		}
		manual.Advance(step)
	}
	return nil
}

func runLive(cfg config.Config, sc scene.Scene) error {
	report := max(int(cfg.TickRate), 1)
	eng := engine.NewEngine(
		engine.WithProfiling(true),
		engine.WithTickRate(cfg.TickRate),
		engine.WithScene(0, sc),
	)
	frame := 0
	eng.SetFrameCallback(func(_ int, frames []animator.Frame) error {
		frame++
		if frame%report != 0 {
			return nil
		}
		for _, f := range frames {
			log.Printf("[Live] %s keyframe %d (%.2f) terminal=%v", f.Name, f.Cursor.Index, f.Cursor.Fraction, f.Cursor.Terminal)
		}
		return nil
	})

	fmt.Printf("Live: %d objects, %d vertices, %.0f fps for %ds\n", sc.Count(), sc.VertexCount(), cfg.TickRate, cfg.Duration)
	stop := time.AfterFunc(time.Duration(cfg.Duration)*time.Second, eng.Quit)
	defer stop.Stop()
	return eng.Run()
}
