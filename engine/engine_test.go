package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/animator"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/scene"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

func newScene(t *testing.T, name string, active bool) scene.Scene {
	t.Helper()
	h, err := skeleton.NewHierarchy(-1, 0)
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}
	bind := skeleton.Pose{skeleton.IdentityJoint(), skeleton.NewJoint(mgl32.Vec3{0, 5, 0}, mgl32.QuatIdent())}
	bent := bind.Clone()
	bent[1].Orientation = mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1})
	track, err := animation.NewTrack(name, h, bind, bent)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	m := &mesh.SkinnedMesh{}
	m.AddVertex(mgl32.Vec3{0, 0, 0}, mesh.Weights(mesh.Influence{Joint: 0, Weight: 1}))
	m.AddVertex(mgl32.Vec3{1, 5, 0}, mesh.Weights(mesh.Influence{Joint: 1, Weight: 1}))
	m.AddVertex(mgl32.Vec3{0, 10, 1}, mesh.Weights(mesh.Influence{Joint: 1, Weight: 1}))
	m.AddTriangle(0, 1, 2)

	a, err := animator.NewAnimator(animation.BackendTypeContinuous,
		animator.WithName(name),
		animator.WithHierarchy(h),
		animator.WithBindPose(bind),
		animator.WithTrack(track),
		animator.WithMesh(m),
		animator.WithInterval(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewAnimator: %v", err)
	}
	s, err := scene.NewScene(name, scene.WithAnimators(a), scene.WithActive(active), scene.WithComputeWorkers(1))
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	t.Cleanup(s.Release)
	return s
}

func TestRunStopsAtFrameLimit(t *testing.T) {
	var keys []int
	e := NewEngine(
		WithTickRate(1000),
		WithFrameLimit(3),
		WithScene(5, newScene(t, "front", true)),
		WithScene(1, newScene(t, "back", true)),
		WithScene(3, newScene(t, "hidden", false)),
		WithFrameCallback(func(key int, frames []animator.Frame) error {
			if len(frames) != 1 || frames[0].Mesh == nil {
				t.Errorf("scene %d frames = %+v", key, frames)
			}
			keys = append(keys, key)
			return nil
		}),
	)

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.FrameCount() != 3 {
		t.Fatalf("FrameCount = %d, want 3", e.FrameCount())
	}
	want := []int{1, 5, 1, 5, 1, 5}
	if len(keys) != len(want) {
		t.Fatalf("callback keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("callback keys = %v, want %v", keys, want)
		}
	}
}

func TestRunReturnsCallbackError(t *testing.T) {
	errSink := errors.New("sink full")
	e := NewEngine(WithTickRate(1000), WithScene(0, newScene(t, "only", true)))
	e.SetFrameCallback(func(int, []animator.Frame) error { return errSink })

	if err := e.Run(); !errors.Is(err, errSink) {
		t.Fatalf("Run error = %v, want errSink", err)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	e := NewEngine(WithTickRate(1000), WithScene(0, newScene(t, "only", true)))
	e.SetTickCallback(func(float32) { panic("boom") })

	if err := e.Run(); !errors.Is(err, ErrEnginePanic) {
		t.Fatalf("Run error = %v, want ErrEnginePanic", err)
	}
}

func TestQuitStopsRun(t *testing.T) {
	e := NewEngine(WithTickRate(1000))
	e.SetTickCallback(func(float32) {
		if e.FrameCount() >= 2 {
			e.Quit()
		}
	})
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	e.Quit()
}

func TestStepAndSceneRegistry(t *testing.T) {
	e := NewEngine()
	s := newScene(t, "only", true)
	e.AddScene(2, s)
	if e.Scene(2) != s || len(e.Scenes()) != 1 {
		t.Fatalf("scene registry mismatch")
	}
	calls := 0
	e.SetFrameCallback(func(int, []animator.Frame) error { calls++; return nil })
	if err := e.Step(0.016); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if calls != 1 || e.FrameCount() != 1 {
		t.Fatalf("calls = %d, frames = %d", calls, e.FrameCount())
	}
	e.RemoveScene(2)
	if e.Scene(2) != nil {
		t.Fatalf("RemoveScene left the scene registered")
	}
}
