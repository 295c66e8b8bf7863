package scene

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/animator"
	"github.com/Carmen-Shannon/oxy-skin/engine/clock"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

var errBroken = errors.New("broken")

// broken wraps a working animator but fails every tick.
type broken struct {
	animator.Animator
}

func (b broken) Name() string { return "broken" }

func (b broken) Tick() (animator.Frame, error) {
	return animator.Frame{Name: "broken"}, errBroken
}

// panicky wraps a working animator but panics on every tick.
type panicky struct {
	animator.Animator
}

func (p panicky) Name() string { return "panicky" }

func (p panicky) Tick() (animator.Frame, error) {
	panic("index out of range")
}

func newSwing(t *testing.T, name string, backend animation.PlaybackBackendType, src *clock.Manual, interval time.Duration) animator.Animator {
	t.Helper()
	h, err := skeleton.NewHierarchy(-1, 0)
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}
	bind := skeleton.Pose{skeleton.IdentityJoint(), skeleton.NewJoint(mgl32.Vec3{0, 0, 10}, mgl32.QuatIdent())}
	var keys []skeleton.Pose
	for k := 0; k < 3; k++ {
		key := bind.Clone()
		key[1].Orientation = mgl32.QuatRotate(float32(k)*math.Pi/4, mgl32.Vec3{0, 1, 0})
		keys = append(keys, key)
	}
	track, err := animation.NewTrack(name, h, keys...)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	m := &mesh.SkinnedMesh{}
	m.AddVertex(mgl32.Vec3{0, 0, 0}, mesh.Weights(mesh.Influence{Joint: 0, Weight: 1}))
	m.AddVertex(mgl32.Vec3{1, 0, 10}, mesh.Weights(mesh.Influence{Joint: 1, Weight: 1}))
	m.AddVertex(mgl32.Vec3{0, 0, 20}, mesh.Weights(mesh.Influence{Joint: 1, Weight: 1}))
	m.AddTriangle(0, 1, 2)

	a, err := animator.NewAnimator(backend,
		animator.WithName(name),
		animator.WithHierarchy(h),
		animator.WithLocalBindPose(bind),
		animator.WithTrack(track),
		animator.WithMesh(m),
		animator.WithInterval(interval),
		animator.WithClock(clock.NewClock(clock.WithNow(src.Now))),
	)
	if err != nil {
		t.Fatalf("NewAnimator: %v", err)
	}
	return a
}

func TestUpdateRunsEveryAnimatorInOrder(t *testing.T) {
	src := clock.NewManual(time.Unix(0, 0))
	names := []string{"a", "b", "c", "d", "e"}
	var animators []animator.Animator
	for i, n := range names {
		backend := animation.BackendTypeContinuous
		if i%2 == 1 {
			backend = animation.BackendTypeStepped
		}
		animators = append(animators, newSwing(t, n, backend, src, 200*time.Millisecond))
	}

	s, err := NewScene("test", WithAnimators(animators...), WithComputeWorkers(3), WithActive(true))
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	defer s.Release()

	if !s.Active() || s.Count() != len(names) || s.VertexCount() != 3*len(names) {
		t.Fatalf("scene state active=%v count=%d vertices=%d", s.Active(), s.Count(), s.VertexCount())
	}

	src.Advance(250 * time.Millisecond)
	frames, err := s.Update()
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(frames) != len(names) {
		t.Fatalf("len(frames) = %d, want %d", len(frames), len(names))
	}
	for i, f := range frames {
		if f.Name != names[i] {
			t.Fatalf("frame %d is %q, want %q", i, f.Name, names[i])
		}
		if f.Mesh == nil || len(f.Mesh.Normals) != 3 {
			t.Fatalf("frame %q mesh not fully skinned", f.Name)
		}
		// Continuous: 250ms is in segment 1. Stepped: one step was taken.
		if f.Cursor.Index != 1 {
			t.Fatalf("frame %q cursor = %+v, want index 1", f.Name, f.Cursor)
		}
	}
	if !s.Bounds().Valid {
		t.Fatalf("scene bounds should cover the meshes")
	}
}

func TestUpdateJoinsErrors(t *testing.T) {
	src := clock.NewManual(time.Unix(0, 0))
	good := newSwing(t, "good", animation.BackendTypeContinuous, src, time.Second)
	s, err := NewScene("errors", WithAnimators(good, broken{good}))
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	defer s.Release()

	frames, err := s.Update()
	if !errors.Is(err, errBroken) {
		t.Fatalf("error = %v, want errBroken", err)
	}
	if len(frames) != 2 || frames[0].Name != "good" || frames[0].Mesh == nil {
		t.Fatalf("healthy animator frame missing: %+v", frames)
	}
}

func TestUpdateRecoversAnimatorPanic(t *testing.T) {
	src := clock.NewManual(time.Unix(0, 0))
	good := newSwing(t, "good", animation.BackendTypeContinuous, src, time.Second)
	s, err := NewScene("panics", WithAnimators(good, panicky{good}), WithComputeWorkers(2))
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	defer s.Release()

	for range 2 {
		frames, err := s.Update()
		if !errors.Is(err, ErrAnimatorPanic) {
			t.Fatalf("error = %v, want ErrAnimatorPanic", err)
		}
		if len(frames) != 2 || frames[0].Name != "good" || frames[0].Mesh == nil {
			t.Fatalf("healthy animator frame missing: %+v", frames)
		}
	}
}

func TestAddRemoveLookup(t *testing.T) {
	src := clock.NewManual(time.Unix(0, 0))
	s, err := NewScene("lookup")
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	defer s.Release()

	a := newSwing(t, "a", animation.BackendTypeContinuous, src, time.Second)
	b := newSwing(t, "b", animation.BackendTypeContinuous, src, time.Second)
	for _, x := range []animator.Animator{a, b} {
		if err := s.Add(x); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := s.Add(a); !errors.Is(err, ErrDuplicateAnimator) {
		t.Fatalf("error = %v, want ErrDuplicateAnimator", err)
	}
	if s.Animator("b") != b {
		t.Fatalf("Animator(b) lookup failed")
	}

	s.Remove("a")
	s.Remove("missing")
	if got := s.Animators(); len(got) != 1 || got[0] != b {
		t.Fatalf("Animators after Remove = %v", got)
	}
	s.Clear()
	if s.Count() != 0 || s.Animator("b") != nil {
		t.Fatalf("Clear left animators behind")
	}

	if _, err := NewScene("dup", WithAnimators(a, a)); !errors.Is(err, ErrDuplicateAnimator) {
		t.Fatalf("error = %v, want ErrDuplicateAnimator", err)
	}
}
