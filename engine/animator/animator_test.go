package animator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/clock"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

type rig struct {
	hierarchy skeleton.Hierarchy
	local     skeleton.Pose
	track     *animation.Track
	mesh      *mesh.SkinnedMesh
}

// bendRig is a three-joint chain along Z with a four-keyframe bend of joint 1 about X and a
// short strip of vertices blended linearly between joints 0 and 1.
func bendRig(t *testing.T) rig {
	t.Helper()
	h, err := skeleton.NewHierarchy(-1, 0, 1)
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}
	local := skeleton.Pose{
		skeleton.IdentityJoint(),
		skeleton.NewJoint(mgl32.Vec3{0, 0, 25}, mgl32.QuatIdent()),
		skeleton.NewJoint(mgl32.Vec3{0, 0, 25}, mgl32.QuatIdent()),
	}
	var keys []skeleton.Pose
	for k := 0; k < 4; k++ {
		key := local.Clone()
		key[1].Orientation = mgl32.QuatRotate(float32(k)*math.Pi/6, mgl32.Vec3{1, 0, 0})
		keys = append(keys, key)
	}
	track, err := animation.NewTrack("bend", h, keys...)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}

	m := &mesh.SkinnedMesh{}
	for i := 0; i < 5; i++ {
		s := float32(i) / 4
		w := mesh.Weights(mesh.Influence{Joint: 0, Weight: 1 - s}, mesh.Influence{Joint: 1, Weight: s})
		m.AddVertex(mgl32.Vec3{1, 0, 50 * s}, w)
		m.AddVertex(mgl32.Vec3{-1, 0, 50 * s}, w)
	}
	for i := 0; i < 4; i++ {
		a := uint32(2 * i)
		m.AddTriangle(a, a+1, a+3)
		m.AddTriangle(a, a+3, a+2)
	}
	return rig{hierarchy: h, local: local, track: track, mesh: m}
}

func newBendAnimator(t *testing.T, backend animation.PlaybackBackendType, src *clock.Manual, options ...AnimatorBuilderOption) (Animator, rig) {
	t.Helper()
	r := bendRig(t)
	opts := append([]AnimatorBuilderOption{
		WithName("cylinder"),
		WithHierarchy(r.hierarchy),
		WithLocalBindPose(r.local),
		WithTrack(r.track),
		WithMesh(r.mesh),
		WithClock(clock.NewClock(clock.WithNow(src.Now))),
	}, options...)
	a, err := NewAnimator(backend, opts...)
	if err != nil {
		t.Fatalf("NewAnimator: %v", err)
	}
	return a, r
}

func TestUpdateAtZeroMatchesBind(t *testing.T) {
	a, r := newBendAnimator(t, animation.BackendTypeContinuous, clock.NewManual(time.Unix(0, 0)))
	frame, err := a.Update(0)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	for i, m := range frame.Matrices {
		if !m.ApproxEqual(skeleton.IdentityJoint(), eps) {
			t.Fatalf("matrix %d = %+v, want identity at bind", i, m)
		}
	}
	for i, p := range frame.Mesh.Positions {
		if p.Sub(r.mesh.BindPositions[i]).Len() > eps {
			t.Fatalf("vertex %d = %v, want bind %v", i, p, r.mesh.BindPositions[i])
		}
	}
	if a.VertexCount() != 10 {
		t.Fatalf("VertexCount = %d, want 10", a.VertexCount())
	}
}

func TestUpdateTerminalHoldsLastKeyframe(t *testing.T) {
	a, r := newBendAnimator(t, animation.BackendTypeContinuous, clock.NewManual(time.Unix(0, 0)))
	frame, err := a.Update(3500 * time.Millisecond)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !frame.Cursor.Terminal || frame.Cursor.Index != 3 {
		t.Fatalf("cursor = %+v, want terminal index 3", frame.Cursor)
	}
	last := r.track.Keyframe(3)
	for j := range last {
		if frame.Local[j] != last[j] {
			t.Fatalf("local joint %d = %+v, want keyframe 3 exactly", j, frame.Local[j])
		}
	}
}

func TestUpdateTiltsTipVertices(t *testing.T) {
	a, _ := newBendAnimator(t, animation.BackendTypeContinuous, clock.NewManual(time.Unix(0, 0)))
	frame, err := a.Update(time.Second)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Keyframe 1 bends joint 1 by 30 degrees; the tip vertex is fully bound to joint 1.
	s, c := float32(math.Sin(math.Pi/6)), float32(math.Cos(math.Pi/6))
	want := mgl32.Vec3{1, -25 * s, 25 + 25*c}
	if got := frame.Mesh.Positions[8]; got.Sub(want).Len() > eps {
		t.Fatalf("tip vertex = %v, want %v", got, want)
	}
	if got := frame.Global[2].Position; got.Sub(mgl32.Vec3{0, -25 * s, 25 + 25*c}).Len() > eps {
		t.Fatalf("joint 2 = %v", got)
	}
}

func TestTickRewindsClockOnLoop(t *testing.T) {
	src := clock.NewManual(time.Unix(0, 0))
	a, _ := newBendAnimator(t, animation.BackendTypeContinuous, src)

	src.Advance(4200 * time.Millisecond)
	frame, err := a.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if frame.Cursor.Index != 0 || math.Abs(float64(frame.Cursor.Fraction)-0.2) > eps {
		t.Fatalf("cursor = %+v, want index 0 fraction 0.2", frame.Cursor)
	}
	if got := a.Clock().Elapsed(); got != 200*time.Millisecond {
		t.Fatalf("clock after loop = %v, want 200ms", got)
	}
}

func TestSteppedTickAdvancesOneFrame(t *testing.T) {
	src := clock.NewManual(time.Unix(0, 0))
	a, _ := newBendAnimator(t, animation.BackendTypeStepped, src, WithInterval(200*time.Millisecond), WithBones(true))

	src.Advance(250 * time.Millisecond)
	frame, err := a.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if frame.Cursor.Index != 1 || frame.Cursor.Fraction != 0 {
		t.Fatalf("cursor = %+v, want index 1 fraction 0", frame.Cursor)
	}
	if got := a.Clock().Elapsed(); got != 0 {
		t.Fatalf("clock after step = %v, want 0", got)
	}
	if len(frame.Bones) != 2 {
		t.Fatalf("bones = %d, want 2", len(frame.Bones))
	}

	a.Reset()
	frame, err = a.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if frame.Cursor.Index != 0 {
		t.Fatalf("after Reset cursor = %+v, want index 0", frame.Cursor)
	}
}

func TestNewAnimatorValidation(t *testing.T) {
	r := bendRig(t)
	if _, err := NewAnimator(animation.BackendTypeContinuous, WithHierarchy(r.hierarchy), WithTrack(r.track)); !errors.Is(err, ErrMissingBindPose) {
		t.Fatalf("error = %v, want ErrMissingBindPose", err)
	}
	if _, err := NewAnimator(animation.BackendTypeContinuous, WithTrack(r.track), WithLocalBindPose(r.local)); !errors.Is(err, skeleton.ErrInvalidHierarchy) {
		t.Fatalf("error = %v, want ErrInvalidHierarchy", err)
	}
	if _, err := NewAnimator(animation.BackendTypeContinuous, WithHierarchy(r.hierarchy), WithLocalBindPose(r.local)); !errors.Is(err, animation.ErrInvalidTrack) {
		t.Fatalf("error = %v, want ErrInvalidTrack", err)
	}

	two, err := skeleton.NewHierarchy(-1, 0)
	if err != nil {
		t.Fatalf("NewHierarchy: %v", err)
	}
	if _, err := NewAnimator(animation.BackendTypeContinuous, WithHierarchy(two), WithTrack(r.track), WithLocalBindPose(r.local[:2])); !errors.Is(err, animation.ErrInvalidTrack) {
		t.Fatalf("error = %v, want ErrInvalidTrack for a track over a different hierarchy", err)
	}

	r.mesh.Weights[0][1] = mesh.Influence{Joint: 7, Weight: 0.5}
	if _, err := NewAnimator(animation.BackendTypeContinuous, WithHierarchy(r.hierarchy), WithTrack(r.track), WithLocalBindPose(r.local), WithMesh(r.mesh)); !errors.Is(err, mesh.ErrInvalidMesh) {
		t.Fatalf("error = %v, want ErrInvalidMesh", err)
	}
}

func TestSkeletonOnlyAnimator(t *testing.T) {
	r := bendRig(t)
	a, err := NewAnimator(animation.BackendTypeContinuous,
		WithHierarchy(r.hierarchy),
		WithLocalBindPose(r.local),
		WithTrack(r.track),
	)
	if err != nil {
		t.Fatalf("NewAnimator: %v", err)
	}
	frame, err := a.Update(500 * time.Millisecond)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if frame.Mesh != nil || len(frame.Matrices) != 3 {
		t.Fatalf("frame = %+v, want matrices without a mesh", frame)
	}
}
