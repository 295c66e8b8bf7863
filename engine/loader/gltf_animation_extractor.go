package loader

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfChannel is one decoded animation channel targeting a joint.
type gltfChannel struct {
	joint  int
	path   string
	interp string
	times  []float32
	values []float32
	comps  int
}

// gltfAnimationExtractorImpl is the implementation of gltfAnimationExtractor.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor converts glTF animations into uniformly sampled tracks.
// This is internal to the loader package.
type gltfAnimationExtractor interface {
	// ExtractTracks resamples every animation that drives at least one joint of sk.
	// Keyframe k holds the pose at k * interval seconds of animation time, the last keyframe
	// sits exactly on the animation end. Joints and paths without a channel keep their local
	// bind values. Scale and morph weight channels are ignored.
	//
	// Parameters:
	//   - sk: the skeleton the tracks are built for
	//   - interval: the animation time between consecutive keyframes
	//
	// Returns:
	//   - []*animation.Track: one track per relevant animation, in document order
	//   - error: error if a sampler cannot be read
	ExtractTracks(sk *gltfSkeleton, interval time.Duration) ([]*animation.Track, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates an animation extractor bound to a parser.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractTracks(sk *gltfSkeleton, interval time.Duration) ([]*animation.Track, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sample interval %v must be positive", interval)
	}

	var tracks []*animation.Track
	for animIdx := range doc.Animations {
		anim := &doc.Animations[animIdx]
		name := anim.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", animIdx)
		}

		channels, duration, err := e.readChannels(anim, sk)
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", name, err)
		}
		if len(channels) == 0 {
			continue
		}

		step := float32(interval.Seconds())
		count := int(math.Ceil(float64(duration/step)-1e-4)) + 1
		keyframes := make([]skeleton.Pose, count)
		for k := range keyframes {
			keyframes[k] = sk.foldRoots(samplePose(sk.nodeLocal, channels, min(float32(k)*step, duration)))
		}

		track, err := animation.NewTrack(name, sk.hierarchy, keyframes...)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// readChannels decodes the channels of anim that target joints of sk and returns them with
// the latest keyframe time.
func (e *gltfAnimationExtractorImpl) readChannels(anim *gltfAnimation, sk *gltfSkeleton) ([]gltfChannel, float32, error) {
	var (
		channels []gltfChannel
		duration float32
	)

	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil {
			continue
		}
		joint, ok := sk.nodeToJoint[*ch.Target.Node]
		if !ok {
			continue
		}

		var outType string
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			outType = gltfAccessorTypeVec3
		case gltfAnimPathRotation:
			outType = gltfAccessorTypeVec4
		default:
			continue
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, 0, fmt.Errorf("channel %d: invalid sampler index %d", i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, _, err := e.parser.ReadFloats(sampler.Input, gltfAccessorTypeScalar)
		if err != nil {
			return nil, 0, fmt.Errorf("channel %d: failed to read timestamps: %w", i, err)
		}
		values, comps, err := e.parser.ReadFloats(sampler.Output, outType)
		if err != nil {
			return nil, 0, fmt.Errorf("channel %d: failed to read values: %w", i, err)
		}

		interp := sampler.Interpolation
		if interp == "" {
			interp = gltfInterpolationLinear
		}
		perKey := comps
		if interp == gltfInterpolationCubicSpline {
			perKey = comps * 3
		}
		if len(times) == 0 || len(values) < len(times)*perKey {
			return nil, 0, fmt.Errorf("channel %d: %d keys but %d output values", i, len(times), len(values))
		}

		duration = max(duration, times[len(times)-1])
		channels = append(channels, gltfChannel{
			joint:  joint,
			path:   ch.Target.Path,
			interp: interp,
			times:  times,
			values: values,
			comps:  comps,
		})
	}
	return channels, duration, nil
}

// samplePose evaluates every channel at time t on top of a copy of the local bind pose.
func samplePose(bind skeleton.Pose, channels []gltfChannel, t float32) skeleton.Pose {
	pose := bind.Clone()
	for i := range channels {
		ch := &channels[i]
		v := ch.sample(t)
		switch ch.path {
		case gltfAnimPathTranslation:
			pose[ch.joint].Position = mgl32.Vec3{v[0], v[1], v[2]}
		case gltfAnimPathRotation:
			pose[ch.joint].Orientation = gltfQuat([4]float32{v[0], v[1], v[2], v[3]})
		}
	}
	return pose
}

// key returns the value of keyframe k. Cubic spline outputs store in-tangent, value and
// out-tangent per key; part selects which (0, 1 or 2) and is ignored otherwise.
func (ch *gltfChannel) key(k, part int) []float32 {
	if ch.interp == gltfInterpolationCubicSpline {
		off := (k*3 + part) * ch.comps
		return ch.values[off : off+ch.comps]
	}
	return ch.values[k*ch.comps : (k+1)*ch.comps]
}

// sample evaluates the channel at time t, clamping outside the keyed range.
func (ch *gltfChannel) sample(t float32) []float32 {
	n := len(ch.times)
	k := sort.Search(n, func(i int) bool { return ch.times[i] > t }) - 1
	switch {
	case k < 0:
		return ch.key(0, 1)
	case k >= n-1:
		return ch.key(n-1, 1)
	}

	t0, t1 := ch.times[k], ch.times[k+1]
	dt := t1 - t0
	if dt <= 0 || ch.interp == gltfInterpolationStep {
		return ch.key(k, 1)
	}
	u := (t - t0) / dt

	out := make([]float32, ch.comps)
	switch ch.interp {
	case gltfInterpolationCubicSpline:
		p0, m0 := ch.key(k, 1), ch.key(k, 2)
		p1, m1 := ch.key(k+1, 1), ch.key(k+1, 0)
		u2, u3 := u*u, u*u*u
		h00 := 2*u3 - 3*u2 + 1
		h10 := u3 - 2*u2 + u
		h01 := -2*u3 + 3*u2
		h11 := u3 - u2
		for c := range out {
			out[c] = h00*p0[c] + h10*dt*m0[c] + h01*p1[c] + h11*dt*m1[c]
		}
	default:
		a, b := ch.key(k, 1), ch.key(k+1, 1)
		if ch.path == gltfAnimPathRotation {
			q := skeleton.Slerp(gltfQuat([4]float32(a)), gltfQuat([4]float32(b)), u)
			return []float32{q.V[0], q.V[1], q.V[2], q.W}
		}
		for c := range out {
			out[c] = a[c] + (b[c]-a[c])*u
		}
	}
	return out
}
