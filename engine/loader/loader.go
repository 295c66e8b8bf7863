// Package loader imports skinned assets (hierarchy, bind pose, mesh and animation tracks) from
// glTF 2.0 files and builds the procedural test rig.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
	"github.com/Carmen-Shannon/oxy-skin/engine/mesh"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrMalformedAsset wraps every failure to read or convert an asset.
var ErrMalformedAsset = errors.New("malformed asset")

// DefaultSampleInterval is the animation time between resampled keyframes.
const DefaultSampleInterval = 100 * time.Millisecond

// LoaderBackendType identifies the asset file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// Asset is everything needed to animate one skinned object. Assets are shared through the
// loader cache and must be treated as read-only; take a private copy of the mesh with NewMesh
// for every animated instance.
type Asset struct {
	// Name identifies the asset.
	Name string
	// Hierarchy is the joint parent table, parents before children.
	Hierarchy skeleton.Hierarchy
	// JointNames holds one name per joint.
	JointNames []string
	// LocalBindPose is the bind pose relative to each joint's parent.
	LocalBindPose skeleton.Pose
	// BindPose is the global bind pose the mesh was modeled in.
	BindPose skeleton.Pose
	// Tracks holds at least one track. Assets without animations carry a single-keyframe
	// track named "bind".
	Tracks []*animation.Track
	// SampleInterval is the animation time between keyframes of the tracks. Playing them back
	// at this interval reproduces the authored speed.
	SampleInterval time.Duration
	// Mesh is the skinned mesh, or nil for a skeleton-only asset.
	Mesh *mesh.SkinnedMesh
}

// Track returns the track with the given name, or nil.
func (a *Asset) Track(name string) *animation.Track {
	for _, t := range a.Tracks {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// NewMesh returns a private deep copy of the asset mesh, or nil for a skeleton-only asset.
func (a *Asset) NewMesh() *mesh.SkinnedMesh {
	if a.Mesh == nil {
		return nil
	}
	return a.Mesh.Clone()
}

// Translated returns a copy of the asset moved by offset: root joints of the bind pose and of every
// keyframe are shifted, and so are the mesh bind positions. Several instances of one asset can
// then stand side by side in a scene.
//
// Parameters:
//   - offset: the model-space translation
//
// Returns:
//   - *Asset: the moved copy
//   - error: an animation.ErrInvalidTrack wrap if a shifted track cannot be rebuilt
func (a *Asset) Translated(offset mgl32.Vec3) (*Asset, error) {
	shiftRoots := func(p skeleton.Pose) skeleton.Pose {
		out := p.Clone()
		for i := range out {
			if a.Hierarchy.Parent(i) == skeleton.NoParent {
				out[i].Position = out[i].Position.Add(offset)
			}
		}
		return out
	}

	moved := *a
	moved.LocalBindPose = shiftRoots(a.LocalBindPose)
	moved.BindPose = a.BindPose.Clone()
	for i := range moved.BindPose {
		moved.BindPose[i].Position = moved.BindPose[i].Position.Add(offset)
	}

	moved.Tracks = make([]*animation.Track, len(a.Tracks))
	for ti, t := range a.Tracks {
		keyframes := make([]skeleton.Pose, t.Len())
		for k := range keyframes {
			keyframes[k] = shiftRoots(t.Keyframe(k))
		}
		track, err := animation.NewTrack(t.Name(), a.Hierarchy, keyframes...)
		if err != nil {
			return nil, err
		}
		moved.Tracks[ti] = track
	}

	if a.Mesh != nil {
		moved.Mesh = a.Mesh.Clone()
		for i := range moved.Mesh.BindPositions {
			moved.Mesh.BindPositions[i] = moved.Mesh.BindPositions[i].Add(offset)
		}
		moved.Mesh.ResetToBind()
	}
	return &moved, nil
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache     map[string]*Asset
	sampleInterval time.Duration

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching skinned assets.
// It abstracts the file format behind a backend and keeps every loaded asset by key.
type Loader interface {
	// Load imports an asset file and caches the result by path.
	// If the asset is already cached, the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the asset file
	//
	// Returns:
	//   - *Asset: the loaded and cached asset
	//   - error: an ErrMalformedAsset wrap if loading fails
	Load(path string) (*Asset, error)

	// LoadReader imports an asset from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded asset
	//   - r: the reader providing asset data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: an ErrMalformedAsset wrap if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error)

	// Get retrieves a cached asset by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Asset: the cached asset or nil
	Get(name string) *Asset

	// Assets returns a copy of the asset cache.
	//
	// Returns:
	//   - map[string]*Asset: all cached assets keyed by name
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:             sync.RWMutex{},
		assetCache:     make(map[string]*Asset),
		sampleInterval: DefaultSampleInterval,
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.sampleInterval)
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	if a := l.Get(path); a != nil {
		return a, nil
	}

	if err := l.checkExtension(path); err != nil {
		return nil, err
	}

	a, err := l.backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedAsset, path, err)
	}
	return l.store(path, a), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error) {
	if a := l.Get(name); a != nil {
		return a, nil
	}
	if l.backend == nil {
		return nil, fmt.Errorf("%w: no loader backend", ErrMalformedAsset)
	}

	a, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedAsset, name, err)
	}
	return l.store(name, a), nil
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

// store caches a under key unless a concurrent load got there first, and returns the cached
// asset.
func (l *loader) store(key string, a *Asset) *Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.assetCache[key]; ok {
		return cached
	}
	l.assetCache[key] = a

	vertices := 0
	if a.Mesh != nil {
		vertices = a.Mesh.VertexCount()
	}
	log.Printf("[Loader] loaded %q as %q: %d joints, %d vertices, %d tracks", key, a.Name, a.Hierarchy.Len(), vertices, len(a.Tracks))
	return a
}

// checkExtension rejects paths the backend cannot read.
func (l *loader) checkExtension(path string) error {
	if l.backend == nil {
		return fmt.Errorf("%w: no loader backend", ErrMalformedAsset)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(l.backend.Extensions(), ext) {
		return fmt.Errorf("%w: unsupported asset format %q", ErrMalformedAsset, ext)
	}
	return nil
}
