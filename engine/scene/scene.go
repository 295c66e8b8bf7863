// Package scene groups animators and advances them together, fanning each frame's per-object
// passes out over a reusable worker pool.
package scene

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/animator"
)

// ErrDuplicateAnimator is returned by Add when an animator with the same name is already present.
var ErrDuplicateAnimator = errors.New("duplicate animator name")

// ErrAnimatorPanic wraps a panic raised by an animator's Tick on a worker.
var ErrAnimatorPanic = errors.New("animator panicked")

// Scene manages a named set of Animators and updates them once per frame.
// Different animators are updated in parallel; each animator's own pass is sequential, and Update
// only returns once every pass has finished. Scenes can be hot-swapped via the Active flag.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active.
	Active() bool

	// SetActive sets whether this scene is updated by the engine.
	SetActive(active bool)

	// Add registers an animator under its name.
	//
	// Parameters:
	//   - a: the animator to add
	//
	// Returns:
	//   - error: ErrDuplicateAnimator if the name is taken
	Add(a animator.Animator) error

	// Remove drops the animator with the given name. Unknown names are ignored.
	//
	// Parameters:
	//   - name: the animator name
	Remove(name string)

	// Animator looks an animator up by name.
	//
	// Parameters:
	//   - name: the animator name
	//
	// Returns:
	//   - animator.Animator: the animator, or nil if it is not in the scene
	Animator(name string) animator.Animator

	// Animators returns the animators in insertion order.
	//
	// Returns:
	//   - []animator.Animator: a copy of the animator list
	Animators() []animator.Animator

	// Count returns the number of animators.
	Count() int

	// VertexCount returns the number of skinned vertices updated per frame.
	//
	// Returns:
	//   - int: the sum over all animators
	VertexCount() int

	// Bounds returns the union of the bounds of every animator's current mesh.
	//
	// Returns:
	//   - common.Bounds: the scene bounds
	Bounds() common.Bounds

	// Update ticks every animator once. Frames come back in insertion order; an animator that
	// failed still has its slot, holding whatever its pass produced before the error.
	//
	// Returns:
	//   - []animator.Frame: one frame per animator
	//   - error: the joined per-animator errors, or nil
	Update() ([]animator.Frame, error)

	// Clear removes every animator.
	Clear()

	// Release stops the worker pool. The scene must not be updated afterwards.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	animators []animator.Animator
	byName    map[string]animator.Animator
	pending   []animator.Animator // WithAnimators, added once the scene is built

	// computePool manages a bounded set of reusable goroutines for the per-object frame passes.
	// Workers persist across frames, avoiding per-frame goroutine spawn/teardown overhead.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
//   - error: the first error from adding the WithAnimators animators
func NewScene(name string, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		byName:         make(map[string]animator.Animator),
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Queue size of 256 covers typical scene sizes with headroom.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	pending := s.pending
	s.pending = nil
	for _, a := range pending {
		if err := s.Add(a); err != nil {
			s.computePool.Stop()
			return nil, err
		}
	}
	return s, nil
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Add(a animator.Animator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[a.Name()]; ok {
		return fmt.Errorf("%w: %q in scene %q", ErrDuplicateAnimator, a.Name(), s.name)
	}
	s.byName[a.Name()] = a
	s.animators = append(s.animators, a)
	return nil
}

func (s *scene) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[name]
	if !ok {
		return
	}
	delete(s.byName, name)
	if i := slices.Index(s.animators, a); i >= 0 {
		s.animators = slices.Delete(s.animators, i, i+1)
	}
}

func (s *scene) Animator(name string) animator.Animator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName[name]
}

func (s *scene) Animators() []animator.Animator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.animators)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.animators)
}

func (s *scene) VertexCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, a := range s.animators {
		total += a.VertexCount()
	}
	return total
}

func (s *scene) Bounds() common.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b common.Bounds
	for _, a := range s.animators {
		if m := a.Mesh(); m != nil {
			b.Union(m.Bounds())
		}
	}
	return b
}

func (s *scene) Update() ([]animator.Frame, error) {
	s.mu.RLock()
	animators := slices.Clone(s.animators)
	s.mu.RUnlock()

	frames := make([]animator.Frame, len(animators))
	errs := make([]error, len(animators))

	// A WaitGroup provides the per-frame barrier: pool.Wait() is for draining the pool, not for
	// synchronizing a single frame's work.
	var wg sync.WaitGroup
	for i, a := range animators {
		wg.Add(1)
		s.computePool.SubmitTask(worker.Task{
			ID:      i,
			Payload: a,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[i] = fmt.Errorf("%w: %q: %v", ErrAnimatorPanic, a.Name(), r)
					}
				}()
				frames[i], errs[i] = a.Tick()
				return nil, errs[i]
			},
		})
	}
	wg.Wait()

	return frames, errors.Join(errs...)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animators = nil
	s.byName = make(map[string]animator.Animator)
}

func (s *scene) Release() {
	s.computePool.Stop()
}
