package loader

import "time"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithSampleInterval is an option builder that sets the animation time between the keyframes
// glTF animations are resampled to. Non-positive values keep DefaultSampleInterval.
//
// Parameters:
//   - d: the sample interval
//
// Returns:
//   - LoaderBuilderOption: a function that applies the sample interval option to a loader
func WithSampleInterval(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if d > 0 {
			l.sampleInterval = d
		}
	}
}

// WithAsset is an option builder that pre-populates the asset cache, e.g. with a procedural rig.
//
// Parameters:
//   - key: the cache key for the asset
//   - a: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, a *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[key] = a
	}
}
