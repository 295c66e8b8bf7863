package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/animation"
)

// bindTrackName names the single-keyframe track added to assets without animations.
const bindTrackName = "bind"

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	sampleInterval time.Duration
}

// gltfImporter orchestrates a full glTF/GLB import: it runs the parser and the skeleton,
// mesh and animation extractors and assembles the Asset.
type gltfImporter interface {
	// Import loads a glTF/GLB file.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if import fails
	Import(path string) (*Asset, error)

	// ImportReader loads a glTF document from a reader.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: error if import fails
	ImportReader(r io.Reader, isGLB bool) (*Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - sampleInterval: the animation time between resampled keyframes
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(sampleInterval time.Duration) gltfImporter {
	return &gltfImporterImpl{sampleInterval: sampleInterval}
}

func (imp *gltfImporterImpl) Import(path string) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, err
	}
	return imp.importFromParser(parser, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool) (*Asset, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, err
	}
	return imp.importFromParser(parser, "")
}

// importFromParser extracts the asset from a parsed document. The skin used is the one bound
// to the first skinned mesh node, falling back to skin 0 with mesh 0.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - fallbackName: the asset name when the document's scene has none
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (*Asset, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}
	if len(doc.Skins) == 0 {
		return nil, fmt.Errorf("document has no skin")
	}

	skeletonExtractor := newGLTFSkeletonExtractor(parser)
	meshIndex, skinIndex := skeletonExtractor.FindSkinnedMesh()
	if skinIndex < 0 {
		skinIndex = 0
		if len(doc.Meshes) > 0 {
			meshIndex = 0
		}
	}

	sk, err := skeletonExtractor.ExtractSkeleton(skinIndex)
	if err != nil {
		return nil, fmt.Errorf("skeleton extraction failed: %w", err)
	}

	asset := &Asset{
		Name:           gltfAssetName(doc, fallbackName),
		Hierarchy:      sk.hierarchy,
		JointNames:     sk.names,
		LocalBindPose:  sk.local,
		BindPose:       sk.global,
		SampleInterval: imp.sampleInterval,
	}

	if meshIndex >= 0 {
		asset.Mesh, err = newGLTFMeshExtractor(parser).ExtractMesh(meshIndex, sk)
		if err != nil {
			return nil, fmt.Errorf("mesh extraction failed: %w", err)
		}
		if err := asset.Mesh.Validate(sk.hierarchy.Len()); err != nil {
			return nil, err
		}
	}

	asset.Tracks, err = newGLTFAnimationExtractor(parser).ExtractTracks(sk, imp.sampleInterval)
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}
	if len(asset.Tracks) == 0 {
		bind, err := animation.NewTrack(bindTrackName, sk.hierarchy, sk.local)
		if err != nil {
			return nil, err
		}
		asset.Tracks = []*animation.Track{bind}
	}

	return asset, nil
}

// --- Helper Functions ---

// gltfAssetName prefers the default scene's name, then the fallback.
func gltfAssetName(doc *gltfDocument, fallback string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallback != "" {
		return fallback
	}
	return "unnamed_asset"
}
