package patch

import (
	"errors"
	"fmt"
	"image"
	"math/bits"

	"github.com/carbocation/wsipatch/slide"
)

// ErrGeometry is returned when the patch size and the slide or mask pyramids
// cannot be reconciled into a region to read.
var ErrGeometry = errors.New("patch: geometry out of range")

// DefaultMaskLevelOffset is added to the patch-size level to index the mask
// pyramid. It assumes the mask's level 0 is 16x (2^4) coarser than the
// slide's level 0; masks rasterized at any other scale need another offset.
const DefaultMaskLevelOffset = -4

// Geometry is where, at what level, and how large a region is read from the
// slide. One region pixel stands for one patch of PatchSize x PatchSize
// level-0 pixels.
type Geometry struct {
	Level int

	// Start is in level-0 coordinates.
	Start image.Point
	Size  image.Point

	// Scale is the bounding-box extent divided by the full slide extent per
	// axis. It is informational: the region size comes from the mask pyramid.
	ScaleX, ScaleY float64

	// MaskIndex is the entry of the mask pyramid that supplied Size, or -1
	// for slides without a mask.
	MaskIndex int
}

// PatchLevel returns floor(log2(patchSize)).
func PatchLevel(patchSize int) (int, error) {
	if patchSize < 1 {
		return 0, fmt.Errorf("%w: patch size %d must be positive", ErrGeometry, patchSize)
	}

	return bits.Len(uint(patchSize)) - 1, nil
}

// ResolveGeometry computes the region to read. For slides without a mask
// (mask == nil) the whole level is read from the origin. For tumor slides the
// region starts at the slide's bounding-box offset and takes its size from
// the mask's halving pyramid at level+maskLevelOffset.
func ResolveGeometry(s *slide.Slide, mask *slide.Slide, patchSize, maskLevelOffset int) (Geometry, error) {
	out := Geometry{ScaleX: 1, ScaleY: 1, MaskIndex: -1}

	level, err := PatchLevel(patchSize)
	if err != nil {
		return out, err
	}
	out.Level = level

	levelDims := s.LevelDimensions()
	if level >= len(levelDims) {
		return out, fmt.Errorf("%w: patch size %d needs level %d but the slide has %d levels", ErrGeometry, patchSize, level, len(levelDims))
	}
	out.Size = levelDims[level]

	if mask == nil {
		return out, nil
	}

	full := s.Dimensions()

	x, err := s.IntProperty(slide.PropertyNameBoundsX, 0)
	if err != nil {
		return out, err
	}
	y, err := s.IntProperty(slide.PropertyNameBoundsY, 0)
	if err != nil {
		return out, err
	}
	w, err := s.IntProperty(slide.PropertyNameBoundsWidth, full.X)
	if err != nil {
		return out, err
	}
	h, err := s.IntProperty(slide.PropertyNameBoundsHeight, full.Y)
	if err != nil {
		return out, err
	}

	out.Start = image.Pt(x, y)
	out.ScaleX = float64(w) / float64(full.X)
	out.ScaleY = float64(h) / float64(full.Y)

	maskDims := slide.HalvingDimensions(mask.Dimensions())
	idx := level + maskLevelOffset
	if idx < 0 || idx >= len(maskDims) {
		return out, fmt.Errorf("%w: mask pyramid index %d (level %d, offset %d) outside the %d mask levels", ErrGeometry, idx, level, maskLevelOffset, len(maskDims))
	}
	out.MaskIndex = idx
	out.Size = maskDims[idx]

	return out, nil
}
