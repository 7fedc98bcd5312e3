// Package slide reads multi-resolution ("pyramid") slide images. The API is
// shaped after OpenSlide: a slide has a level-0 size, a list of coarser level
// sizes, string properties, region reads addressed in level-0 coordinates and
// thumbnails fitted to a requested size.
package slide

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

var (
	// ErrClosed is returned by every accessor once Close has been called.
	ErrClosed = errors.New("slide: use of closed slide")

	// ErrLevel is returned when a level index does not exist in the pyramid.
	ErrLevel = errors.New("slide: level out of range")
)

// Slide is one opened pyramid image. It is not safe for concurrent use:
// coarse levels that were not stored in the source are generated on first
// access and cached on the handle.
type Slide struct {
	path   string
	levels []image.Image
	dims   []image.Point
	props  map[string]string
	closed bool
}

// New builds a slide from a single full-resolution image. Coarser levels are
// produced on demand by repeated halving.
func New(base image.Image, props map[string]string) *Slide {
	dims := HalvingDimensions(base.Bounds().Size())

	levels := make([]image.Image, len(dims))
	levels[0] = base

	return &Slide{
		levels: levels,
		dims:   dims,
		props:  copyProps(props),
	}
}

// NewFromLevels builds a slide from explicitly stored levels, finest first.
// Each level must be no larger than the one before it.
func NewFromLevels(levels []image.Image, props map[string]string) (*Slide, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("slide: no levels supplied")
	}

	dims := make([]image.Point, len(levels))
	for i, v := range levels {
		if v == nil {
			return nil, fmt.Errorf("slide: level %d is nil", i)
		}
		dims[i] = v.Bounds().Size()
		if dims[i].X < 1 || dims[i].Y < 1 {
			return nil, fmt.Errorf("slide: level %d is empty (%v)", i, dims[i])
		}
		if i > 0 && (dims[i].X > dims[i-1].X || dims[i].Y > dims[i-1].Y) {
			return nil, fmt.Errorf("slide: level %d (%v) is larger than level %d (%v)", i, dims[i], i-1, dims[i-1])
		}
	}

	return &Slide{
		levels: append([]image.Image(nil), levels...),
		dims:   dims,
		props:  copyProps(props),
	}, nil
}

// HalvingDimensions lists the sizes of a pyramid built from p by repeated
// halving with ceiling division, floored at 1, finest first. The list ends
// with the first entry whose axes are both 1.
func HalvingDimensions(p image.Point) []image.Point {
	out := []image.Point{p}

	for p.X > 1 || p.Y > 1 {
		p = image.Pt(halve(p.X), halve(p.Y))
		out = append(out, p)
	}

	return out
}

func halve(v int) int {
	v = (v + 1) / 2
	if v < 1 {
		return 1
	}

	return v
}

// Path is the location the slide was opened from, if any.
func (s *Slide) Path() string {
	return s.path
}

// Close releases the decoded pixel data. It is safe to call more than once.
func (s *Slide) Close() error {
	s.closed = true
	s.levels = nil

	return nil
}

// Dimensions is the level-0 size.
func (s *Slide) Dimensions() image.Point {
	if len(s.dims) == 0 {
		return image.Point{}
	}

	return s.dims[0]
}

func (s *Slide) LevelCount() int {
	return len(s.dims)
}

// LevelDimensions returns a copy of the per-level sizes, finest first.
func (s *Slide) LevelDimensions() []image.Point {
	return append([]image.Point(nil), s.dims...)
}

// LevelDownsample is the factor by which level is smaller than level 0,
// taken as the larger of the two per-axis factors.
func (s *Slide) LevelDownsample(level int) (float64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if level < 0 || level >= len(s.dims) {
		return 0, fmt.Errorf("%w: level %d of %d", ErrLevel, level, len(s.dims))
	}

	return downsample(s.dims[0], s.dims[level]), nil
}

// BestLevelForDownsample returns the coarsest level whose downsample does
// not exceed d. Ties go to the finer level.
func (s *Slide) BestLevelForDownsample(d float64) int {
	best := 0
	bestDownsample := 1.0

	for i := range s.dims {
		ds := downsample(s.dims[0], s.dims[i])
		if ds <= d+1e-9 && ds > bestDownsample {
			best = i
			bestDownsample = ds
		}
	}

	return best
}

func downsample(base, level image.Point) float64 {
	return math.Max(float64(base.X)/float64(level.X), float64(base.Y)/float64(level.Y))
}

// level returns the pixels of level i, generating them from the nearest
// finer stored level when the source did not provide them.
func (s *Slide) level(i int) (image.Image, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if i < 0 || i >= len(s.dims) {
		return nil, fmt.Errorf("%w: level %d of %d", ErrLevel, i, len(s.dims))
	}

	if s.levels[i] != nil {
		return s.levels[i], nil
	}

	// Halve one level at a time so that every generated level is a 2x box
	// reduction of its neighbor.
	src, err := s.level(i - 1)
	if err != nil {
		return nil, err
	}
	s.levels[i] = imaging.Resize(src, s.dims[i].X, s.dims[i].Y, imaging.Box)

	return s.levels[i], nil
}
