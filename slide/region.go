package slide

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ReadRegion returns the size-shaped block of the given level whose top left
// corner sits at start, expressed in level-0 coordinates. Pixels that fall
// outside the level are transparent black, as with OpenSlide.
func (s *Slide) ReadRegion(start image.Point, level int, size image.Point) (*image.NRGBA, error) {
	if size.X < 1 || size.Y < 1 {
		return nil, fmt.Errorf("slide: region size %v must be positive", size)
	}

	img, err := s.level(level)
	if err != nil {
		return nil, err
	}

	// Translate the level-0 origin into this level's pixel grid.
	base, here := s.dims[0], s.dims[level]
	levelStart := image.Pt(
		int(math.Floor(float64(start.X)*float64(here.X)/float64(base.X))),
		int(math.Floor(float64(start.Y)*float64(here.Y)/float64(base.Y))),
	)

	// Paste clips to the canvas, so everything outside the level keeps the
	// zero color of the blank canvas.
	canvas := imaging.New(size.X, size.Y, color.NRGBA{})

	return imaging.Paste(canvas, img, levelStart.Mul(-1)), nil
}

// Thumbnail returns the whole slide scaled to fit inside size, preserving
// its aspect ratio. The source pixels come from the coarsest level that is
// still at least as detailed as the request.
func (s *Slide) Thumbnail(size image.Point) (image.Image, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if size.X < 1 || size.Y < 1 {
		return nil, fmt.Errorf("slide: thumbnail size %v must be positive", size)
	}

	base := s.Dimensions()
	target := math.Max(float64(base.X)/float64(size.X), float64(base.Y)/float64(size.Y))

	img, err := s.level(s.BestLevelForDownsample(target))
	if err != nil {
		return nil, err
	}

	// Fit never enlarges: a level that already fits is returned as a copy.
	return imaging.Fit(img, size.X, size.Y, imaging.Lanczos), nil
}

// Luminance converts img to 8-bit greyscale using ITU-R 601-2 luma weights.
// Transparent pixels count as black.
func Luminance(img image.Image) *image.Gray {
	grey := imaging.Grayscale(img)

	out := image.NewGray(grey.Bounds())
	for i := 0; i < len(out.Pix); i++ {
		px := grey.Pix[i*4 : i*4+4]
		if px[3] == 0 {
			continue
		}
		out.Pix[i] = px[0]
	}

	return out
}
