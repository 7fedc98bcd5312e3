package patch

import (
	"image"
	"math"
)

// intensities flattens a greyscale image into row-major order.
func intensities(grey *image.Gray) []uint8 {
	b := grey.Bounds()
	out := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := grey.Pix[(y-b.Min.Y)*grey.Stride : (y-b.Min.Y)*grey.Stride+b.Dx()]
		out = append(out, row...)
	}

	return out
}

// SegmentTissue classifies each pixel (row-major) as tissue when it is not
// pure black and is no brighter than the Otsu threshold of all non-black
// pixels. Scanned background is bright and unscanned area is black, so
// tissue is the darker class of what remains. The threshold is returned too.
func SegmentTissue(values []uint8) ([]bool, uint8) {
	notBlack := make([]uint8, 0, len(values))
	for _, v := range values {
		if v > 0 {
			notBlack = append(notBlack, v)
		}
	}

	threshold := OtsuThreshold(notBlack)

	isTissue := make([]bool, len(values))
	for i, v := range values {
		isTissue[i] = v > 0 && v <= threshold
	}

	return isTissue, threshold
}

// SegmentTumor classifies each pixel of a size-shaped grid against the mask
// thumbnail: tumor when the mask is non-zero, fully tumorous when it is
// saturated. Grid cells the thumbnail does not cover are non-tumor.
func SegmentTumor(mask *image.Gray, size image.Point) (isTumor, isAllTumor []bool) {
	isTumor = make([]bool, size.X*size.Y)
	isAllTumor = make([]bool, size.X*size.Y)

	b := mask.Bounds()
	for y := 0; y < size.Y && y < b.Dy(); y++ {
		for x := 0; x < size.X && x < b.Dx(); x++ {
			v := mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			isTumor[y*size.X+x] = v > 0
			isAllTumor[y*size.X+x] = v == math.MaxUint8
		}
	}

	return isTumor, isAllTumor
}
