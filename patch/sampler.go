// Package patch finds candidate training patches on a whole-slide image. A
// low-resolution region of the slide is read so that each of its pixels
// stands for one patch; pixels are labeled as tissue by Otsu thresholding and,
// for tumor slides, as tumor from an annotation mask.
package patch

import (
	"fmt"
	"image"

	"cloud.google.com/go/storage"
	"github.com/carbocation/wsipatch/slide"
)

// Options controls FindPatchesFromSlide. Start from DefaultOptions: the zero
// value disables both filters and has no valid patch size.
type Options struct {
	// PatchSize is the patch edge in level-0 pixels, expected to be a power
	// of two. The slide is read at level floor(log2(PatchSize)).
	PatchSize int

	// FilterNonTissue drops samples that are not tissue.
	FilterNonTissue bool

	// FilterOnlyAllTumor, despite its name, keeps non-tumor samples as well
	// as fully tumorous ones; it drops only the partially tumorous samples
	// and attaches TileLoc. See Table.Balanced.
	FilterOnlyAllTumor bool

	// IsTumorSlide says whether the slide has a tumor mask at the truth
	// path. See ContainsTumorByName for the file naming convention that
	// used to imply this.
	IsTumorSlide bool

	// MaskLevelOffset is added to the slide level to index the mask's
	// halving pyramid.
	MaskLevelOffset int

	// StorageClient is only needed for gs:// paths.
	StorageClient *storage.Client
}

// DefaultOptions matches the historical defaults: 256px patches, both
// filters on, and a mask 16x coarser than the slide.
func DefaultOptions() Options {
	return Options{
		PatchSize:          256,
		FilterNonTissue:    true,
		FilterOnlyAllTumor: true,
		MaskLevelOffset:    DefaultMaskLevelOffset,
	}
}

// FindPatchesFromSlide returns one sample per candidate patch of the slide at
// slidePath, labeled for tissue and (when opts.IsTumorSlide) for tumor using
// the mask at truthPath, then filtered according to opts.
func FindPatchesFromSlide(slidePath, truthPath string, opts Options) (Table, error) {
	out, _, err := FindPatchesWithReport(slidePath, truthPath, opts)
	return out, err
}

// FindPatchesWithReport is FindPatchesFromSlide that also reports the
// geometry, threshold and intensity statistics behind the table.
func FindPatchesWithReport(slidePath, truthPath string, opts Options) (Table, Report, error) {
	px, err := extractPixels(slidePath, truthPath, opts)
	if err != nil {
		return nil, Report{}, err
	}

	return buildTable(slidePath, px, opts)
}

// extracted holds the greyscale pixels pulled out of the slide and the mask.
// Both image handles are closed by the time it is returned.
type extracted struct {
	geom   Geometry
	region *image.Gray
	mask   *image.Gray
}

func extractPixels(slidePath, truthPath string, opts Options) (extracted, error) {
	var out extracted

	s, err := slide.Open(slidePath, opts.StorageClient)
	if err != nil {
		return out, err
	}
	defer s.Close()

	var truth *slide.Slide
	if opts.IsTumorSlide {
		if truthPath == "" {
			return out, fmt.Errorf("%s: tumor slides need a truth (mask) path", slidePath)
		}

		truth, err = slide.Open(truthPath, opts.StorageClient)
		if err != nil {
			return out, err
		}
		defer truth.Close()
	}

	out.geom, err = ResolveGeometry(s, truth, opts.PatchSize, opts.MaskLevelOffset)
	if err != nil {
		return out, fmt.Errorf("%s: %w", slidePath, err)
	}

	region, err := s.ReadRegion(out.geom.Start, out.geom.Level, out.geom.Size)
	if err != nil {
		return out, fmt.Errorf("%s: %w", slidePath, err)
	}
	out.region = slide.Luminance(region)

	if truth != nil {
		thumb, err := truth.Thumbnail(out.geom.Size)
		if err != nil {
			return out, fmt.Errorf("%s: %w", truthPath, err)
		}
		out.mask = slide.Luminance(thumb)
	}

	return out, nil
}

func buildTable(slidePath string, px extracted, opts Options) (Table, Report, error) {
	values := intensities(px.region)
	isTissue, threshold := SegmentTissue(values)

	size := px.region.Bounds().Size()

	report, err := newReport(px.geom, values, isTissue, threshold, size.X)
	if err != nil {
		return nil, report, err
	}

	var isTumor, isAllTumor []bool
	if px.mask != nil {
		isTumor, isAllTumor = SegmentTumor(px.mask, size)
	}

	samples := make(Table, 0, len(values))
	for i := range values {
		sample := Sample{
			Loc:       Location{Row: i / size.X, Col: i % size.X},
			IsTissue:  isTissue[i],
			SlidePath: slidePath,
		}
		if isTumor != nil {
			sample.IsTumor = isTumor[i]
			sample.IsAllTumor = isAllTumor[i]
		}
		samples = append(samples, sample)
	}

	if opts.FilterNonTissue {
		samples = samples.TissueOnly()
	}

	if !opts.FilterOnlyAllTumor {
		return samples, report, nil
	}

	return samples.Balanced(), report, nil
}
