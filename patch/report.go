package patch

import (
	"github.com/montanaflynn/stats"
)

// Report describes how a table was derived, for logging and QC.
type Report struct {
	Geometry  Geometry
	Threshold uint8

	// Pixel counts of the region: tissue, non-black non-tissue, and black.
	TissuePixels     int
	BackgroundPixels int
	BlackPixels      int

	// TissueRegions is the number of 4-connected tissue components.
	TissueRegions int

	TissueIntensity     IntensitySummary
	BackgroundIntensity IntensitySummary

	// Rows is the table size before any filtering.
	Rows int
}

// IntensitySummary is the mean and (population) standard deviation of a set
// of greyscale intensities. Both are zero for an empty set.
type IntensitySummary struct {
	N      int
	Mean   float64
	StdDev float64
}

func summarizeIntensities(values []float64) (IntensitySummary, error) {
	out := IntensitySummary{N: len(values)}
	if len(values) == 0 {
		return out, nil
	}

	data := stats.Float64Data(values)

	mean, err := data.Mean()
	if err != nil {
		return out, err
	}
	out.Mean = mean

	sd, err := data.StandardDeviation()
	if err != nil {
		return out, err
	}
	out.StdDev = sd

	return out, nil
}

func newReport(geom Geometry, values []uint8, isTissue []bool, threshold uint8, width int) (Report, error) {
	out := Report{
		Geometry:      geom,
		Threshold:     threshold,
		Rows:          len(values),
		TissueRegions: tissueRegions(isTissue, width),
	}

	var tissue, background []float64
	for i, v := range values {
		switch {
		case isTissue[i]:
			tissue = append(tissue, float64(v))
		case v > 0:
			background = append(background, float64(v))
		default:
			out.BlackPixels++
		}
	}
	out.TissuePixels = len(tissue)
	out.BackgroundPixels = len(background)

	var err error
	if out.TissueIntensity, err = summarizeIntensities(tissue); err != nil {
		return out, err
	}
	if out.BackgroundIntensity, err = summarizeIntensities(background); err != nil {
		return out, err
	}

	return out, nil
}
