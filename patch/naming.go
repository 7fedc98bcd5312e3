package patch

import (
	"fmt"
	"strings"
)

// TumorMarker is the substring that, by convention, marks the path of a slide
// that has a tumor mask (e.g., "pos/tumor_001.tif" or "slide_pos_12.tif").
const TumorMarker = "pos"

// ContainsTumorByName applies the naming convention: a slide is a tumor
// slide when its path contains TumorMarker anywhere. It says nothing about
// the image content, and paths such as "/data/positions/normal.tif" match
// too, so prefer setting Options.IsTumorSlide explicitly.
func ContainsTumorByName(slidePath string) bool {
	return strings.Contains(slidePath, TumorMarker)
}

const (
	TumorModeAuto  = "auto"
	TumorModeTrue  = "true"
	TumorModeFalse = "false"
)

// ResolveTumorMode turns a tumor mode ("auto", "true" or "false") into a
// decision for slidePath, using the naming convention for "auto".
func ResolveTumorMode(mode, slidePath string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case TumorModeAuto, "":
		return ContainsTumorByName(slidePath), nil
	case TumorModeTrue:
		return true, nil
	case TumorModeFalse:
		return false, nil
	}

	return false, fmt.Errorf("tumor mode %q must be one of %s, %s or %s", mode, TumorModeAuto, TumorModeTrue, TumorModeFalse)
}
