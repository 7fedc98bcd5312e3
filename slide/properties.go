package slide

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Property names shared with OpenSlide. The bounds describe the rectangle of
// level 0 that actually contains scanned data.
const (
	PropertyNameBoundsX      = "openslide.bounds-x"
	PropertyNameBoundsY      = "openslide.bounds-y"
	PropertyNameBoundsWidth  = "openslide.bounds-width"
	PropertyNameBoundsHeight = "openslide.bounds-height"
	PropertyNameVendor       = "openslide.vendor"
	PropertyNameLevelCount   = "openslide.level-count"
)

// ErrProperty is returned when a property is present but cannot be parsed.
var ErrProperty = errors.New("slide: malformed property")

// Properties returns a copy of the slide's key/value metadata.
func (s *Slide) Properties() map[string]string {
	return copyProps(s.props)
}

// PropertyNames lists the property keys in sorted order.
func (s *Slide) PropertyNames() []string {
	out := make([]string, 0, len(s.props))
	for k := range s.props {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// Property returns the named property, or def if it is absent.
func (s *Slide) Property(name, def string) string {
	if v, exists := s.props[name]; exists {
		return v
	}

	return def
}

// SetProperty adds or replaces one property.
func (s *Slide) SetProperty(name, value string) {
	if s.props == nil {
		s.props = make(map[string]string)
	}
	s.props[name] = value
}

// IntProperty parses the named property as a base-10 integer, returning def
// when it is absent. A value that is present but not an integer yields an
// error wrapping ErrProperty.
func (s *Slide) IntProperty(name string, def int) (int, error) {
	v, exists := s.props[name]
	if !exists {
		return def, nil
	}

	out, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q: %v", ErrProperty, name, v, err)
	}

	return out, nil
}

func copyProps(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
