package slide

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// greyBlocks builds a w x h opaque image whose block-sized squares take the
// grey values of blocks, row-major.
func greyBlocks(w, h, block int, blocks [][]uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := blocks[y/block][x/block]
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	return img
}

func TestHalvingDimensions(t *testing.T) {
	got := HalvingDimensions(image.Pt(5, 3))
	want := []image.Point{{5, 3}, {3, 2}, {2, 1}, {1, 1}}

	if len(got) != len(want) {
		t.Fatalf("Expected %d levels, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Level %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestHalvingDimensionsSinglePixel(t *testing.T) {
	got := HalvingDimensions(image.Pt(1, 1))
	if len(got) != 1 || got[0] != image.Pt(1, 1) {
		t.Errorf("Expected a single 1x1 level, got %v", got)
	}
}

func TestGeneratedLevelsKeepUniformBlocks(t *testing.T) {
	s := New(greyBlocks(8, 8, 4, [][]uint8{{10, 20}, {30, 40}}), nil)

	if s.LevelCount() != 4 {
		t.Fatalf("Expected 4 levels, got %d (%v)", s.LevelCount(), s.LevelDimensions())
	}

	region, err := s.ReadRegion(image.Point{}, 2, image.Pt(2, 2))
	if err != nil {
		t.Fatal(err)
	}

	grey := Luminance(region)
	want := []uint8{10, 20, 30, 40}
	for i, v := range want {
		if grey.Pix[i] != v {
			t.Errorf("Pixel %d: expected %d, got %d", i, v, grey.Pix[i])
		}
	}
}

func TestReadRegionOffsetIsLevelZeroCoordinates(t *testing.T) {
	s := New(greyBlocks(8, 8, 4, [][]uint8{{10, 20}, {30, 40}}), nil)

	// (4, 4) at level 0 is (2, 2) at level 1: the bottom-right block.
	region, err := s.ReadRegion(image.Pt(4, 4), 1, image.Pt(2, 2))
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range Luminance(region).Pix {
		if v != 40 {
			t.Fatalf("Expected every pixel to be 40, got %v", Luminance(region).Pix)
		}
	}
}

func TestReadRegionOutsideIsTransparent(t *testing.T) {
	s := New(greyBlocks(4, 4, 4, [][]uint8{{200}}), nil)

	region, err := s.ReadRegion(image.Pt(2, 2), 0, image.Pt(4, 4))
	if err != nil {
		t.Fatal(err)
	}

	if got := region.NRGBAAt(0, 0); got.A != 255 || got.R != 200 {
		t.Errorf("Expected inside pixel to be opaque 200, got %v", got)
	}
	if got := region.NRGBAAt(3, 3); got != (color.NRGBA{}) {
		t.Errorf("Expected outside pixel to be transparent black, got %v", got)
	}
	if got := Luminance(region).GrayAt(3, 3).Y; got != 0 {
		t.Errorf("Expected outside pixel to have zero luminance, got %d", got)
	}
}

func TestReadRegionBadLevel(t *testing.T) {
	s := New(greyBlocks(4, 4, 4, [][]uint8{{200}}), nil)

	if _, err := s.ReadRegion(image.Point{}, 9, image.Pt(1, 1)); !errors.Is(err, ErrLevel) {
		t.Errorf("Expected ErrLevel, got %v", err)
	}
	if _, err := s.ReadRegion(image.Point{}, -1, image.Pt(1, 1)); !errors.Is(err, ErrLevel) {
		t.Errorf("Expected ErrLevel for a negative level, got %v", err)
	}
	if _, err := s.ReadRegion(image.Point{}, 0, image.Pt(0, 1)); err == nil {
		t.Errorf("Expected an error for an empty region")
	}
}

func TestThumbnailPreservesAspect(t *testing.T) {
	s := New(greyBlocks(16, 8, 8, [][]uint8{{50, 100}}), nil)

	thumb, err := s.Thumbnail(image.Pt(4, 4))
	if err != nil {
		t.Fatal(err)
	}

	if got := thumb.Bounds().Size(); got != image.Pt(4, 2) {
		t.Errorf("Expected a 4x2 thumbnail, got %v", got)
	}
}

func TestThumbnailAtLevelSizeIsThatLevel(t *testing.T) {
	s := New(greyBlocks(8, 8, 2, [][]uint8{
		{0, 128, 255, 0},
		{255, 255, 0, 128},
		{0, 0, 0, 0},
		{128, 128, 255, 255},
	}), nil)

	thumb, err := s.Thumbnail(s.LevelDimensions()[1])
	if err != nil {
		t.Fatal(err)
	}

	grey := Luminance(thumb)
	want := []uint8{0, 128, 255, 0, 255, 255, 0, 128, 0, 0, 0, 0, 128, 128, 255, 255}
	for i, v := range want {
		if grey.Pix[i] != v {
			t.Errorf("Pixel %d: expected %d, got %d", i, v, grey.Pix[i])
		}
	}
}

func TestBestLevelForDownsample(t *testing.T) {
	s := New(image.NewNRGBA(image.Rect(0, 0, 64, 64)), nil)

	cases := map[float64]int{
		0.5: 0,
		1:   0,
		3:   1,
		4:   2,
		100: 6,
	}
	for ds, want := range cases {
		if got := s.BestLevelForDownsample(ds); got != want {
			t.Errorf("Downsample %v: expected level %d, got %d", ds, want, got)
		}
	}
}

func TestNewFromLevelsRejectsGrowingLevels(t *testing.T) {
	_, err := NewFromLevels([]image.Image{
		image.NewGray(image.Rect(0, 0, 4, 4)),
		image.NewGray(image.Rect(0, 0, 8, 2)),
	}, nil)
	if err == nil {
		t.Errorf("Expected an error when a coarser level is wider")
	}
}

func TestProperties(t *testing.T) {
	s := New(image.NewGray(image.Rect(0, 0, 2, 2)), map[string]string{
		PropertyNameBoundsX:     "12",
		PropertyNameBoundsWidth: "wide",
	})

	if got := s.Property(PropertyNameVendor, "none"); got != "none" {
		t.Errorf("Expected default for absent property, got %q", got)
	}

	x, err := s.IntProperty(PropertyNameBoundsX, 0)
	if err != nil || x != 12 {
		t.Errorf("Expected 12, got %d (%v)", x, err)
	}

	y, err := s.IntProperty(PropertyNameBoundsY, 7)
	if err != nil || y != 7 {
		t.Errorf("Expected default 7, got %d (%v)", y, err)
	}

	if _, err := s.IntProperty(PropertyNameBoundsWidth, 0); !errors.Is(err, ErrProperty) {
		t.Errorf("Expected ErrProperty, got %v", err)
	}

	if names := s.PropertyNames(); len(names) != 2 || names[0] != PropertyNameBoundsWidth {
		t.Errorf("Unexpected property names %v", names)
	}
}

func TestClosedSlide(t *testing.T) {
	s := New(image.NewGray(image.Rect(0, 0, 2, 2)), nil)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Expected a second Close to succeed, got %v", err)
	}

	if _, err := s.ReadRegion(image.Point{}, 0, image.Pt(1, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from ReadRegion, got %v", err)
	}
	if _, err := s.Thumbnail(image.Pt(1, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Thumbnail, got %v", err)
	}
}

func TestLuminanceWeights(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})

	grey := Luminance(img)
	if got := grey.GrayAt(0, 0).Y; got != 76 {
		t.Errorf("Expected pure red to map to 76, got %d", got)
	}
	if got := grey.GrayAt(1, 0).Y; got != 0 {
		t.Errorf("Expected a transparent pixel to map to 0, got %d", got)
	}
}
