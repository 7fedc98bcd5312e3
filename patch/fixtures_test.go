package patch

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/carbocation/wsipatch/slide"
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

func writePNG(t *testing.T, filePath string, img image.Image) {
	t.Helper()

	f, err := os.Create(filePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeSidecar(t *testing.T, slidePath string, props map[string]string) {
	t.Helper()

	body, err := json.Marshal(props)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(slidePath+slide.SidecarSuffix, body, 0644); err != nil {
		t.Fatal(err)
	}
}

// Region intensities seen at patch size 32 on the 128x128 tissue fixture.
var tissueBlocks = [][]uint8{
	{100, 100, 220, 220},
	{100, 100, 100, 220},
	{220, 100, 100, 100},
	{220, 220, 220, 100},
}

// Mask values seen at mask level 1 of the 8x8 mask fixture.
var maskBlocks = [][]uint8{
	{0, 128, 255, 0},
	{255, 255, 0, 128},
	{0, 0, 0, 0},
	{128, 128, 255, 255},
}

func tissueSlide() *image.NRGBA { return greyBlocks(128, 128, 32, tissueBlocks) }

func tumorMask() *image.NRGBA { return greyBlocks(8, 8, 2, maskBlocks) }
