package slide

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/dicomtag"
	"github.com/suyashkumar/dicom/element"
)

// DecodeDicom reads one DICOM object and returns its first frame. Encapsulated
// (compressed) frames are decoded by the dicom library. Native 8-bit data is
// kept as-is, grey or RGB depending on SamplesPerPixel; deeper native data is
// scaled so that the brightest pixel maps to full 16-bit white.
func DecodeDicom(r io.Reader, nBytes int64) (image.Image, error) {
	p, err := dicom.NewParser(r, nBytes, nil)
	if err != nil {
		return nil, err
	}

	parsedData, err := safelyDicomParse(p, dicom.ParseOptions{
		DropPixelData: false,
	})
	if parsedData == nil || err != nil {
		return nil, fmt.Errorf("Error parsing dicom: %v", err)
	}

	var bitsAllocated uint16
	var imgRows, imgCols int
	var pixels [][]int

	for _, elem := range parsedData.Elements {
		if len(elem.Value) == 0 {
			continue
		}

		switch elem.Tag {
		case dicomtag.BitsAllocated:
			bitsAllocated, _ = elem.Value[0].(uint16)
		case dicomtag.Rows:
			v, _ := elem.Value[0].(uint16)
			imgRows = int(v)
		case dicomtag.Columns:
			v, _ := elem.Value[0].(uint16)
			imgCols = int(v)
		case dicomtag.PixelData:
			data, ok := elem.Value[0].(element.PixelDataInfo)
			if !ok || len(data.Frames) == 0 {
				return nil, fmt.Errorf("PixelData holds no frames")
			}

			// Whole-slide DICOM may carry many frames; only the first one
			// is used as level 0.
			frame := data.Frames[0]
			if frame.IsEncapsulated() {
				return frame.GetImage()
			}
			pixels = frame.NativeData.Data
		}
	}

	return nativeDicomImage(bitsAllocated, imgRows, imgCols, pixels)
}

// nativeDicomImage lays out row-major native pixel samples as an image.
func nativeDicomImage(bitsAllocated uint16, rows, cols int, pixels [][]int) (image.Image, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("dicom has invalid dimensions %dx%d", cols, rows)
	}
	if len(pixels) < rows*cols {
		return nil, fmt.Errorf("dicom has %d pixels, expected %d", len(pixels), rows*cols)
	}
	pixels = pixels[:rows*cols]

	if bitsAllocated == 8 {
		return dicom8Bit(pixels, cols, rows), nil
	}

	return dicomScaled(pixels, cols, rows), nil
}

func dicom8Bit(pixels [][]int, cols, rows int) image.Image {
	if len(pixels[0]) >= 3 {
		img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
		for j, px := range pixels {
			img.SetNRGBA(j%cols, j/cols, color.NRGBA{R: clampUint8(px[0]), G: clampUint8(px[1]), B: clampUint8(px[2]), A: 255})
		}
		return img
	}

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for j, px := range pixels {
		img.SetGray(j%cols, j/cols, color.Gray{Y: clampUint8(px[0])})
	}

	return img
}

func dicomScaled(pixels [][]int, cols, rows int) image.Image {
	// Identify the brightest pixel
	maxIntensity := 0
	for _, v := range pixels {
		if v[0] > maxIntensity {
			maxIntensity = v[0]
		}
	}

	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for j, px := range pixels {
		img.SetGray16(j%cols, j/cols, color.Gray16{Y: pythonicWindowScaling(px[0], maxIntensity)})
	}

	return img
}

func pythonicWindowScaling(intensity, maxIntensity int) uint16 {
	if intensity < 0 || maxIntensity <= 0 {
		return 0
	}

	return uint16(float64(math.MaxUint16) * float64(intensity) / float64(maxIntensity))
}

func clampUint8(v int) uint8 {
	if v < 0 {
		return 0
	} else if v > math.MaxUint8 {
		return math.MaxUint8
	}

	return uint8(v)
}

// dicomParser is the part of dicom.Parser that DecodeDicom needs.
type dicomParser interface {
	Parse(options dicom.ParseOptions) (*element.DataSet, error)
}

// safelyDicomParse turns panics raised while parsing (the library panics on
// unknown transfer syntaxes and on elements it cannot consume) into errors.
func safelyDicomParse(p dicomParser, opts dicom.ParseOptions) (parsedData *element.DataSet, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			parsedData = nil
			err = fmt.Errorf("dicom parser panicked: %v", panicErr)
		}
	}()

	return p.Parse(opts)
}
