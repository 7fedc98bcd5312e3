package slide

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wsipatch"
	"github.com/disintegration/imaging"
)

// SidecarSuffix is appended to a raster or DICOM slide path to find its
// optional properties file.
const SidecarSuffix = ".properties.json"

// Open reads the slide at filePath, which may be local or a gs:// object (in
// which case client must be non-nil). The source may be a plain raster, a
// DICOM file, or a tar/zip slide bundle laid out as WriteBundle writes it.
// I/O errors are returned unchanged so that callers can test them with
// errors.Is.
func Open(filePath string, client *storage.Client) (*Slide, error) {
	f, nBytes, err := wsipatch.MaybeOpenFromGoogleStorage(filePath, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s *Slide
	if strings.EqualFold(path.Ext(filePath), ".dcm") {
		s, err = openDicom(f, nBytes, filePath, client)
	} else {
		s, err = openStream(f, filePath, client)
	}
	if err != nil {
		return nil, err
	}

	s.path = filePath

	return s, nil
}

func openStream(r io.Reader, filePath string, client *storage.Client) (*Slide, error) {
	rdr, dt, err := wsipatch.MaybeDecompress(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	switch dt {
	case wsipatch.DataTypeGzip, wsipatch.DataTypeXZ, wsipatch.DataTypeBZip2:
		return readTarBundle(rdr)
	case wsipatch.DataTypeZip:
		return readZipBundle(rdr)
	}

	if strings.EqualFold(path.Ext(filePath), ".tar") {
		return readTarBundle(rdr)
	}

	// The image decoder swallows some i/o errors, but a truncated file still
	// fails to decode, which is what we report.
	img, err := decodeRaster(rdr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	props, err := readSidecar(filePath+SidecarSuffix, client)
	if err != nil {
		return nil, err
	}

	return New(img, props), nil
}

func openDicom(r io.Reader, nBytes int64, filePath string, client *storage.Client) (*Slide, error) {
	img, err := DecodeDicom(r, nBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	props, err := readSidecar(filePath+SidecarSuffix, client)
	if err != nil {
		return nil, err
	}

	return New(img, props), nil
}

// readSidecar loads an optional properties file. A missing file is not an
// error and yields no properties.
func readSidecar(sidecarPath string, client *storage.Client) (map[string]string, error) {
	if wsipatch.IsGoogleStoragePath(sidecarPath) && client == nil {
		return nil, nil
	}

	f, _, err := wsipatch.MaybeOpenFromGoogleStorage(sidecarPath, client)
	if wsipatch.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	props, err := DecodeProperties(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sidecarPath, err)
	}

	return props, nil
}

// DecodeProperties reads a JSON object. Values are normally strings, as in
// OpenSlide, but bare numbers and booleans are accepted and kept verbatim.
func DecodeProperties(r io.Reader) (map[string]string, error) {
	raw := make(map[string]interface{})

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, pfx.Err(err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number, bool:
			out[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("%w: %s has unsupported JSON type %T", ErrProperty, k, v)
		}
	}

	return out, nil
}

// decodeRaster decodes PNG, JPEG, GIF, BMP or TIFF data (based on the
// decoders we have imported).
func decodeRaster(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}
