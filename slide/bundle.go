package slide

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
)

// A slide bundle is an archive holding one raster per stored level, named
// level_0.png, level_1.png, ... (any decodable raster extension works), and
// optionally properties.json with the slide's metadata. Levels must be
// numbered contiguously from 0.
const (
	bundleLevelPrefix    = "level_"
	bundlePropertiesName = "properties.json"
)

type bundleContents struct {
	levels map[int]image.Image
	props  map[string]string
}

func newBundleContents() *bundleContents {
	return &bundleContents{levels: make(map[int]image.Image)}
}

// add interprets one archive member. Members that are neither a level nor
// the properties file are ignored.
func (b *bundleContents) add(name string, r io.Reader) error {
	base := path.Base(name)

	if base == bundlePropertiesName {
		props, err := DecodeProperties(r)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		b.props = props
		return nil
	}

	level, ok := bundleLevelIndex(base)
	if !ok {
		return nil
	}
	if _, exists := b.levels[level]; exists {
		return fmt.Errorf("bundle: level %d appears more than once", level)
	}

	img, err := decodeRaster(r)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	b.levels[level] = img

	return nil
}

func (b *bundleContents) slide() (*Slide, error) {
	if len(b.levels) == 0 {
		return nil, fmt.Errorf("bundle: no %s* entries found", bundleLevelPrefix)
	}

	levels := make([]image.Image, len(b.levels))
	for i := range levels {
		img, exists := b.levels[i]
		if !exists {
			return nil, fmt.Errorf("bundle: level %d is missing (%d levels found)", i, len(b.levels))
		}
		levels[i] = img
	}

	return NewFromLevels(levels, b.props)
}

func bundleLevelIndex(base string) (int, bool) {
	if !strings.HasPrefix(base, bundleLevelPrefix) {
		return 0, false
	}

	digits := strings.TrimSuffix(strings.TrimPrefix(base, bundleLevelPrefix), path.Ext(base))
	level, err := strconv.Atoi(digits)
	if err != nil || level < 0 {
		return 0, false
	}

	return level, true
}

// readTarBundle consumes an (already decompressed) tar stream.
func readTarBundle(r io.Reader) (*Slide, error) {
	contents := newBundleContents()
	tarReader := tar.NewReader(r)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		} else if header.Typeflag != tar.TypeReg {
			continue
		}

		if err := contents.add(header.Name, tarReader); err != nil {
			return nil, err
		}
	}

	return contents.slide()
}

// readZipBundle walks a zip archive front to back, so it works on streams
// (e.g., Google Storage objects) without random access.
func readZipBundle(r io.Reader) (*Slide, error) {
	contents := newBundleContents()
	zipReader := zipstream.NewReader(r)

	for {
		header, err := zipReader.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		} else if strings.HasSuffix(header.Name, "/") {
			continue
		}

		if err := contents.add(header.Name, zipReader); err != nil {
			return nil, err
		}
	}

	return contents.slide()
}

// WriteBundle writes s as a gzip-compressed tar bundle with PNG levels. If
// maxLevels is positive, only the first maxLevels levels are stored, and the
// re-opened slide has exactly those levels.
func WriteBundle(w io.Writer, s *Slide, maxLevels int) error {
	if s.closed {
		return ErrClosed
	}

	nLevels := s.LevelCount()
	if maxLevels > 0 && maxLevels < nLevels {
		nLevels = maxLevels
	}

	gzw := gzip.NewWriter(w)
	tw := tar.NewWriter(gzw)

	for i := 0; i < nLevels; i++ {
		img, err := s.level(i)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return pfx.Err(err)
		}

		if err := writeTarMember(tw, fmt.Sprintf("%s%d.png", bundleLevelPrefix, i), buf.Bytes()); err != nil {
			return err
		}
	}

	props := copyProps(s.props)
	props[PropertyNameLevelCount] = strconv.Itoa(nLevels)

	// encoding/json sorts map keys, so the member is byte-stable.
	propBytes, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return pfx.Err(err)
	}
	if err := writeTarMember(tw, bundlePropertiesName, propBytes); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(gzw.Close())
}

func writeTarMember(tw *tar.Writer, name string, body []byte) error {
	header := &tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(body)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return pfx.Err(err)
	}

	_, err := tw.Write(body)

	return pfx.Err(err)
}
