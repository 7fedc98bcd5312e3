// makeslidebundle converts a slide (a plain raster, a DICOM file or an
// existing bundle) into a .tar.gz slide bundle with PNG levels and a
// properties.json, optionally overriding properties along the way.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wsipatch"
	_ "github.com/carbocation/wsipatch/compileinfoprint"
	"github.com/carbocation/wsipatch/slide"
)

// propFlags collects repeated -prop key=value flags.
type propFlags map[string]string

func (p propFlags) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (p propFlags) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	p[parts[0]] = parts[1]

	return nil
}

func main() {
	var inputPath, outputPath, propertiesPath string
	var maxLevels int
	props := propFlags{}

	flag.StringVar(&inputPath, "in", "", "Path to the source slide. May be a local path or a gs:// path.")
	flag.StringVar(&outputPath, "out", "", "Path to the .tar.gz bundle to write.")
	flag.IntVar(&maxLevels, "levels", 0, "(Optional) Number of levels to store. 0 stores every level down to 1x1.")
	flag.StringVar(&propertiesPath, "properties", "", "(Optional) JSON file of properties to set on the bundle.")
	flag.Var(props, "prop", "(Optional, repeatable) key=value property to set on the bundle. Applied after -properties.")
	flag.Parse()

	if inputPath == "" || outputPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(inputPath, outputPath, propertiesPath, props, maxLevels); err != nil {
		log.Fatalln(err)
	}
}

func run(inputPath, outputPath, propertiesPath string, props map[string]string, maxLevels int) error {
	var client *storage.Client
	if wsipatch.IsGoogleStoragePath(inputPath) || wsipatch.IsGoogleStoragePath(propertiesPath) {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			return pfx.Err(err)
		}
		defer client.Close()
	}

	s, err := slide.Open(inputPath, client)
	if err != nil {
		return err
	}
	defer s.Close()

	if propertiesPath != "" {
		fileProps, err := readProperties(propertiesPath, client)
		if err != nil {
			return err
		}
		for k, v := range fileProps {
			s.SetProperty(k, v)
		}
	}
	for k, v := range props {
		s.SetProperty(k, v)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	if err := slide.WriteBundle(f, s, maxLevels); err != nil {
		return err
	}

	// Close explicitly so that a failed flush is reported.
	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	log.Printf("Wrote %s: %v at level 0, %d properties\n", outputPath, s.Dimensions(), len(s.PropertyNames()))

	return nil
}

func readProperties(path string, client *storage.Client) (map[string]string, error) {
	f, _, err := wsipatch.MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return slide.DecodeProperties(f)
}
