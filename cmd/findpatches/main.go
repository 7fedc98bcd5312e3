// findpatches labels the candidate training patches of one whole-slide image
// for tissue and, for tumor slides, for tumor, and writes them as CSV (or TSV)
// with one row per patch.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wsipatch"
	_ "github.com/carbocation/wsipatch/compileinfoprint"
	"github.com/carbocation/wsipatch/patch"
)

func main() {
	defaults := patch.DefaultOptions()

	var configPath string
	var report bool
	cfg := patch.Config{}
	var patchSize, maskLevelOffset int
	var filterNonTissue, filterOnlyAllTumor bool

	flag.StringVar(&configPath, "config", "", "(Optional) JSON or YAML config file. Flags that are explicitly set override its values.")
	flag.StringVar(&cfg.SlidePath, "slide", "", "Path to the slide. May be a local path or a gs:// path.")
	flag.StringVar(&cfg.TruthPath, "truth", "", "Path to the tumor mask of the slide. Only read for tumor slides.")
	flag.StringVar(&cfg.Tumor, "tumor", patch.TumorModeAuto, fmt.Sprintf("Whether the slide has a tumor mask: %s, %s, or %s (a tumor slide if the path contains %q).", patch.TumorModeTrue, patch.TumorModeFalse, patch.TumorModeAuto, patch.TumorMarker))
	flag.IntVar(&patchSize, "patch-size", defaults.PatchSize, "Patch edge in level-0 pixels. Should be a power of 2.")
	flag.BoolVar(&filterNonTissue, "filter-non-tissue", defaults.FilterNonTissue, "Drop patches that are not tissue.")
	flag.BoolVar(&filterOnlyAllTumor, "filter-only-all-tumor", defaults.FilterOnlyAllTumor, "Keep non-tumor and fully tumorous patches, dropping partially tumorous ones, and add the tile_loc column.")
	flag.IntVar(&maskLevelOffset, "mask-level-offset", defaults.MaskLevelOffset, "Added to the slide level to pick the mask level that sets the region size.")
	flag.StringVar(&cfg.OutputPath, "out", "", "(Optional) Output file. Defaults to stdout.")
	flag.BoolVar(&cfg.TSV, "tsv", false, "Write tab-delimited output instead of comma-delimited.")
	flag.BoolVar(&report, "report", false, "Log the geometry, Otsu threshold and intensity summary behind the table.")
	flag.Parse()

	if configPath != "" {
		fileCfg, err := patch.ParseConfigFromPath(configPath)
		if err != nil {
			log.Fatalln(err)
		}
		cfg = overrideConfig(fileCfg, cfg)
	}

	// Only explicitly set numeric and boolean flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "patch-size":
			cfg.PatchSize = &patchSize
		case "mask-level-offset":
			cfg.MaskLevelOffset = &maskLevelOffset
		case "filter-non-tissue":
			cfg.FilterNonTissue = &filterNonTissue
		case "filter-only-all-tumor":
			cfg.FilterOnlyAllTumor = &filterOnlyAllTumor
		}
	})

	if cfg.SlidePath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts, err := cfg.Options(defaults)
	if err != nil {
		log.Fatalln(err)
	}

	if err := run(cfg, opts, report); err != nil {
		log.Fatalln(err)
	}
}

// overrideConfig returns fileCfg with the string and TSV settings that were
// given on the command line layered on top.
func overrideConfig(fileCfg, flagCfg patch.Config) patch.Config {
	out := fileCfg

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "slide":
			out.SlidePath = flagCfg.SlidePath
		case "truth":
			out.TruthPath = flagCfg.TruthPath
		case "tumor":
			out.Tumor = flagCfg.Tumor
		case "out":
			out.OutputPath = flagCfg.OutputPath
		case "tsv":
			out.TSV = flagCfg.TSV
		}
	})

	return out
}

func run(cfg patch.Config, opts patch.Options, report bool) error {
	started := time.Now()

	// Initialize the Google Storage client, but only if one of our paths
	// points to Google Storage.
	if wsipatch.IsGoogleStoragePath(cfg.SlidePath) || wsipatch.IsGoogleStoragePath(cfg.TruthPath) {
		client, err := storage.NewClient(context.Background())
		if err != nil {
			return pfx.Err(err)
		}
		defer client.Close()
		opts.StorageClient = client
	}

	log.Printf("Finding patches of size %d in %s (tumor slide: %v)\n", opts.PatchSize, cfg.SlidePath, opts.IsTumorSlide)

	table, rep, err := patch.FindPatchesWithReport(cfg.SlidePath, cfg.TruthPath, opts)
	if err != nil {
		return err
	}

	if report {
		logReport(rep)
	}

	var w io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return pfx.Err(err)
		}
		defer f.Close()
		w = f
	}

	comma := ','
	if cfg.TSV {
		comma = '\t'
	}

	if err := table.WriteCSV(w, comma); err != nil {
		return pfx.Err(err)
	}

	c := table.Counts()
	log.Printf("Wrote %d patches (%d tissue, %d tumor, %d all tumor) in %v\n", c.Rows, c.Tissue, c.Tumor, c.AllTumor, time.Since(started))

	return nil
}

func logReport(rep patch.Report) {
	g := rep.Geometry
	log.Printf("Region: level %d, start %v (level 0), size %v, scale %.3fx%.3f, mask index %d\n", g.Level, g.Start, g.Size, g.ScaleX, g.ScaleY, g.MaskIndex)
	log.Printf("Otsu threshold: %d\n", rep.Threshold)
	log.Printf("Pixels: %d tissue in %d regions, %d background, %d black (of %d)\n", rep.TissuePixels, rep.TissueRegions, rep.BackgroundPixels, rep.BlackPixels, rep.Rows)
	log.Printf("Tissue intensity: mean %.2f, SD %.2f\n", rep.TissueIntensity.Mean, rep.TissueIntensity.StdDev)
	log.Printf("Background intensity: mean %.2f, SD %.2f\n", rep.BackgroundIntensity.Mean, rep.BackgroundIntensity.StdDev)
}
