package patch

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/wsipatch"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk form of a findpatches run. Pointer fields distinguish
// "not set" from a zero value, so that unset fields keep DefaultOptions.
type Config struct {
	ConfigPath string `json:"-" yaml:"-"`

	SlidePath  string `json:"slide" yaml:"slide"`
	TruthPath  string `json:"truth" yaml:"truth"`
	OutputPath string `json:"output" yaml:"output"`

	// Tumor is "auto", "true" or "false".
	Tumor string `json:"tumor" yaml:"tumor"`

	PatchSize          *int  `json:"patch_size" yaml:"patch_size"`
	FilterNonTissue    *bool `json:"filter_non_tissue" yaml:"filter_non_tissue"`
	FilterOnlyAllTumor *bool `json:"filter_only_all_tumor" yaml:"filter_only_all_tumor"`
	MaskLevelOffset    *int  `json:"mask_level_offset" yaml:"mask_level_offset"`

	TSV bool `json:"tsv" yaml:"tsv"`
}

// ParseConfigFromPath reads a JSON config, or a YAML one when the file ends
// in .yaml or .yml.
func ParseConfigFromPath(path string) (Config, error) {
	out := Config{ConfigPath: path}

	f, err := os.Open(wsipatch.ExpandHome(path))
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(&out); err != nil {
			return out, pfx.Err(err)
		}
	default:
		if err := json.NewDecoder(f).Decode(&out); err != nil {
			if e, ok := err.(*json.SyntaxError); ok {
				log.Printf("syntax error at byte offset %d", e.Offset)
			}
			return out, pfx.Err(err)
		}
	}

	// Interpret ~ if present
	out.ConfigPath = wsipatch.ExpandHome(out.ConfigPath)
	out.SlidePath = wsipatch.ExpandHome(out.SlidePath)
	out.TruthPath = wsipatch.ExpandHome(out.TruthPath)
	out.OutputPath = wsipatch.ExpandHome(out.OutputPath)

	return out, nil
}

// Options applies the config on top of base.
func (c Config) Options(base Options) (Options, error) {
	out := base

	if c.PatchSize != nil {
		out.PatchSize = *c.PatchSize
	}
	if c.FilterNonTissue != nil {
		out.FilterNonTissue = *c.FilterNonTissue
	}
	if c.FilterOnlyAllTumor != nil {
		out.FilterOnlyAllTumor = *c.FilterOnlyAllTumor
	}
	if c.MaskLevelOffset != nil {
		out.MaskLevelOffset = *c.MaskLevelOffset
	}

	isTumor, err := ResolveTumorMode(c.Tumor, c.SlidePath)
	if err != nil {
		return out, err
	}
	out.IsTumorSlide = isTumor

	return out, nil
}
