// Package compileinfo describes how the running binary was built: the VCS
// state it came from and the versions of the image decoding libraries linked
// into it, which determine the pixels a slide decodes to.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"strings"
)

// DecoderModules are the dependencies whose versions are reported.
var DecoderModules = []string{
	"github.com/disintegration/imaging",
	"github.com/suyashkumar/dicom",
	"golang.org/x/image",
	"github.com/xi2/xz",
}

type CompileInfo struct {
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool

	// Decoders maps each linked module in DecoderModules to its version.
	Decoders map[string]string
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	out := fmt.Sprintf("This %s binary was built with %s at commit %v at time %v.%s", c.Package, c.GoVersion, c.Commit, c.CommitTime, mod)

	if len(c.Decoders) == 0 {
		return out
	}

	names := make([]string, 0, len(c.Decoders))
	for k := range c.Decoders {
		names = append(names, k)
	}
	sort.Strings(names)

	versions := make([]string, 0, len(names))
	for _, k := range names {
		versions = append(versions, k+"@"+c.Decoders[k])
	}

	return out + " Decoders: " + strings.Join(versions, ", ") + "."
}

func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		GoVersion: z.GoVersion,
		Package:   z.Path,
		Decoders:  make(map[string]string),
	}

	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	for _, dep := range z.Deps {
		for _, name := range DecoderModules {
			if dep.Path != name {
				continue
			}
			version := dep.Version
			if dep.Replace != nil {
				version = dep.Replace.Version
			}
			out.Decoders[name] = version
		}
	}

	return out
}

func PrintToStdErr() {
	z := Get()
	fmt.Fprintf(os.Stderr, "%s\n", z)
}
