package wsipatch

import (
	"os/user"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	usr, err := user.Current()
	if err != nil {
		t.Skip(err)
	}

	cases := map[string]string{
		"~":                      usr.HomeDir,
		"~/slides/tumor_001.tif": filepath.Join(usr.HomeDir, "slides", "tumor_001.tif"),
		"/data/~/x.tif":          "/data/~/x.tif",
		"~other/x.tif":           "~other/x.tif",
		"gs://bucket/~/x.tif":    "gs://bucket/~/x.tif",
	}

	for in, want := range cases {
		if got := ExpandHome(in); got != want {
			t.Errorf("%s: expected %s, got %s", in, want, got)
		}
	}
}
