package patch

import (
	"github.com/theodesp/unionfind"
)

// tissueRegions counts the 4-connected components of tissue in a row-major
// grid that is width pixels wide.
func tissueRegions(isTissue []bool, width int) int {
	if width < 1 || len(isTissue) == 0 {
		return 0
	}

	uf := unionfind.New(len(isTissue))
	for i, v := range isTissue {
		if !v {
			continue
		}

		// Join with the left and upper neighbors; later pixels join us.
		if i%width > 0 && isTissue[i-1] {
			uf.Union(i-1, i)
		}
		if i >= width && isTissue[i-width] {
			uf.Union(i-width, i)
		}
	}

	roots := make(map[int]struct{})
	for i, v := range isTissue {
		if v {
			roots[uf.Root(i)] = struct{}{}
		}
	}

	return len(roots)
}
