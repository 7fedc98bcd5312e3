package patch

import (
	"fmt"
)

// Location is a thumbnail pixel coordinate. Each pixel stands for one patch.
type Location struct {
	Row, Col int
}

// MarshalCSV writes the location as "(row, col)".
func (l Location) MarshalCSV() (string, error) {
	return l.String(), nil
}

func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.Row, l.Col)
}

// Sample is one candidate patch. Loc identifies the row; TileLoc repeats it
// as an output column and is only set by the tumor-balancing filter.
type Sample struct {
	Loc        Location  `csv:"-"`
	IsTissue   bool      `csv:"is_tissue"`
	SlidePath  string    `csv:"slide_path"`
	IsTumor    bool      `csv:"is_tumor"`
	IsAllTumor bool      `csv:"is_all_tumor"`
	TileLoc    *Location `csv:"tile_loc"`
}

// Table holds samples in thumbnail scan order (row-major) unless a filter
// says otherwise.
type Table []Sample

// Where returns the samples for which keep is true, preserving order.
func (t Table) Where(keep func(Sample) bool) Table {
	out := make(Table, 0, len(t))
	for _, v := range t {
		if keep(v) {
			out = append(out, v)
		}
	}

	return out
}

// Union concatenates t with others, dropping any sample whose Loc has already
// been seen. The result is a fresh, contiguous table.
func (t Table) Union(others ...Table) Table {
	seen := make(map[Location]struct{}, len(t))
	out := make(Table, 0, len(t))

	for _, tbl := range append([]Table{t}, others...) {
		for _, v := range tbl {
			if _, exists := seen[v.Loc]; exists {
				continue
			}
			seen[v.Loc] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}

// WithTileLoc returns a copy of t with TileLoc set from each sample's Loc.
func (t Table) WithTileLoc() Table {
	out := make(Table, len(t))
	for i, v := range t {
		loc := v.Loc
		v.TileLoc = &loc
		out[i] = v
	}

	return out
}

// TissueOnly drops samples that are not tissue.
func (t Table) TissueOnly() Table {
	return t.Where(func(s Sample) bool { return s.IsTissue })
}

// Balanced keeps every non-tumor sample followed by every fully-tumorous
// sample, each group in its original order, and attaches TileLoc. Samples
// flagged as tumor but not fully tumorous are ambiguous labels and are
// dropped.
func (t Table) Balanced() Table {
	withLoc := t.WithTileLoc()

	nonTumor := withLoc.Where(func(s Sample) bool { return !s.IsTumor })
	allTumor := withLoc.Where(func(s Sample) bool { return s.IsAllTumor })

	return nonTumor.Union(allTumor)
}

// Counts tallies the label columns.
type Counts struct {
	Rows, Tissue, Tumor, AllTumor int
}

func (t Table) Counts() Counts {
	var out Counts
	for _, v := range t {
		out.Rows++
		if v.IsTissue {
			out.Tissue++
		}
		if v.IsTumor {
			out.Tumor++
		}
		if v.IsAllTumor {
			out.AllTumor++
		}
	}

	return out
}
