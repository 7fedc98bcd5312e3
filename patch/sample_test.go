package patch

import (
	"bytes"
	"strings"
	"testing"
)

func sampleAt(row, col int, tissue, tumor, allTumor bool) Sample {
	return Sample{
		Loc:        Location{Row: row, Col: col},
		IsTissue:   tissue,
		SlidePath:  "slide.png",
		IsTumor:    tumor,
		IsAllTumor: allTumor,
	}
}

func TestBalancedOrdersNonTumorFirst(t *testing.T) {
	table := Table{
		sampleAt(0, 0, true, true, true),
		sampleAt(0, 1, true, false, false),
		sampleAt(0, 2, true, true, false),
		sampleAt(1, 0, true, true, true),
		sampleAt(1, 1, true, false, false),
	}

	got := table.Balanced()

	want := []Location{{0, 1}, {1, 1}, {0, 0}, {1, 0}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(got))
	}
	for i, loc := range want {
		if got[i].Loc != loc {
			t.Errorf("Position %d: expected %v, got %v", i, loc, got[i].Loc)
		}
		if got[i].TileLoc == nil || *got[i].TileLoc != loc {
			t.Errorf("Position %d: expected tile location %v, got %v", i, loc, got[i].TileLoc)
		}
	}
}

func TestBalancedDoesNotModifyInput(t *testing.T) {
	table := Table{sampleAt(0, 0, true, false, false)}

	table.Balanced()

	if table[0].TileLoc != nil {
		t.Errorf("Expected the input to keep a nil tile location")
	}
}

func TestUnionDropsRepeatedLocations(t *testing.T) {
	a := Table{sampleAt(0, 0, true, false, false), sampleAt(0, 1, true, false, false)}
	b := Table{sampleAt(0, 1, false, true, true), sampleAt(2, 2, true, false, false)}

	got := a.Union(b)
	if len(got) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(got))
	}
	if !got[1].IsTissue {
		t.Errorf("Expected the first occurrence of (0, 1) to win")
	}
	if got[2].Loc != (Location{2, 2}) {
		t.Errorf("Expected (2, 2) last, got %v", got[2].Loc)
	}
}

func TestCounts(t *testing.T) {
	table := Table{
		sampleAt(0, 0, true, true, true),
		sampleAt(0, 1, false, true, false),
		sampleAt(0, 2, true, false, false),
	}

	got := table.Counts()
	want := Counts{Rows: 3, Tissue: 2, Tumor: 2, AllTumor: 1}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestWriteCSV(t *testing.T) {
	table := Table{
		sampleAt(0, 1, true, false, false),
		sampleAt(3, 2, true, true, true),
	}.Balanced()
	table = append(table, sampleAt(4, 4, false, false, false))

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, '\t'); err != nil {
		t.Fatal(err)
	}

	// The last row ends in an empty field, so only the final newline goes.
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"is_tissue\tslide_path\tis_tumor\tis_all_tumor\ttile_loc",
		"true\tslide.png\tfalse\tfalse\t(0, 1)",
		"true\tslide.png\ttrue\ttrue\t(3, 2)",
		"false\tslide.png\tfalse\tfalse\t",
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d:\n%s", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestWriteCSVEmptyTableHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := (Table{}).WriteCSV(&buf, ','); err != nil {
		t.Fatal(err)
	}

	if got := strings.TrimSpace(buf.String()); got != "is_tissue,slide_path,is_tumor,is_all_tumor,tile_loc" {
		t.Errorf("Unexpected header %q", got)
	}
}
