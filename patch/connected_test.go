package patch

import "testing"

func TestTissueRegions(t *testing.T) {
	const (
		T = true
		F = false
	)

	cases := []struct {
		grid  []bool
		width int
		want  int
	}{
		{[]bool{T, F, T, F, F, F, T, T, F}, 3, 3},
		// Diagonal neighbors are separate regions.
		{[]bool{T, F, F, T}, 2, 2},
		{[]bool{T, T, F, T, F, T, T, T, T}, 3, 1},
		{[]bool{F, F, F, F}, 2, 0},
		{nil, 0, 0},
	}

	for i, c := range cases {
		if got := tissueRegions(c.grid, c.width); got != c.want {
			t.Errorf("Case %d: expected %d regions, got %d", i, c.want, got)
		}
	}
}
