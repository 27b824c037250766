package silhouette

import (
	"slices"
	"testing"
)

func sorted(edges []Edge) []Edge {
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.V1 != b.V1 {
			return a.V1 - b.V1
		}
		return a.V2 - b.V2
	})
	return edges
}

func TestUnmatched(t *testing.T) {
	tests := []struct {
		name string
		tris [][3]int
		want []Edge
	}{
		{
			name: "single triangle",
			tris: [][3]int{{0, 1, 2}},
			want: []Edge{{0, 1}, {1, 2}, {2, 0}},
		},
		{
			name: "shared edge cancels",
			tris: [][3]int{{0, 1, 2}, {2, 1, 3}},
			want: []Edge{{0, 1}, {1, 3}, {2, 0}, {3, 2}},
		},
		{
			name: "same winding does not cancel",
			tris: [][3]int{{0, 1, 2}, {1, 2, 3}},
			want: []Edge{{0, 1}, {1, 2}, {1, 2}, {2, 0}, {2, 3}, {3, 1}},
		},
		{
			name: "degenerate ignored",
			tris: [][3]int{{0, 0, 1}},
			want: nil,
		},
		{
			name: "closed tetrahedron",
			tris: [][3]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {2, 0, 3}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sorted(Unmatched(tt.tris))
			want := sorted(tt.want)
			if !slices.Equal(got, want) {
				t.Errorf("Unmatched() = %v, want %v", got, want)
			}
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	for _, e := range []Edge{{0, 1}, {1, 0}, {70000, 3}, {3, 70000}} {
		if got := decode(key(e.V1, e.V2)); got != e {
			t.Errorf("decode(key(%v)) = %v", e, got)
		}
	}
	if key(4, 9)^key(9, 4) != 1 {
		t.Error("the two windings of an edge should differ only in bit 0")
	}
}
