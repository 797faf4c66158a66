package solidify

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zaidku/DentalCad-Pro/internal/core/geometry"
)

// BoundaryMode selects how open-edge vertices are found and stitched.
type BoundaryMode int

const (
	// BoundaryLoops walks the open edges of the welded mesh and stitches
	// walls along each ordered, closed loop. This is the default.
	BoundaryLoops BoundaryMode = iota
	// BoundaryProximity reproduces the legacy heuristic: a vertex counts as
	// boundary when fewer than six neighbors sit within 0.1 units, and
	// walls are stitched in vertex-scan order without closing the ring.
	// Kept for output compatibility with older exports.
	BoundaryProximity
)

const (
	proximityTolerance    = 0.1
	proximityMinNeighbors = 6
)

// proximityBoundary returns soup-vertex indices with thin local support, in
// scan order. A uniform grid keyed by tolerance-sized cells keeps neighbor
// counting near-linear; the reported set matches a full pairwise scan.
func proximityBoundary(positions []r3.Vec) []int {
	type cell struct{ x, y, z int }
	key := func(p r3.Vec) cell {
		return cell{
			int(math.Floor(p.X / proximityTolerance)),
			int(math.Floor(p.Y / proximityTolerance)),
			int(math.Floor(p.Z / proximityTolerance)),
		}
	}
	grid := make(map[cell][]int, len(positions))
	for i, p := range positions {
		k := key(p)
		grid[k] = append(grid[k], i)
	}

	var out []int
	for i, p := range positions {
		k := key(p)
		neighbors := 0
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					for _, j := range grid[cell{k.x + dx, k.y + dy, k.z + dz}] {
						if j == i {
							continue
						}
						if r3.Norm(r3.Sub(positions[j], p)) < proximityTolerance {
							neighbors++
						}
					}
				}
			}
		}
		if neighbors < proximityMinNeighbors {
			out = append(out, i)
		}
	}
	return out
}

type dirEdge struct{ from, to int }

func edgeID(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// boundaryLoops extracts ordered closed loops of open edges. An edge is open
// when the welded mesh references it exactly once; chaining open edges along
// their winding direction recovers each rim. Returned entries are soup
// vertex indices (one representative per welded vertex). Open chains that
// never close, and loops shorter than a triangle, are dropped.
func boundaryLoops(positions []r3.Vec) [][]int {
	ids := geometry.WeldIndex(positions)
	repr := make([]int, 0, len(positions)/3)
	for i, id := range ids {
		if id == len(repr) {
			repr = append(repr, i)
		}
	}

	counts := make(map[[2]int]int)
	winding := make(map[[2]int]dirEdge)
	for t := 0; t < len(positions)/3; t++ {
		a, b, c := ids[3*t], ids[3*t+1], ids[3*t+2]
		for _, e := range [3]dirEdge{{a, b}, {b, c}, {c, a}} {
			k := edgeID(e.from, e.to)
			counts[k]++
			winding[k] = e
		}
	}

	// Outgoing open edges per welded vertex, sorted so walks are
	// deterministic regardless of map iteration order.
	open := make(map[int][]int)
	total := 0
	for k, n := range counts {
		if n != 1 {
			continue
		}
		e := winding[k]
		open[e.from] = append(open[e.from], e.to)
		total++
	}
	for _, tos := range open {
		sort.Ints(tos)
	}

	var loops [][]int
	for start := 0; start < len(repr) && total > 0; start++ {
		for len(open[start]) > 0 {
			var loop []int
			cur := start
			closed := false
			for {
				loop = append(loop, repr[cur])
				tos := open[cur]
				if len(tos) == 0 {
					break
				}
				open[cur] = tos[1:]
				total--
				cur = tos[0]
				if cur == start {
					closed = true
					break
				}
			}
			if closed && len(loop) >= 3 {
				loops = append(loops, loop)
			}
		}
	}
	return loops
}
