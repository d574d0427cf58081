package elbow

import (
	"math"
	"sort"
)

type graphEdge struct {
	to     int
	weight float64
	dir    Direction // travel direction from the owning node to `to`
}

// graph is an arena of waypoints indexed by int with orthogonal edges.
type graph struct {
	nodes []Point
	index map[gridKey]int
	adj   [][]graphEdge
}

func (g *graph) lookup(p Point) (int, bool) {
	i, ok := g.index[keyOf(p)]
	return i, ok
}

// connect adds an undirected edge; forward is the travel direction a→b.
func (g *graph) connect(a, b int, forward Direction) {
	w := manhattan(g.nodes[a], g.nodes[b])
	g.adj[a] = append(g.adj[a], graphEdge{to: b, weight: w, dir: forward})
	g.adj[b] = append(g.adj[b], graphEdge{to: a, weight: w, dir: forward.Opposite()})
}

// buildGraph links every point to its nearest neighbor to the left and
// above, unless that segment crosses an obstacle interior.
func buildGraph(points []Point, obstacles []Rect) *graph {
	g := &graph{
		nodes: make([]Point, 0, len(points)),
		index: make(map[gridKey]int, len(points)),
	}
	for _, p := range points {
		k := keyOf(p)
		if _, ok := g.index[k]; ok {
			continue
		}
		g.index[k] = len(g.nodes)
		g.nodes = append(g.nodes, p)
	}
	g.adj = make([][]graphEdge, len(g.nodes))

	rows := map[int64][]int{}
	cols := map[int64][]int{}
	for i, p := range g.nodes {
		rows[quantize(p.Y)] = append(rows[quantize(p.Y)], i)
		cols[quantize(p.X)] = append(cols[quantize(p.X)], i)
	}

	blocked := func(a, b Point) bool {
		for _, r := range obstacles {
			if r.segmentCrosses(a, b) {
				return true
			}
		}
		return false
	}
	link := func(line []int, forward Direction, coord func(Point) float64, align func(a, b *Point)) {
		sort.Slice(line, func(i, j int) bool { return coord(g.nodes[line[i]]) < coord(g.nodes[line[j]]) })
		for i := 1; i < len(line); i++ {
			a, b := g.nodes[line[i-1]], g.nodes[line[i]]
			align(&a, &b)
			if blocked(a, b) {
				continue
			}
			g.connect(line[i-1], line[i], forward)
		}
	}

	// Keys are iterated in sorted order so edge lists are deterministic.
	for _, k := range sortedKeys(rows) {
		link(rows[k], Right, func(p Point) float64 { return p.X }, func(a, b *Point) { b.Y = a.Y })
	}
	for _, k := range sortedKeys(cols) {
		link(cols[k], Down, func(p Point) float64 { return p.Y }, func(a, b *Point) { b.X = a.X })
	}
	return g
}

func sortedKeys(m map[int64][]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// pathLength is the Manhattan length of a polyline.
func pathLength(pts []Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += manhattan(pts[i-1], pts[i])
	}
	return total
}

// bendCount counts changes of axis along an orthogonal polyline.
func bendCount(pts []Point) int {
	bends := 0
	prev := dirNone
	for i := 1; i < len(pts); i++ {
		if math.Abs(pts[i].X-pts[i-1].X) < eps && math.Abs(pts[i].Y-pts[i-1].Y) < eps {
			continue
		}
		d := directionBetween(pts[i-1], pts[i])
		if prev != dirNone && d.Vertical() != prev.Vertical() {
			bends++
		}
		prev = d
	}
	return bends
}
