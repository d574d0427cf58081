package elbow

import "math"

// reversePenaltyFactor scales the bend penalty for U-turns.
const reversePenaltyFactor = 3

// ── Priority Queue (min-heap by f, FIFO on ties) ───────────

type pqItem struct {
	state int // node*numDirs + dir
	g, f  float64
	seq   int
}

type priorityQueue []pqItem

func (pq priorityQueue) less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq *priorityQueue) push(item pqItem) {
	*pq = append(*pq, item)
	pq.up(len(*pq) - 1)
}

func (pq *priorityQueue) pop() pqItem {
	old := *pq
	n := len(old)
	item := old[0]
	old[0] = old[n-1]
	*pq = old[:n-1]
	if len(*pq) > 0 {
		pq.down(0)
	}
	return item
}

func (pq *priorityQueue) up(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			break
		}
		(*pq)[i], (*pq)[p] = (*pq)[p], (*pq)[i]
		i = p
	}
}

func (pq *priorityQueue) down(i int) {
	n := len(*pq)
	for {
		s, l, r := i, 2*i+1, 2*i+2
		if l < n && pq.less(l, s) {
			s = l
		}
		if r < n && pq.less(r, s) {
			s = r
		}
		if s == i {
			break
		}
		(*pq)[i], (*pq)[s] = (*pq)[s], (*pq)[i]
		i = s
	}
}

// ── Direction-aware A* ─────────────────────────────────────

// turnCost is the penalty for travelling next after arriving via prev.
func turnCost(prev, next Direction, bend float64) float64 {
	switch {
	case prev == dirNone || next == dirNone || prev == next:
		return 0
	case next == prev.Opposite():
		return reversePenaltyFactor * bend
	}
	return bend
}

// searchQuery describes one search over a graph.
type searchQuery struct {
	origin, dest int
	// startDir is the stub direction leaving the origin; dirNone disables
	// the first-move penalty.
	startDir Direction
	// finalDir is the travel direction of the stub after dest; arriving on a
	// different axis costs a bend.
	finalDir Direction
	bend     float64
}

// search runs A* over (node, arrival direction) states and returns node
// indices from origin to dest, or nil when dest is unreachable.
func (g *graph) search(q searchQuery) []int {
	if q.origin == q.dest {
		return []int{q.origin}
	}
	n := len(g.nodes)
	best := make([]float64, n*numDirs)
	for i := range best {
		best[i] = math.Inf(1)
	}
	prev := make([]int, n*numDirs)
	for i := range prev {
		prev[i] = -1
	}

	destPt := g.nodes[q.dest]
	h := func(node int) float64 { return manhattan(g.nodes[node], destPt) }

	seq := 0
	pq := &priorityQueue{}
	start := q.origin*numDirs + int(q.startDir)
	best[start] = 0
	pq.push(pqItem{state: start, g: 0, f: h(q.origin)})

	for len(*pq) > 0 {
		cur := pq.pop()
		if cur.g > best[cur.state] {
			continue // stale entry
		}
		node, dir := cur.state/numDirs, Direction(cur.state%numDirs)
		if node == q.dest {
			return g.unwind(prev, cur.state)
		}
		for _, e := range g.adj[node] {
			cost := cur.g + e.weight + turnCost(dir, e.dir, q.bend)
			if e.to == q.dest {
				cost += turnCost(e.dir, q.finalDir, q.bend)
			}
			next := e.to*numDirs + int(e.dir)
			if cost >= best[next] {
				continue
			}
			best[next] = cost
			prev[next] = cur.state
			seq++
			pq.push(pqItem{state: next, g: cost, f: cost + h(e.to), seq: seq})
		}
	}
	return nil
}

func (g *graph) unwind(prev []int, state int) []int {
	var rev []int
	for s := state; s >= 0; s = prev[s] {
		rev = append(rev, s/numDirs)
	}
	path := make([]int, len(rev))
	for i, node := range rev {
		path[len(rev)-1-i] = node
	}
	return path
}
