package ml

import (
	"container/heap"
	"math/rand"
	"sort"
)

// Node is one node of a regression tree in the flat array encoding. Leaves
// have IsLeaf set and carry the prediction in Value.
type Node struct {
	Feature   int     `msgpack:"f"`
	Threshold float64 `msgpack:"t"`
	Left      int     `msgpack:"l"`
	Right     int     `msgpack:"r"`
	Value     float64 `msgpack:"v"`
	IsLeaf    bool    `msgpack:"leaf"`
}

// Tree is a single regression tree.
type Tree struct {
	Nodes []Node `msgpack:"nodes"`
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeParams controls tree growth. maxLeaves 0 grows depth-wise to maxDepth;
// a positive maxLeaves grows leaf-wise, always splitting the leaf with the
// largest gain next.
type treeParams struct {
	maxDepth  int
	minSplit  int
	minLeaf   int
	maxLeaves int
}

// split is the best split found for a node, or ok=false when the node cannot
// be split.
type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
	ok        bool
}

// bestSplit scans the allowed features for the variance-reduction-optimal
// split of the samples in idx.
func bestSplit(X [][]float64, y []float64, idx []int, features []int, minLeaf int) split {
	n := len(idx)
	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)

	type pair struct {
		v float64
		y float64
		i int
	}
	best := split{}
	pairs := make([]pair, n)

	for _, f := range features {
		for j, i := range idx {
			pairs[j] = pair{v: X[i][f], y: y[i], i: i}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		var leftSum, leftSq float64
		for j := 0; j < n-1; j++ {
			leftSum += pairs[j].y
			leftSq += pairs[j].y * pairs[j].y
			if pairs[j].v == pairs[j+1].v {
				continue
			}
			nl, nr := j+1, n-j-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			rightSum := totalSum - leftSum
			leftSSE := leftSq - leftSum*leftSum/float64(nl)
			rightSSE := (totalSq - leftSq) - rightSum*rightSum/float64(nr)
			gain := parentSSE - leftSSE - rightSSE
			if gain > best.gain {
				best = split{
					feature:   f,
					threshold: (pairs[j].v + pairs[j+1].v) / 2,
					gain:      gain,
					ok:        true,
				}
				best.left = make([]int, 0, nl)
				best.right = make([]int, 0, nr)
				for k := 0; k <= j; k++ {
					best.left = append(best.left, pairs[k].i)
				}
				for k := j + 1; k < n; k++ {
					best.right = append(best.right, pairs[k].i)
				}
			}
		}
	}
	return best
}

func mean(y []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

// growDepthWise builds a tree by recursive splitting to maxDepth,
// accumulating per-feature gain into importance.
func growDepthWise(X [][]float64, y []float64, idx []int, features []int, p treeParams, importance []float64) *Tree {
	t := &Tree{}
	t.buildNode(X, y, idx, features, p, 0, importance)
	return t
}

func (t *Tree) buildNode(X [][]float64, y []float64, idx []int, features []int, p treeParams, depth int, importance []float64) int {
	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{IsLeaf: true, Value: mean(y, idx)})

	if depth >= p.maxDepth || len(idx) < p.minSplit {
		return self
	}
	s := bestSplit(X, y, idx, features, p.minLeaf)
	if !s.ok || s.gain <= 0 {
		return self
	}
	importance[s.feature] += s.gain

	t.Nodes[self].IsLeaf = false
	t.Nodes[self].Feature = s.feature
	t.Nodes[self].Threshold = s.threshold
	left := t.buildNode(X, y, s.left, features, p, depth+1, importance)
	right := t.buildNode(X, y, s.right, features, p, depth+1, importance)
	t.Nodes[self].Left = left
	t.Nodes[self].Right = right
	return self
}

// candidate is a splittable leaf queued by gain.
type candidate struct {
	node  int
	idx   []int
	depth int
	s     split
}

type candidateHeap []candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].s.gain > h[j].s.gain }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// growLeafWise builds a tree by repeatedly splitting the leaf with the
// largest gain until maxLeaves leaves exist or no split improves.
func growLeafWise(X [][]float64, y []float64, idx []int, features []int, p treeParams, importance []float64) *Tree {
	t := &Tree{Nodes: []Node{{IsLeaf: true, Value: mean(y, idx)}}}
	leaves := 1

	h := &candidateHeap{}
	if c, ok := makeCandidate(X, y, 0, idx, 0, features, p); ok {
		heap.Push(h, c)
	}

	for h.Len() > 0 && leaves < p.maxLeaves {
		c := heap.Pop(h).(candidate)
		importance[c.s.feature] += c.s.gain

		left := len(t.Nodes)
		t.Nodes = append(t.Nodes, Node{IsLeaf: true, Value: mean(y, c.s.left)})
		right := len(t.Nodes)
		t.Nodes = append(t.Nodes, Node{IsLeaf: true, Value: mean(y, c.s.right)})
		t.Nodes[c.node].IsLeaf = false
		t.Nodes[c.node].Feature = c.s.feature
		t.Nodes[c.node].Threshold = c.s.threshold
		t.Nodes[c.node].Left = left
		t.Nodes[c.node].Right = right
		leaves++ // one leaf became two

		if lc, ok := makeCandidate(X, y, left, c.s.left, c.depth+1, features, p); ok {
			heap.Push(h, lc)
		}
		if rc, ok := makeCandidate(X, y, right, c.s.right, c.depth+1, features, p); ok {
			heap.Push(h, rc)
		}
	}
	return t
}

func makeCandidate(X [][]float64, y []float64, node int, idx []int, depth int, features []int, p treeParams) (candidate, bool) {
	if len(idx) < p.minSplit || (p.maxDepth > 0 && depth >= p.maxDepth) {
		return candidate{}, false
	}
	s := bestSplit(X, y, idx, features, p.minLeaf)
	if !s.ok || s.gain <= 0 {
		return candidate{}, false
	}
	return candidate{node: node, idx: idx, depth: depth, s: s}, true
}

// sampleFeatures picks a colsample fraction of feature indices without
// replacement. fraction >= 1 keeps all features.
func sampleFeatures(nFeatures int, fraction float64, rng *rand.Rand) []int {
	all := make([]int, nFeatures)
	for i := range all {
		all[i] = i
	}
	if fraction >= 1 {
		return all
	}
	k := int(float64(nFeatures) * fraction)
	if k < 1 {
		k = 1
	}
	rng.Shuffle(nFeatures, func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:k]
	sort.Ints(picked)
	return picked
}

// sampleRows picks a subsample fraction of row indices without replacement.
func sampleRows(n int, fraction float64, rng *rand.Rand) []int {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	if fraction >= 1 {
		return all
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	rng.Shuffle(n, func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:k]
	sort.Ints(picked)
	return picked
}

// bootstrapRows draws n row indices with replacement.
func bootstrapRows(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}
