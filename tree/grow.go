package tree

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/j3schaue/intro-to-random-forests/dataset"
)

// grower holds the shared state of one tree fit: the predictor columns,
// the outcome target and the working buffers reused across nodes.
type grower struct {
	X           []dataset.Column
	tgt         target
	mtry        int
	minNodeSize int
	maxDepth    int
	rng         *rand.Rand
	features    []int
	ordBuf      []int
}

type split struct {
	delta     float64
	feature   int
	discrete  bool
	threshold float64
	category  int
}

type stackItem struct {
	node  *Node
	inx   []int
	depth int
}

func (t *Tree) fit(X []dataset.Column, tgt target, nRows int, inx []int) error {
	if len(X) == 0 {
		return fmt.Errorf("fitting tree: no predictor columns")
	}
	for _, c := range X {
		n := len(c.Floats)
		if !c.Continuous() {
			n = len(c.Codes)
		}
		if n != nRows {
			return fmt.Errorf("fitting tree: column %s has %d rows, expected %d", c.Feature.Name(), n, nRows)
		}
	}
	if len(inx) == 0 {
		return fmt.Errorf("fitting tree: no rows to fit")
	}
	t.nFeatures = len(X)

	mtry := t.MTry
	if mtry < 0 {
		mtry = len(X)
	}
	if mtry < 1 || mtry > len(X) {
		return fmt.Errorf("invalid mtry %d: must be between 1 and %d", t.MTry, len(X))
	}
	if t.MinNodeSize < 1 {
		return fmt.Errorf("invalid min node size %d: must be at least 1", t.MinNodeSize)
	}

	g := &grower{
		X:           X,
		tgt:         tgt,
		mtry:        mtry,
		minNodeSize: t.MinNodeSize,
		maxDepth:    t.MaxDepth,
		rng:         t.randState,
		features:    make([]int, len(X)),
		ordBuf:      make([]int, len(inx)),
	}
	for i := range g.features {
		g.features[i] = i
	}

	t.Root = &Node{}
	g.grow(t.Root, inx)
	return nil
}

func (g *grower) grow(root *Node, inx []int) {
	var s stack
	s.Push(&stackItem{root, inx, 0})

	for !s.Empty() {
		w := s.Pop()
		n := w.node

		g.tgt.init(w.inx)
		n.Samples = len(w.inx)
		n.Impurity = g.tgt.nodeImpurity()
		g.tgt.fillLeaf(n)

		if len(w.inx) <= g.minNodeSize ||
			(g.maxDepth >= 0 && w.depth == g.maxDepth) ||
			n.Impurity <= impurityEpsilon {
			n.Leaf = true
			continue
		}

		best := g.bestSplit(w.inx)
		if best.delta <= impurityEpsilon {
			// no candidate split reduces impurity
			n.Leaf = true
			continue
		}

		l, r := g.partition(w.inx, best)
		if len(l) == 0 || len(r) == 0 {
			n.Leaf = true
			continue
		}

		n.Feature = best.feature
		n.Discrete = best.discrete
		n.Threshold = best.threshold
		n.Category = best.category
		n.Left = &Node{}
		n.Right = &Node{}

		s.Push(&stackItem{n.Left, l, w.depth + 1})
		s.Push(&stackItem{n.Right, r, w.depth + 1})
	}
}

// bestSplit draws mtry candidate predictors without replacement using
// Fisher-Yates and returns the best split found on them. The returned
// split has delta 0 when no candidate reduces impurity.
func (g *grower) bestSplit(inx []int) split {
	var best split

	j := len(g.features) - 1
	visited := 0
	for j >= 0 && visited < g.mtry {
		k := g.rng.Intn(j + 1)
		g.features[k], g.features[j] = g.features[j], g.features[k]
		f := g.features[j]
		j--
		visited++

		if g.X[f].Continuous() {
			g.bestContinuousSplit(inx, f, &best)
		} else {
			g.bestCategoricalSplit(inx, f, &best)
		}
	}
	return best
}

func (g *grower) bestContinuousSplit(inx []int, f int, best *split) {
	x := g.X[f].Floats

	ord := g.ordBuf[:len(inx)]
	copy(ord, inx)
	sort.Slice(ord, func(a, b int) bool { return x[ord[a]] < x[ord[b]] })

	if x[ord[len(ord)-1]] <= x[ord[0]]+impurityEpsilon {
		return // constant within the node
	}

	g.tgt.startScan()
	for i := 1; i < len(ord); i++ {
		g.tgt.moveLeft(ord[i-1])
		if x[ord[i]] <= x[ord[i-1]]+impurityEpsilon {
			continue // can't split between equal values
		}
		if d := g.tgt.scanDelta(); d > best.delta {
			*best = split{
				delta:     d,
				feature:   f,
				threshold: (x[ord[i-1]] + x[ord[i]]) / 2.0,
			}
		}
	}
}

func (g *grower) bestCategoricalSplit(inx []int, f int, best *split) {
	codes := g.X[f].Codes
	k := g.X[f].Cardinality()

	g.tgt.startCats(k)
	for _, r := range inx {
		g.tgt.addCat(codes[r], r)
	}

	for cat := 0; cat < k; cat++ {
		d, nLeft := g.tgt.catDelta(cat)
		if nLeft == 0 || nLeft == len(inx) {
			continue
		}
		if d > best.delta {
			*best = split{
				delta:    d,
				feature:  f,
				discrete: true,
				category: cat,
			}
		}
	}
}

// partition reorders inx in place so rows satisfying the split come first
// and returns the left and right halves.
func (g *grower) partition(inx []int, sp split) ([]int, []int) {
	goesLeft := func(r int) bool {
		if sp.discrete {
			return g.X[sp.feature].Codes[r] == sp.category
		}
		return g.X[sp.feature].Floats[r] <= sp.threshold
	}

	i := 0
	j := len(inx)
	for i < j {
		if goesLeft(inx[i]) {
			i++
		} else {
			j--
			inx[j], inx[i] = inx[i], inx[j]
		}
	}
	return inx[:i], inx[i:]
}

// lifo stack for unexpanded nodes
type stack []*stackItem

func (s stack) Empty() bool        { return len(s) == 0 }
func (s *stack) Push(n *stackItem) { *s = append(*s, n) }
func (s *stack) Pop() *stackItem {
	d := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return d
}
