package tree

import "math"

// target accumulates outcome statistics for the node being split. The
// grower initializes it per node, then either scans a sorted continuous
// column moving rows to the left side one at a time, or aggregates rows
// per category and evaluates each category against the rest.
type target interface {
	init(inx []int)
	nodeImpurity() float64
	fillLeaf(n *Node)

	startScan()
	moveLeft(row int)
	scanDelta() float64

	startCats(k int)
	addCat(cat, row int)
	catDelta(cat int) (float64, int)
}

// varTarget measures impurity as outcome variance, for regression trees.
type varTarget struct {
	y []float64

	n        int
	sum, ssq float64
	mean     float64
	imp      float64

	nL       int
	sL, ssqL float64

	catN       []int
	catS, catQ []float64
}

func newVarTarget(y []float64) *varTarget {
	return &varTarget{y: y}
}

func (v *varTarget) init(inx []int) {
	v.n = len(inx)
	v.sum, v.ssq = 0, 0
	for _, i := range inx {
		v.sum += v.y[i]
		v.ssq += v.y[i] * v.y[i]
	}
	v.mean = v.sum / float64(v.n)
	v.imp = variance(v.n, v.sum, v.ssq)
}

func variance(n int, sum, ssq float64) float64 {
	mean := sum / float64(n)
	va := ssq/float64(n) - mean*mean
	if va < 0 {
		va = 0 // rounding
	}
	return va
}

func (v *varTarget) nodeImpurity() float64 {
	return v.imp
}

func (v *varTarget) fillLeaf(n *Node) {
	n.Value = v.mean
}

func (v *varTarget) startScan() {
	v.nL = 0
	v.sL, v.ssqL = 0, 0
}

func (v *varTarget) moveLeft(row int) {
	v.nL++
	v.sL += v.y[row]
	v.ssqL += v.y[row] * v.y[row]
}

func (v *varTarget) scanDelta() float64 {
	return v.delta(v.nL, v.sL, v.ssqL)
}

// delta is the weighted within-child variance decrease of splitting the
// node into a left side with the given statistics and its complement.
func (v *varTarget) delta(nL int, sL, ssqL float64) float64 {
	nR := v.n - nL
	iL := variance(nL, sL, ssqL)
	iR := variance(nR, v.sum-sL, v.ssq-ssqL)
	return v.imp - (float64(nL)/float64(v.n))*iL - (float64(nR)/float64(v.n))*iR
}

func (v *varTarget) startCats(k int) {
	v.catN = resizeInts(v.catN, k)
	v.catS = resizeFloats(v.catS, k)
	v.catQ = resizeFloats(v.catQ, k)
}

func (v *varTarget) addCat(cat, row int) {
	v.catN[cat]++
	v.catS[cat] += v.y[row]
	v.catQ[cat] += v.y[row] * v.y[row]
}

func (v *varTarget) catDelta(cat int) (float64, int) {
	nL := v.catN[cat]
	if nL == 0 || nL == v.n {
		return 0, nL
	}
	return v.delta(nL, v.catS[cat], v.catQ[cat]), nL
}

// classTarget measures impurity as Gini or entropy over outcome class
// counts, for classification trees.
type classTarget struct {
	y          []int
	k          int
	impurityFn func(int, []int) float64

	n      int
	counts []int
	imp    float64

	nL      int
	countsL []int
	scratch []int

	catN      []int
	catCounts [][]int
}

func newClassTarget(y []int, nClasses int, m ImpurityMeasure) *classTarget {
	c := &classTarget{
		y:       y,
		k:       nClasses,
		counts:  make([]int, nClasses),
		countsL: make([]int, nClasses),
		scratch: make([]int, nClasses),
	}
	switch m {
	case Entropy:
		c.impurityFn = entropy
	default:
		c.impurityFn = gini
	}
	return c
}

func (c *classTarget) init(inx []int) {
	c.n = len(inx)
	for i := range c.counts {
		c.counts[i] = 0
	}
	for _, i := range inx {
		c.counts[c.y[i]]++
	}
	c.imp = c.impurityFn(c.n, c.counts)
}

func (c *classTarget) nodeImpurity() float64 {
	return c.imp
}

func (c *classTarget) fillLeaf(n *Node) {
	counts := make([]int, c.k)
	copy(counts, c.counts)
	n.ClassCounts = counts
}

func (c *classTarget) startScan() {
	c.nL = 0
	for i := range c.countsL {
		c.countsL[i] = 0
	}
}

func (c *classTarget) moveLeft(row int) {
	c.nL++
	c.countsL[c.y[row]]++
}

func (c *classTarget) scanDelta() float64 {
	return c.delta(c.nL, c.countsL)
}

func (c *classTarget) delta(nL int, countsL []int) float64 {
	nR := c.n - nL
	for i := range c.scratch {
		c.scratch[i] = c.counts[i] - countsL[i]
	}
	iL := c.impurityFn(nL, countsL)
	iR := c.impurityFn(nR, c.scratch)
	return c.imp - (float64(nL)/float64(c.n))*iL - (float64(nR)/float64(c.n))*iR
}

func (c *classTarget) startCats(k int) {
	c.catN = resizeInts(c.catN, k)
	if cap(c.catCounts) < k {
		c.catCounts = make([][]int, k)
	}
	c.catCounts = c.catCounts[:k]
	for i := range c.catCounts {
		c.catCounts[i] = resizeInts(c.catCounts[i], c.k)
	}
}

func (c *classTarget) addCat(cat, row int) {
	c.catN[cat]++
	c.catCounts[cat][c.y[row]]++
}

func (c *classTarget) catDelta(cat int) (float64, int) {
	nL := c.catN[cat]
	if nL == 0 || nL == c.n {
		return 0, nL
	}
	return c.delta(nL, c.catCounts[cat]), nL
}

// gini impurity
// i_t = sum over k p(c_k|t) (1 - p(c_k|t))
func gini(n int, ct []int) float64 {
	g := 0.0
	for _, c := range ct {
		if c > 0 {
			p := float64(c) / float64(n)
			g += p * p
		}
	}
	return 1.0 - g
}

// entropy
// e_t = - sum over k p(c_k|t) log2 p(c_k|t)
func entropy(n int, ct []int) float64 {
	e := 0.0
	for _, c := range ct {
		if c > 0 {
			p := float64(c) / float64(n)
			e -= p * math.Log2(p)
		}
	}
	return e
}

func resizeInts(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

func resizeFloats(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}
