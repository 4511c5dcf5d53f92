package gbdt

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Node is one tree node. Internal nodes send rows with
// row[Feature] <= Threshold to Left. Leaves carry Value.
type Node struct {
	Feature   int
	Threshold float64
	Bin       uint8
	Left      int
	Right     int
	Leaf      bool
	Value     float64
}

// Tree is a flat array of nodes rooted at index 0
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t *Tree) predictBinned(cols []featureBins, r int) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if cols[n.Feature].bins[r] <= n.Bin {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// split is the best candidate split found for one growing leaf
type split struct {
	feature   int
	bin       int
	gain      float64
	leftGrad  float64
	leftCount int
}

// growingLeaf is a leaf that may still be split
type growingLeaf struct {
	node    int
	rows    []int32
	sumGrad float64
	best    *split
}

// treeBuilder grows one tree leaf-wise on the current gradients
type treeBuilder struct {
	cfg      Config
	cols     []featureBins
	grad     []float64
	features []int
}

func (b *treeBuilder) build(ctx context.Context, rows []int32) (Tree, error) {
	tree := Tree{Nodes: []Node{{Leaf: true}}}

	root := &growingLeaf{node: 0, rows: rows, sumGrad: b.sumGrad(rows)}
	if err := b.findSplit(ctx, root); err != nil {
		return Tree{}, err
	}
	leaves := []*growingLeaf{root}

	for len(leaves) < b.cfg.NumLeaves {
		pick := -1
		for i, l := range leaves {
			if l.best == nil {
				continue
			}
			if pick < 0 || l.best.gain > leaves[pick].best.gain {
				pick = i
			}
		}
		if pick < 0 {
			break
		}

		parent := leaves[pick]
		s := parent.best
		fb := &b.cols[s.feature]

		left := make([]int32, 0, s.leftCount)
		right := make([]int32, 0, len(parent.rows)-s.leftCount)
		for _, r := range parent.rows {
			if int(fb.bins[r]) <= s.bin {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		}

		leftIdx := len(tree.Nodes)
		rightIdx := leftIdx + 1
		tree.Nodes = append(tree.Nodes, Node{Leaf: true}, Node{Leaf: true})
		tree.Nodes[parent.node] = Node{
			Feature:   s.feature,
			Threshold: fb.bounds[s.bin],
			Bin:       uint8(s.bin),
			Left:      leftIdx,
			Right:     rightIdx,
		}

		l := &growingLeaf{node: leftIdx, rows: left, sumGrad: s.leftGrad}
		r := &growingLeaf{node: rightIdx, rows: right, sumGrad: parent.sumGrad - s.leftGrad}
		leaves[pick] = l
		leaves = append(leaves, r)

		if len(leaves) < b.cfg.NumLeaves {
			if err := b.findSplit(ctx, l); err != nil {
				return Tree{}, err
			}
			if err := b.findSplit(ctx, r); err != nil {
				return Tree{}, err
			}
		}
	}

	for _, l := range leaves {
		tree.Nodes[l.node].Value = b.leafValue(l.sumGrad, len(l.rows))
	}
	return tree, nil
}

func (b *treeBuilder) sumGrad(rows []int32) float64 {
	var s float64
	for _, r := range rows {
		s += b.grad[r]
	}
	return s
}

// leafValue is the shrunken Newton step for squared error, where every
// hessian is 1.
func (b *treeBuilder) leafValue(sumGrad float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return -b.cfg.LearningRate * sumGrad / (float64(count) + b.cfg.LambdaL2)
}

func (b *treeBuilder) score(sumGrad float64, count int) float64 {
	return sumGrad * sumGrad / (float64(count) + b.cfg.LambdaL2)
}

// findSplit scans the histogram of every candidate feature and records the
// best split on the leaf. Features are scanned in parallel; the reduction
// runs in feature order so ties resolve the same way on every run.
func (b *treeBuilder) findSplit(ctx context.Context, leaf *growingLeaf) error {
	leaf.best = nil
	if len(leaf.rows) < 2*b.cfg.MinDataInLeaf {
		return nil
	}

	candidates := make([]*split, len(b.features))
	parentScore := b.score(leaf.sumGrad, len(leaf.rows))

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(b.features) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(b.features); start += chunk {
		start, end := start, min(start+chunk, len(b.features))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var gradHist [256]float64
			var countHist [256]int
			for i := start; i < end; i++ {
				candidates[i] = b.bestForFeature(b.features[i], leaf, parentScore, &gradHist, &countHist)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range candidates {
		if c == nil {
			continue
		}
		if leaf.best == nil || c.gain > leaf.best.gain {
			leaf.best = c
		}
	}
	return nil
}

func (b *treeBuilder) bestForFeature(f int, leaf *growingLeaf, parentScore float64, gradHist *[256]float64, countHist *[256]int) *split {
	fb := &b.cols[f]
	nb := fb.numBins()
	if nb < 2 {
		return nil
	}

	for i := 0; i < nb; i++ {
		gradHist[i] = 0
		countHist[i] = 0
	}
	for _, r := range leaf.rows {
		bin := fb.bins[r]
		gradHist[bin] += b.grad[r]
		countHist[bin]++
	}

	total := len(leaf.rows)
	var best *split
	var leftGrad float64
	leftCount := 0
	for bin := 0; bin < nb-1; bin++ {
		leftGrad += gradHist[bin]
		leftCount += countHist[bin]
		rightCount := total - leftCount
		if leftCount < b.cfg.MinDataInLeaf {
			continue
		}
		if rightCount < b.cfg.MinDataInLeaf {
			break
		}
		if countHist[bin] == 0 && bin > 0 {
			continue
		}
		gain := b.score(leftGrad, leftCount) + b.score(leaf.sumGrad-leftGrad, rightCount) - parentScore
		if gain <= 0 {
			continue
		}
		if best == nil || gain > best.gain {
			best = &split{feature: f, bin: bin, gain: gain, leftGrad: leftGrad, leftCount: leftCount}
		}
	}
	return best
}
