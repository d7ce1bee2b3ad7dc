package predictor

import "sort"

// treeNode is a single node of a regression tree. Leaves carry the value;
// internal nodes route on Feature <= Threshold.
type treeNode struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

const minSamplesLeaf = 1

// growTree fits a depth-limited regression tree on the rows selected by idx,
// greedily choosing the split with the largest squared-error reduction.
func growTree(x [][]float64, y []float64, idx []int, maxDepth int) regressionTree {
	tree := regressionTree{}
	tree.grow(x, y, idx, maxDepth)
	return tree
}

func (t *regressionTree) grow(x [][]float64, y []float64, idx []int, depthLeft int) int {
	nodeIndex := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{})

	mean := meanOf(y, idx)
	if depthLeft == 0 || len(idx) < 2*minSamplesLeaf+1 {
		t.Nodes[nodeIndex] = treeNode{Leaf: true, Value: mean}
		return nodeIndex
	}

	feature, threshold, ok := bestSplit(x, y, idx)
	if !ok {
		t.Nodes[nodeIndex] = treeNode{Leaf: true, Value: mean}
		return nodeIndex
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		t.Nodes[nodeIndex] = treeNode{Leaf: true, Value: mean}
		return nodeIndex
	}

	leftIndex := t.grow(x, y, left, depthLeft-1)
	rightIndex := t.grow(x, y, right, depthLeft-1)
	t.Nodes[nodeIndex] = treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      leftIndex,
		Right:     rightIndex,
	}
	return nodeIndex
}

// bestSplit scans every feature with a sorted sweep, tracking prefix sums so
// each candidate threshold is evaluated in O(1).
func bestSplit(x [][]float64, y []float64, idx []int) (int, float64, bool) {
	if len(idx) < 2 {
		return 0, 0, false
	}
	nFeatures := len(x[idx[0]])

	var (
		totalSum, totalSq float64
	)
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	total := float64(len(idx))
	baseSSE := totalSq - totalSum*totalSum/total

	bestGain := 1e-12
	bestFeature := -1
	bestThreshold := 0.0

	order := make([]int, len(idx))
	for feature := 0; feature < nFeatures; feature++ {
		copy(order, idx)
		f := feature
		sort.Slice(order, func(a, b int) bool {
			return x[order[a]][f] < x[order[b]][f]
		})

		var leftSum, leftSq float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			current := x[i][feature]
			next := x[order[pos+1]][feature]
			if current == next {
				continue
			}

			leftN := float64(pos + 1)
			rightN := total - leftN
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq

			sse := (leftSq - leftSum*leftSum/leftN) + (rightSq - rightSum*rightSum/rightN)
			gain := baseSSE - sse
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (current + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func meanOf(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
