package kdtree

import (
	"math"
	"math/rand"

	"ray-intersector/aabox"
)

type KDElement struct {
	// A handle back into some other storage array.
	Ref int

	// The bounds of this element.
	Bounds aabox.AABox
}

type KDNode struct {
	Bounds aabox.AABox

	Elements []KDElement

	LoChild *KDNode
	HiChild *KDNode
}

func centroid(b aabox.AABox, axis int) float64 {
	s := b.Axis(axis)
	return (s.Lo + s.Hi) / 2
}

func boundsOf(elements []KDElement) aabox.AABox {
	box := aabox.AccumZeroAABox()
	for _, element := range elements {
		box = aabox.MinContainingAABox(box, element.Bounds)
	}
	return box
}

// trialsPerAxis is the number of random candidate cuts checked on each axis.
const trialsPerAxis = 5

func (cur *KDNode) refineViaSurfaceAreaHeuristic(splitCost float64, rng *rand.Rand) {
	parentArea := cur.Bounds.SurfaceArea()
	if parentArea <= 0 || math.IsNaN(parentArea) {
		return
	}

	bestObjective := math.Inf(1)
	bestLoBox := aabox.AABox{}
	bestHiBox := aabox.AABox{}
	var bestPrecedingElements, bestSucceedingElements []KDElement

	for axis := 0; axis < 3; axis++ {
		for i := 0; i < trialsPerAxis; i++ {
			trialCut := centroid(cur.Elements[rng.Intn(len(cur.Elements))].Bounds, axis)

			precedingElements := []KDElement{}
			succeedingElements := []KDElement{}
			for _, element := range cur.Elements {
				if centroid(element.Bounds, axis) < trialCut {
					precedingElements = append(precedingElements, element)
				} else {
					succeedingElements = append(succeedingElements, element)
				}
			}

			// A cut that leaves one side empty makes no progress.
			if len(precedingElements) == 0 || len(succeedingElements) == 0 {
				continue
			}

			loBox := boundsOf(precedingElements)
			hiBox := boundsOf(succeedingElements)

			// Expected number of element tests for a ray that hits the parent.
			objective := (float64(len(precedingElements))*loBox.SurfaceArea() +
				float64(len(succeedingElements))*hiBox.SurfaceArea()) / parentArea

			if objective < bestObjective {
				bestObjective = objective
				bestPrecedingElements = precedingElements
				bestSucceedingElements = succeedingElements
				bestLoBox = loBox
				bestHiBox = hiBox
			}
		}
	}

	// Now we have a pretty good split, but we need to check that it's a
	// good-enough improvement over just not splitting.
	if bestObjective+splitCost >= float64(len(cur.Elements)) {
		return
	}

	cur.LoChild = &KDNode{
		Bounds:   bestLoBox,
		Elements: bestPrecedingElements,
	}
	cur.HiChild = &KDNode{
		Bounds:   bestHiBox,
		Elements: bestSucceedingElements,
	}

	// All of cur's elements have been divided among its children.
	cur.Elements = nil
}

type KDTree struct {
	Root *KDNode
}

func NewKDTree(elements []KDElement) *KDTree {
	return &KDTree{
		Root: &KDNode{
			Bounds:   boundsOf(elements),
			Elements: elements,
		},
	}
}

// RefineViaSurfaceAreaHeuristic splits leaves with at least leafSize elements
// for as long as the heuristic says a split pays for its traversal cost.  The
// cut candidates come from a fixed-seed source, so refinement is
// reproducible.
func (t *KDTree) RefineViaSurfaceAreaHeuristic(splitCost float64, leafSize int) {
	rng := rand.New(rand.NewSource(12345))

	workStack := []*KDNode{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if len(cur.Elements) < leafSize || len(cur.Elements) < 2 {
			continue
		}

		cur.refineViaSurfaceAreaHeuristic(splitCost, rng)

		if cur.LoChild != nil {
			workStack = append(workStack, cur.LoChild)
		}
		if cur.HiChild != nil {
			workStack = append(workStack, cur.HiChild)
		}
	}
}

// Depth returns the number of levels in the tree.
func (t *KDTree) Depth() int {
	var depth func(n *KDNode) int
	depth = func(n *KDNode) int {
		if n == nil {
			return 0
		}
		lo, hi := depth(n.LoChild), depth(n.HiChild)
		if hi > lo {
			lo = hi
		}
		return lo + 1
	}
	return depth(t.Root)
}

type KDSelector func(b aabox.AABox) bool
type KDVisitor func(i int)

// Query calls visitor for the Ref of every element whose bounds, and whose
// enclosing nodes' bounds, pass selector.  The selector is consulted lazily,
// so a visitor that narrows the selector's criteria prunes the remainder of
// the walk.
func (t *KDTree) Query(selector KDSelector, visitor KDVisitor) {
	workStack := []*KDNode{t.Root}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		if !selector(cur.Bounds) {
			continue
		}

		for i := range cur.Elements {
			if !selector(cur.Elements[i].Bounds) {
				continue
			}
			visitor(cur.Elements[i].Ref)
		}

		if cur.LoChild != nil {
			workStack = append(workStack, cur.LoChild)
		}
		if cur.HiChild != nil {
			workStack = append(workStack, cur.HiChild)
		}
	}
}
