package depgraph

import (
	"github.com/kvesta/vulngate/pkg/coordinate"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Node is one vertex of a rooted dependency tree.
type Node struct {
	Artifact Artifact `json:"artifact" yaml:"artifact"`
	Children []*Node  `json:"children,omitempty" yaml:"children,omitempty"`
}

// Reduction is the outcome of walking a dependency tree.
type Reduction struct {
	// Coordinates holds every distinct coordinate in first-seen order.
	Coordinates []coordinate.Coordinate

	// Origins maps each coordinate to the first artifact that produced it.
	Origins map[coordinate.Coordinate]Artifact
}

// Reduce collects the coordinates of the direct children of root and, when
// transitive is set, of every descendant. The root itself is never included.
// The tree must be acyclic.
func Reduce(root *Node, transitive bool) *Reduction {
	r := &Reduction{
		Origins: map[coordinate.Coordinate]Artifact{},
	}

	if root == nil {
		return r
	}

	seen := sets.New[coordinate.Coordinate]()

	// explicit stack, children pushed in reverse to visit them in declared order
	stack := pushReversed(nil, root.Children)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := node.Artifact.Coordinate()
		if !seen.Has(c) {
			seen.Insert(c)
			r.Coordinates = append(r.Coordinates, c)
			r.Origins[c] = node.Artifact
		}

		if transitive {
			stack = pushReversed(stack, node.Children)
		}
	}

	return r
}

func pushReversed(stack, children []*Node) []*Node {
	for i := len(children) - 1; i >= 0; i-- {
		if children[i] == nil {
			continue
		}
		stack = append(stack, children[i])
	}
	return stack
}

// Prune returns a copy of the tree without the nodes rejected by f, together
// with their subtrees. The root is always kept. A nil filter keeps everything.
func (n *Node) Prune(f *Filter) *Node {
	if n == nil {
		return nil
	}

	type pair struct{ src, dst *Node }

	root := &Node{Artifact: n.Artifact}
	work := []pair{{src: n, dst: root}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		for _, child := range p.src.Children {
			if child == nil || !f.Include(child.Artifact) {
				continue
			}
			copied := &Node{Artifact: child.Artifact}
			p.dst.Children = append(p.dst.Children, copied)
			work = append(work, pair{src: child, dst: copied})
		}
	}
	return root
}
