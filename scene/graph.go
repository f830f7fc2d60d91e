package scene

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"ray-intersector/contact"
	"ray-intersector/ray"
	"ray-intersector/trimesh"
	"ray-intersector/vmath/mat44"
	"ray-intersector/vmath/vec3"
)

type Kind int

const (
	KindTransform Kind = iota
	KindJoint
	KindMesh
	KindLocator
)

var kindNames = [...]string{"transform", "joint", "mesh", "locator"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// IsTransform reports whether nodes of this kind can drive a binding.
func (k Kind) IsTransform() bool {
	return k == KindTransform || k == KindJoint
}

var (
	ErrNameTaken    = errors.New("node name already in use")
	ErrNoSuchNode   = errors.New("no such node")
	ErrNoMeshData   = errors.New("mesh node has no mesh data")
	ErrNotAMeshNode = errors.New("node is not a mesh")
)

// Node is one entry in the scene hierarchy.
type Node struct {
	Name string
	Kind Kind

	// The node's own visibility flag.  See Visible for the effective value.
	Visibility bool

	// Intermediate marks construction-history geometry, which never renders.
	Intermediate bool

	// World is the node's world matrix.
	World mat44.T

	// Mesh holds world-space geometry for KindMesh nodes.
	Mesh *trimesh.Mesh

	parent   *Node
	children []*Node
}

func (n *Node) String() string {
	return n.Name
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

// Visible is true when the node and all of its ancestors have their
// visibility flag set and the node is not intermediate.
func (n *Node) Visible() bool {
	if n.Intermediate {
		return false
	}
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.Visibility {
			return false
		}
	}
	return true
}

func (n *Node) ClosestHit(r ray.Ray) (contact.Contact, bool, error) {
	if n.Kind != KindMesh {
		return contact.ContactNaN(), false, fmt.Errorf("%w: %q is a %v", ErrNotAMeshNode, n.Name, n.Kind)
	}
	if n.Mesh == nil {
		return contact.ContactNaN(), false, fmt.Errorf("%w: %q", ErrNoMeshData, n.Name)
	}
	c, ok, err := n.Mesh.ClosestIntersection(r)
	if err != nil {
		return c, false, fmt.Errorf("while intersecting mesh %q: %w", n.Name, err)
	}
	return c, ok, nil
}

func (n *Node) Translation() vec3.T {
	return mat44.Translation(n.World)
}

func (n *Node) SetTranslation(p vec3.T) {
	n.World[12], n.World[13], n.World[14] = p[0], p[1], p[2]
}

// Graph is a forest of uniquely named nodes plus the current selection.
type Graph struct {
	roots     []*Node
	byName    map[string]*Node
	selection []string
}

func NewGraph() *Graph {
	return &Graph{
		byName: map[string]*Node{},
	}
}

// AddNode inserts n under parent, or at the top level if parent is nil.
func (g *Graph) AddNode(parent, n *Node) error {
	if n.Name == "" {
		return fmt.Errorf("node has no name")
	}
	if _, ok := g.byName[n.Name]; ok {
		return fmt.Errorf("%w: %q", ErrNameTaken, n.Name)
	}
	if parent != nil {
		if g.byName[parent.Name] != parent {
			return fmt.Errorf("%w: parent %q is not in this graph", ErrNoSuchNode, parent.Name)
		}
		n.parent = parent
		parent.children = append(parent.children, n)
	} else {
		g.roots = append(g.roots, n)
	}
	g.byName[n.Name] = n
	return nil
}

// CreateNode adds a fresh visible node at the origin and selects it, the way
// interactive node creation does.
func (g *Graph) CreateNode(name string, kind Kind, parent *Node) (*Node, error) {
	n := &Node{
		Name:       name,
		Kind:       kind,
		Visibility: true,
		World:      mat44.Identity(),
	}
	if err := g.AddNode(parent, n); err != nil {
		return nil, err
	}
	g.selection = []string{name}
	return n, nil
}

func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Walk yields every node depth-first, parents before children, siblings in
// insertion order.
func (g *Graph) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		stack := make([]*Node, 0, len(g.roots))
		for i := len(g.roots) - 1; i >= 0; i-- {
			stack = append(stack, g.roots[i])
		}
		for len(stack) != 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(cur) {
				return
			}
			for i := len(cur.children) - 1; i >= 0; i-- {
				stack = append(stack, cur.children[i])
			}
		}
	}
}

// Meshes yields every mesh node in Walk order, visible or not.
func (g *Graph) Meshes() iter.Seq[Object] {
	return func(yield func(Object) bool) {
		for n := range g.Walk() {
			if n.Kind != KindMesh {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

func (g *Graph) Selection() []string {
	return append([]string(nil), g.selection...)
}

// Select replaces the selection.  Every name must exist.
func (g *Graph) Select(names ...string) error {
	for _, name := range names {
		if _, ok := g.byName[name]; !ok {
			return fmt.Errorf("%w: %q", ErrNoSuchNode, name)
		}
	}
	g.selection = append([]string(nil), names...)
	return nil
}
