// Package scenefile reads scene descriptions written in YAML.
//
// A scene file looks like:
//
//	selection: [aimer]
//	nodes:
//	  - name: aimer
//	    type: transform
//	    world: [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,3,1]
//	  - name: ball
//	    type: transform
//	    children:
//	      - name: ballShape
//	        type: mesh
//	        primitive: {kind: uvSphere, center: [0,0,-5], radius: 1}
//
// World matrices are row-major with the translation in the last row.  Mesh
// vertices are given in object space and baked into world space with the
// mesh node's world matrix.
package scenefile

import (
	"fmt"

	"ray-intersector/scene"
	"ray-intersector/trimesh"
	"ray-intersector/vmath/mat44"
	"ray-intersector/vmath/vec3"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

type File struct {
	Nodes     []Node   `yaml:"nodes"`
	Selection []string `yaml:"selection"`
}

type Node struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Row-major world matrix.  Identity when omitted.
	World []float64 `yaml:"world"`

	// Defaults to true.
	Visible      *bool `yaml:"visible"`
	Intermediate bool  `yaml:"intermediate"`

	Vertices  [][]float64 `yaml:"vertices"`
	Faces     [][]int     `yaml:"faces"`
	Primitive *Primitive  `yaml:"primitive"`

	Children []Node `yaml:"children"`
}

type Primitive struct {
	// One of uvSphere, box or quad.
	Kind string `yaml:"kind"`

	// uvSphere
	Center   []float64 `yaml:"center"`
	Radius   float64   `yaml:"radius"`
	Segments int       `yaml:"segments"`
	Rings    int       `yaml:"rings"`

	// box
	Lo []float64 `yaml:"lo"`
	Hi []float64 `yaml:"hi"`

	// quad
	Corner []float64 `yaml:"corner"`
	U      []float64 `yaml:"u"`
	V      []float64 `yaml:"v"`
}

// Parse decodes a scene file and builds its graph.
func Parse(data []byte) (*scene.Graph, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("while unmarshaling scene file: %w", err)
	}
	return Build(f)
}

// Build turns a decoded scene file into a graph.
func Build(f *File) (*scene.Graph, error) {
	g := scene.NewGraph()

	for i := range f.Nodes {
		if err := addNode(g, nil, &f.Nodes[i]); err != nil {
			return nil, err
		}
	}

	if err := g.Select(f.Selection...); err != nil {
		return nil, fmt.Errorf("while applying selection: %w", err)
	}

	return g, nil
}

func addNode(g *scene.Graph, parent *scene.Node, in *Node) error {
	kind, err := scene.ParseKind(in.Type)
	if err != nil {
		return fmt.Errorf("while reading node %q: %w", in.Name, err)
	}

	world, err := convertMatrix(in.World)
	if err != nil {
		return fmt.Errorf("while reading world matrix of node %q: %w", in.Name, err)
	}

	n := &scene.Node{
		Name:         in.Name,
		Kind:         kind,
		Visibility:   in.Visible == nil || *in.Visible,
		Intermediate: in.Intermediate,
		World:        world,
	}

	hasGeometry := len(in.Vertices) != 0 || len(in.Faces) != 0 || in.Primitive != nil
	if hasGeometry && kind != scene.KindMesh {
		return fmt.Errorf("node %q has geometry but is a %v", in.Name, kind)
	}
	if kind == scene.KindMesh && hasGeometry {
		mesh, err := convertMesh(in)
		if err != nil {
			return fmt.Errorf("while reading mesh of node %q: %w", in.Name, err)
		}
		n.Mesh = mesh.Transformed(world)

		// Malformed meshes stay in the scene; ray casts skip them.
		if err := n.Mesh.Validate(); err != nil {
			glog.Warningf("Mesh node %q is malformed and will never be hit: %v", in.Name, err)
		}
	}

	if err := g.AddNode(parent, n); err != nil {
		return fmt.Errorf("while adding node %q: %w", in.Name, err)
	}

	for i := range in.Children {
		if err := addNode(g, n, &in.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func convertMesh(in *Node) (*trimesh.Mesh, error) {
	if in.Primitive != nil {
		if len(in.Vertices) != 0 || len(in.Faces) != 0 {
			return nil, fmt.Errorf("both a primitive and explicit geometry given")
		}
		return convertPrimitive(in.Primitive)
	}

	vertices := make([]vec3.T, len(in.Vertices))
	for i, v := range in.Vertices {
		cv, err := convertVec3(v)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		vertices[i] = cv
	}
	return trimesh.New(vertices, in.Faces), nil
}

func convertPrimitive(p *Primitive) (*trimesh.Mesh, error) {
	switch p.Kind {
	case "uvSphere":
		center, err := convertVec3OrZero(p.Center)
		if err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		if p.Radius <= 0 {
			return nil, fmt.Errorf("sphere radius must be positive, got %v", p.Radius)
		}
		segments, rings := p.Segments, p.Rings
		if segments == 0 {
			segments = 32
		}
		if rings == 0 {
			rings = 16
		}
		return trimesh.UVSphere(center, p.Radius, segments, rings), nil

	case "box":
		lo, err := convertVec3(p.Lo)
		if err != nil {
			return nil, fmt.Errorf("lo: %w", err)
		}
		hi, err := convertVec3(p.Hi)
		if err != nil {
			return nil, fmt.Errorf("hi: %w", err)
		}
		return trimesh.Box(lo, hi), nil

	case "quad":
		corner, err := convertVec3OrZero(p.Corner)
		if err != nil {
			return nil, fmt.Errorf("corner: %w", err)
		}
		u, err := convertVec3(p.U)
		if err != nil {
			return nil, fmt.Errorf("u: %w", err)
		}
		v, err := convertVec3(p.V)
		if err != nil {
			return nil, fmt.Errorf("v: %w", err)
		}
		return trimesh.Quad(corner, u, v), nil
	}

	return nil, fmt.Errorf("unknown primitive kind %q", p.Kind)
}

func convertMatrix(in []float64) (mat44.T, error) {
	if len(in) == 0 {
		return mat44.Identity(), nil
	}
	if len(in) != 16 {
		return mat44.T{}, fmt.Errorf("got %d elements, want 16", len(in))
	}
	m := mat44.T{}
	copy(m[:], in)
	return m, nil
}

func convertVec3(in []float64) (vec3.T, error) {
	if len(in) != 3 {
		return vec3.T{}, fmt.Errorf("got %d elements, want 3", len(in))
	}
	return vec3.T{in[0], in[1], in[2]}, nil
}

func convertVec3OrZero(in []float64) (vec3.T, error) {
	if len(in) == 0 {
		return vec3.T{}, nil
	}
	return convertVec3(in)
}
