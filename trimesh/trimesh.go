// Package trimesh holds polygon meshes and answers closest-hit ray queries
// against them.
//
// Polygons are fan-triangulated and indexed by a kdtree the first time the
// mesh is queried.  After that the mesh is immutable and safe for concurrent
// queries.
package trimesh

import (
	"math"
	"sync"

	"ray-intersector/aabox"
	"ray-intersector/contact"
	"ray-intersector/kdtree"
	"ray-intersector/ray"
	"ray-intersector/vmath/mat44"
	"ray-intersector/vmath/vec3"
)

const (
	// Below this determinant magnitude a ray is treated as lying in the
	// triangle's plane.
	parallelEpsilon = 1e-12

	splitCost = 1.0
	leafSize  = 4
)

type triangle struct {
	v0, e1, e2 vec3.T
	face       int
}

// intersect is the Moller-Trumbore test.  Triangles are two-sided.
func (tri *triangle) intersect(r *ray.Ray, seg ray.Span) (float64, bool) {
	h := vec3.CProd(r.Slope, tri.e2)
	a := vec3.IProd(tri.e1, h)
	if a > -parallelEpsilon && a < parallelEpsilon {
		return 0, false
	}

	f := 1.0 / a
	s := vec3.SubVV(r.Point, tri.v0)
	u := f * vec3.IProd(s, h)
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := vec3.CProd(s, tri.e1)
	v := f * vec3.IProd(r.Slope, q)
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	t := f * vec3.IProd(tri.e2, q)
	if t <= seg.Lo || seg.Hi < t {
		return 0, false
	}
	return t, true
}

func (tri *triangle) bounds() aabox.AABox {
	b := aabox.AccumZeroAABox()
	b = aabox.GrowAABoxToPoint(b, tri.v0)
	b = aabox.GrowAABoxToPoint(b, vec3.AddVV(tri.v0, tri.e1))
	b = aabox.GrowAABoxToPoint(b, vec3.AddVV(tri.v0, tri.e2))
	return b
}

// Mesh is a polygon mesh.  Faces index into Vertices and may have any number
// of corners from three up; they are assumed convex.
type Mesh struct {
	Vertices []vec3.T
	Faces    [][]int

	once      sync.Once
	triangles []triangle
	tree      *kdtree.KDTree
	buildErr  error
}

func New(vertices []vec3.T, faces [][]int) *Mesh {
	return &Mesh{
		Vertices: vertices,
		Faces:    faces,
	}
}

func (m *Mesh) build() {
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			m.buildErr = newError(-1, "vertex %d is not finite: %v", i, v)
			return
		}
	}

	elements := []kdtree.KDElement{}
	for f, face := range m.Faces {
		if len(face) < 3 {
			m.buildErr = newError(f, "has %d vertices, need at least 3", len(face))
			return
		}
		for _, idx := range face {
			if idx < 0 || idx >= len(m.Vertices) {
				m.buildErr = newError(f, "vertex index %d out of range [0, %d)", idx, len(m.Vertices))
				return
			}
		}

		v0 := m.Vertices[face[0]]
		for k := 1; k+1 < len(face); k++ {
			tri := triangle{
				v0:   v0,
				e1:   vec3.SubVV(m.Vertices[face[k]], v0),
				e2:   vec3.SubVV(m.Vertices[face[k+1]], v0),
				face: f,
			}
			elements = append(elements, kdtree.KDElement{
				Ref:    len(m.triangles),
				Bounds: tri.bounds(),
			})
			m.triangles = append(m.triangles, tri)
		}
	}

	m.tree = kdtree.NewKDTree(elements)
	m.tree.RefineViaSurfaceAreaHeuristic(splitCost, leafSize)
}

// Validate triangulates and indexes the mesh if that hasn't happened yet, and
// reports whether the mesh is well formed.
func (m *Mesh) Validate() error {
	m.once.Do(m.build)
	return m.buildErr
}

// TriangleCount is the number of triangles after fan triangulation.
func (m *Mesh) TriangleCount() (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return len(m.triangles), nil
}

func (m *Mesh) Bounds() (aabox.AABox, error) {
	if err := m.Validate(); err != nil {
		return aabox.AABox{}, err
	}
	return m.tree.Root.Bounds, nil
}

// ClosestIntersection finds the nearest point along r, at any positive
// distance, where r meets the mesh.  r.Slope must be unit length.  Among
// triangles hit at exactly the same distance the first one in face order
// wins.
func (m *Mesh) ClosestIntersection(r ray.Ray) (contact.Contact, bool, error) {
	if err := m.Validate(); err != nil {
		return contact.ContactNaN(), false, err
	}

	query := ray.RaySegment{
		TheRay:     r,
		TheSegment: ray.Span{Lo: 0, Hi: math.Inf(1)},
	}
	bestT := math.Inf(1)
	bestIndex := -1

	selector := func(b aabox.AABox) bool {
		return !aabox.RayTestAABox(query, b).IsNaN()
	}

	visitor := func(i int) {
		t, ok := m.triangles[i].intersect(&query.TheRay, query.TheSegment)
		if !ok {
			return
		}
		if t < bestT || (t == bestT && i < bestIndex) {
			bestT = t
			bestIndex = i
			query.TheSegment.Hi = t
		}
	}

	m.tree.Query(selector, visitor)

	if bestIndex == -1 {
		return contact.ContactNaN(), false, nil
	}

	tri := &m.triangles[bestIndex]
	n := vec3.Normalize(vec3.CProd(tri.e1, tri.e2))
	if vec3.IProd(n, r.Slope) > 0 {
		n = vec3.Neg(n)
	}

	return contact.Contact{
		T:    bestT,
		R:    r,
		P:    r.Eval(bestT),
		N:    n,
		Face: tri.face,
	}, true, nil
}

// Transformed returns a copy of m with every vertex mapped through x.  Faces
// are shared with m.
func (m *Mesh) Transformed(x mat44.T) *Mesh {
	vertices := make([]vec3.T, len(m.Vertices))
	for i, v := range m.Vertices {
		vertices[i] = mat44.TransformPoint(x, v)
	}
	return New(vertices, m.Faces)
}
