package trimesh

import (
	"math"

	"ray-intersector/vmath/vec3"
)

// UVSphere approximates a sphere with poles on the Y axis.  segments is the
// number of meridians and rings the number of latitude bands.
func UVSphere(center vec3.T, radius float64, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	vertices := []vec3.T{vec3.AddVV(center, vec3.T{0, radius, 0})}
	for j := 1; j < rings; j++ {
		theta := math.Pi * float64(j) / float64(rings)
		y := radius * math.Cos(theta)
		rho := radius * math.Sin(theta)
		for k := 0; k < segments; k++ {
			phi := 2 * math.Pi * float64(k) / float64(segments)
			vertices = append(vertices, vec3.AddVV(center, vec3.T{rho * math.Cos(phi), y, rho * math.Sin(phi)}))
		}
	}
	vertices = append(vertices, vec3.AddVV(center, vec3.T{0, -radius, 0}))

	top := 0
	bottom := len(vertices) - 1
	ringVertex := func(j, k int) int {
		return 1 + (j-1)*segments + k%segments
	}

	faces := [][]int{}
	for k := 0; k < segments; k++ {
		faces = append(faces, []int{top, ringVertex(1, k+1), ringVertex(1, k)})
	}
	for j := 1; j+1 < rings; j++ {
		for k := 0; k < segments; k++ {
			faces = append(faces, []int{
				ringVertex(j, k),
				ringVertex(j, k+1),
				ringVertex(j+1, k+1),
				ringVertex(j+1, k),
			})
		}
	}
	for k := 0; k < segments; k++ {
		faces = append(faces, []int{bottom, ringVertex(rings-1, k), ringVertex(rings-1, k+1)})
	}

	return New(vertices, faces)
}

// Box is an axis-aligned box spanning lo to hi, with one quad per side.
func Box(lo, hi vec3.T) *Mesh {
	vertices := []vec3.T{
		{lo[0], lo[1], lo[2]},
		{hi[0], lo[1], lo[2]},
		{hi[0], hi[1], lo[2]},
		{lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]},
		{hi[0], lo[1], hi[2]},
		{hi[0], hi[1], hi[2]},
		{lo[0], hi[1], hi[2]},
	}
	faces := [][]int{
		{0, 3, 2, 1}, // -Z
		{4, 5, 6, 7}, // +Z
		{0, 1, 5, 4}, // -Y
		{3, 7, 6, 2}, // +Y
		{0, 4, 7, 3}, // -X
		{1, 2, 6, 5}, // +X
	}
	return New(vertices, faces)
}

// Quad is the parallelogram with one corner at corner and sides u and v.
func Quad(corner, u, v vec3.T) *Mesh {
	return New(
		[]vec3.T{
			corner,
			vec3.AddVV(corner, u),
			vec3.AddVV(vec3.AddVV(corner, u), v),
			vec3.AddVV(corner, v),
		},
		[][]int{{0, 1, 2, 3}},
	)
}
