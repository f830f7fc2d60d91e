// Package mat44 holds row-major 4x4 matrices in the row-vector convention
// used by DCC world matrices: rows 0-2 are the basis vectors and row 3 is the
// translation.
package mat44

import "ray-intersector/vmath/vec3"

type T [16]float64

func Identity() T {
	return T{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns the identity with its translation row set to x.
func Translate(x vec3.T) T {
	m := Identity()
	m[12], m[13], m[14] = x[0], x[1], x[2]
	return m
}

// FromBasis assembles a matrix from three basis rows and a translation.
func FromBasis(x, y, z, offset vec3.T) T {
	return T{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		offset[0], offset[1], offset[2], 1,
	}
}

func (m T) At(r, c int) float64 {
	return m[r*4+c]
}

// Row returns the first three elements of row r.
func Row(m T, r int) vec3.T {
	return vec3.T{m[r*4], m[r*4+1], m[r*4+2]}
}

func Translation(m T) vec3.T {
	return Row(m, 3)
}

func MulMM(a, b T) T {
	result := T{}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				result[i*4+j] += a[i*4+k] * b[k*4+j]
			}
		}
	}
	return result
}

// TransformPoint maps p through m as the row vector [p 1].
func TransformPoint(m T, p vec3.T) vec3.T {
	return vec3.T{
		p[0]*m[0] + p[1]*m[4] + p[2]*m[8] + m[12],
		p[0]*m[1] + p[1]*m[5] + p[2]*m[9] + m[13],
		p[0]*m[2] + p[1]*m[6] + p[2]*m[10] + m[14],
	}
}
