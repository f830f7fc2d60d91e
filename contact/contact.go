package contact

import (
	"math"

	"ray-intersector/ray"
	"ray-intersector/vmath/vec3"
)

// Contact describes where a ray meets a surface.
type Contact struct {
	// Ray parameter of the hit.  Rays carry unit slopes, so this is also the
	// distance from the ray's origin.
	T float64
	R ray.Ray
	P vec3.T
	N vec3.T

	// Index of the source polygon that was hit.
	Face int
}

func ContactNaN() Contact {
	return Contact{
		T:    math.NaN(),
		Face: -1,
	}
}

func (c Contact) IsNaN() bool {
	return math.IsNaN(c.T)
}

// Distance is the Euclidean distance from the ray origin to the hit point.
func (c Contact) Distance() float64 {
	return vec3.Dist(c.P, c.R.Point)
}
