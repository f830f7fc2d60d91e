package ray

import (
	"math"

	"ray-intersector/vmath/vec3"
)

type Span struct {
	Lo, Hi float64
}

func NaNSpan() Span {
	return Span{math.NaN(), math.NaN()}
}

// PositiveSpan covers every strictly positive ray parameter.
func PositiveSpan() Span {
	return Span{0, math.Inf(1)}
}

func SpanOverlaps(a, b Span) bool {
	return !(a.Lo > b.Hi || a.Hi < b.Lo)
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

func (s Span) IsFinite() bool {
	return !math.IsInf(s.Lo, 0) && !math.IsInf(s.Hi, 0)
}

func (s Span) IsNaN() bool {
	return math.IsNaN(s.Lo) || math.IsNaN(s.Hi)
}

// Ray is a half-line.  Slope is kept at unit length, so ray parameters are
// distances.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}
