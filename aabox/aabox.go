package aabox

import (
	"math"

	"ray-intersector/ray"
	"ray-intersector/vmath/vec3"
)

type AABox struct {
	X, Y, Z ray.Span
}

// AccumZeroAABox is the identity for MinContainingAABox.
func AccumZeroAABox() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Y: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Z: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
	}
}

func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		X: ray.MinContainingSpan(a.X, b.X),
		Y: ray.MinContainingSpan(a.Y, b.Y),
		Z: ray.MinContainingSpan(a.Z, b.Z),
	}
}

func GrowAABoxToPoint(a AABox, b vec3.T) AABox {
	return MinContainingAABox(a, AABox{
		X: ray.Span{Lo: b[0], Hi: b[0]},
		Y: ray.Span{Lo: b[1], Hi: b[1]},
		Z: ray.Span{Lo: b[2], Hi: b[2]},
	})
}

func (a AABox) Axis(i int) ray.Span {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	}
	return a.Z
}

func (a AABox) IsFinite() bool {
	return a.X.IsFinite() && a.Y.IsFinite() && a.Z.IsFinite()
}

func (a AABox) SurfaceArea() float64 {
	xLen := a.X.Hi - a.X.Lo
	yLen := a.Y.Hi - a.Y.Lo
	zLen := a.Z.Hi - a.Z.Lo
	return 2 * (xLen*yLen + xLen*zLen + yLen*zLen)
}

// RayTestAABox returns the span of ray parameters for which the segment is
// inside the box, or a NaN span if they don't meet.
func RayTestAABox(r ray.RaySegment, b AABox) ray.Span {
	cover := r.TheSegment

	for i := 0; i < 3; i++ {
		slab := b.Axis(i)
		p := r.TheRay.Point[i]
		s := r.TheRay.Slope[i]

		if s == 0 {
			// Parallel to the slab; either always inside it or never.
			if p < slab.Lo || slab.Hi < p {
				return ray.NaNSpan()
			}
			continue
		}

		cur := ray.Span{Lo: (slab.Lo - p) / s, Hi: (slab.Hi - p) / s}
		if cur.Hi < cur.Lo {
			cur.Lo, cur.Hi = cur.Hi, cur.Lo
		}
		if !ray.SpanOverlaps(cover, cur) {
			return ray.NaNSpan()
		}
		if cur.Lo > cover.Lo {
			cover.Lo = cur.Lo
		}
		if cur.Hi < cover.Hi {
			cover.Hi = cur.Hi
		}
	}

	return cover
}
