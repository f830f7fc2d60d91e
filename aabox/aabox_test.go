package aabox

import (
	"math"
	"testing"

	"ray-intersector/ray"
	"ray-intersector/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

func unitBox() AABox {
	return AABox{
		X: ray.Span{Lo: -1, Hi: 1},
		Y: ray.Span{Lo: -1, Hi: 1},
		Z: ray.Span{Lo: -1, Hi: 1},
	}
}

func TestGrowAABoxToPoint(t *testing.T) {
	box := AccumZeroAABox()
	box = GrowAABoxToPoint(box, vec3.T{1, -2, 3})
	box = GrowAABoxToPoint(box, vec3.T{-1, 2, 0})

	want := AABox{
		X: ray.Span{Lo: -1, Hi: 1},
		Y: ray.Span{Lo: -2, Hi: 2},
		Z: ray.Span{Lo: 0, Hi: 3},
	}
	if diff := cmp.Diff(box, want); diff != "" {
		t.Errorf("Bad grown box; diff (-got +want)\n%s", diff)
	}
	if !box.IsFinite() {
		t.Errorf("Grown box should be finite")
	}
	if got := box.SurfaceArea(); got != 2*(2*4+2*3+4*3) {
		t.Errorf("Bad surface area; got %v", got)
	}
}

func TestRayTestAABox(t *testing.T) {
	testCases := []struct {
		name    string
		query   ray.RaySegment
		wantHit bool
		want    ray.Span
	}{
		{
			name: "straight through",
			query: ray.RaySegment{
				TheRay:     ray.Ray{Point: vec3.T{0, 0, 5}, Slope: vec3.T{0, 0, -1}},
				TheSegment: ray.PositiveSpan(),
			},
			wantHit: true,
			want:    ray.Span{Lo: 4, Hi: 6},
		},
		{
			name: "pointing away",
			query: ray.RaySegment{
				TheRay:     ray.Ray{Point: vec3.T{0, 0, 5}, Slope: vec3.T{0, 0, 1}},
				TheSegment: ray.PositiveSpan(),
			},
		},
		{
			name: "parallel outside slab",
			query: ray.RaySegment{
				TheRay:     ray.Ray{Point: vec3.T{2, 0, 5}, Slope: vec3.T{0, 0, -1}},
				TheSegment: ray.PositiveSpan(),
			},
		},
		{
			name: "segment ends early",
			query: ray.RaySegment{
				TheRay:     ray.Ray{Point: vec3.T{0, 0, 5}, Slope: vec3.T{0, 0, -1}},
				TheSegment: ray.Span{Lo: 0, Hi: 3},
			},
		},
		{
			name: "origin inside",
			query: ray.RaySegment{
				TheRay:     ray.Ray{Point: vec3.T{0, 0, 0}, Slope: vec3.T{1, 0, 0}},
				TheSegment: ray.PositiveSpan(),
			},
			wantHit: true,
			want:    ray.Span{Lo: 0, Hi: 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := RayTestAABox(tc.query, unitBox())
			if !tc.wantHit {
				if !got.IsNaN() {
					t.Fatalf("Expected a miss, got span %+v", got)
				}
				return
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Bad span; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestRayTestFlatBox(t *testing.T) {
	// A box with no extent in Z, like the bounds of an axis-aligned triangle.
	flat := AABox{
		X: ray.Span{Lo: -1, Hi: 1},
		Y: ray.Span{Lo: -1, Hi: 1},
		Z: ray.Span{Lo: -2, Hi: -2},
	}
	q := ray.RaySegment{
		TheRay:     ray.Ray{Point: vec3.T{0, 0, 0}, Slope: vec3.T{0, 0, -1}},
		TheSegment: ray.Span{Lo: 0, Hi: math.Inf(1)},
	}

	got := RayTestAABox(q, flat)
	if got.IsNaN() || got.Lo != 2 || got.Hi != 2 {
		t.Errorf("Bad span against flat box; got %+v, want {2 2}", got)
	}
}
