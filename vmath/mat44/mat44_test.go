package mat44

import (
	"testing"

	"ray-intersector/vmath/vec3"

	"github.com/google/go-cmp/cmp"
)

func TestRowsAndTranslation(t *testing.T) {
	m := FromBasis(vec3.T{1, 2, 3}, vec3.T{4, 5, 6}, vec3.T{7, 8, 9}, vec3.T{10, 11, 12})

	want := []vec3.T{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10, 11, 12}}
	for r := 0; r < 4; r++ {
		if diff := cmp.Diff(Row(m, r), want[r]); diff != "" {
			t.Errorf("Bad row %d; diff (-got +want)\n%s", r, diff)
		}
	}

	if got := m.At(3, 1); got != 11 {
		t.Errorf("Bad element (3, 1); got %v, want 11", got)
	}
	if diff := cmp.Diff(Translation(m), vec3.T{10, 11, 12}); diff != "" {
		t.Errorf("Bad translation; diff (-got +want)\n%s", diff)
	}
}

func TestTransformPoint(t *testing.T) {
	// Quarter turn about Z (X axis maps to +Y), then offset.
	m := FromBasis(vec3.T{0, 1, 0}, vec3.T{-1, 0, 0}, vec3.T{0, 0, 1}, vec3.T{5, 0, 0})

	got := TransformPoint(m, vec3.T{1, 0, 0})
	if diff := cmp.Diff(got, vec3.T{5, 1, 0}); diff != "" {
		t.Errorf("Bad transformed point; diff (-got +want)\n%s", diff)
	}
}

func TestMulMMComposesInRowVectorOrder(t *testing.T) {
	scale := FromBasis(vec3.T{2, 0, 0}, vec3.T{0, 2, 0}, vec3.T{0, 0, 2}, vec3.T{})
	move := Translate(vec3.T{1, 0, 0})

	// Row vectors apply the left matrix first: scale, then move.
	got := TransformPoint(MulMM(scale, move), vec3.T{1, 1, 1})
	if diff := cmp.Diff(got, vec3.T{3, 2, 2}); diff != "" {
		t.Errorf("Bad composed transform; diff (-got +want)\n%s", diff)
	}

	if diff := cmp.Diff(MulMM(Identity(), move), move); diff != "" {
		t.Errorf("Identity is not neutral; diff (-got +want)\n%s", diff)
	}
}
