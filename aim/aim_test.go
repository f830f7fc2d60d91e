package aim

import (
	"errors"
	"math"
	"testing"

	"ray-intersector/vmath/mat44"
	"ray-intersector/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

// skewed has non-unit, non-axis-aligned basis rows.
func skewed() mat44.T {
	return mat44.FromBasis(
		vec3.T{2, 0, 0},
		vec3.T{0, 3, 4},
		vec3.T{1, 1, 0},
		vec3.T{7, -8, 9},
	)
}

func TestResolveDirections(t *testing.T) {
	m := skewed()

	want := map[Axis]vec3.T{
		X:    {1, 0, 0},
		Y:    {0, 0.6, 0.8},
		Z:    {1 / math.Sqrt2, 1 / math.Sqrt2, 0},
		NegX: {-1, 0, 0},
		NegY: {0, -0.6, -0.8},
		NegZ: {-1 / math.Sqrt2, -1 / math.Sqrt2, 0},
	}

	for _, a := range Axes() {
		t.Run(a.String(), func(t *testing.T) {
			r, err := Resolve(m, a)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if diff := cmp.Diff(r.Point, vec3.T{7, -8, 9}); diff != "" {
				t.Errorf("Origin should be the translation; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(r.Slope, want[a], approx); diff != "" {
				t.Errorf("Bad direction; diff (-got +want)\n%s", diff)
			}
			if n := r.Slope.Norm(); math.Abs(n-1) > 1e-12 {
				t.Errorf("Direction is not unit length; got norm %v", n)
			}
		})
	}
}

func TestOppositeAxesAreNegations(t *testing.T) {
	m := skewed()
	for _, a := range []Axis{X, Y, Z} {
		pos, err := Resolve(m, a)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		neg, err := Resolve(m, a+3)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if diff := cmp.Diff(neg.Slope, vec3.Neg(pos.Slope), approx); diff != "" {
			t.Errorf("%v is not the negation of %v; diff (-got +want)\n%s", a+3, a, diff)
		}
	}
}

func TestDefaultPointsDownLocalZ(t *testing.T) {
	r, err := Resolve(mat44.Identity(), Default)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(r.Slope, vec3.T{0, 0, -1}); diff != "" {
		t.Errorf("Bad default direction; diff (-got +want)\n%s", diff)
	}
}

func TestResolveErrors(t *testing.T) {
	zeroY := mat44.FromBasis(vec3.T{1, 0, 0}, vec3.T{}, vec3.T{0, 0, 1}, vec3.T{})
	if _, err := Resolve(zeroY, NegY); !errors.Is(err, ErrDegenerateBasis) {
		t.Errorf("Zero basis row: got error %v, want ErrDegenerateBasis", err)
	}
	if _, err := Resolve(zeroY, X); err != nil {
		t.Errorf("Other rows of the matrix should still resolve; got %v", err)
	}

	nanZ := mat44.FromBasis(vec3.T{1, 0, 0}, vec3.T{0, 1, 0}, vec3.T{math.NaN(), 0, 1}, vec3.T{})
	if _, err := Resolve(nanZ, Z); !errors.Is(err, ErrDegenerateBasis) {
		t.Errorf("NaN basis row: got error %v, want ErrDegenerateBasis", err)
	}

	if _, err := Resolve(mat44.Identity(), Axis(6)); !errors.Is(err, ErrInvalidAxis) {
		t.Errorf("Out-of-range axis: got error %v, want ErrInvalidAxis", err)
	}
}

func TestParseAxis(t *testing.T) {
	testCases := []struct {
		in   string
		want Axis
	}{
		{"X", X},
		{"+y", Y},
		{"z", Z},
		{"-X", NegX},
		{" -y ", NegY},
		{"-Z", NegZ},
		{"0", X},
		{"5", NegZ},
	}
	for _, tc := range testCases {
		got, err := ParseAxis(tc.in)
		if err != nil {
			t.Errorf("ParseAxis(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAxis(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "W", "6", "-1", "--Z"} {
		if _, err := ParseAxis(bad); !errors.Is(err, ErrInvalidAxis) {
			t.Errorf("ParseAxis(%q): got error %v, want ErrInvalidAxis", bad, err)
		}
	}
}
