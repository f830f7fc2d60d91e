// Package aim turns a world matrix and an axis selection into a ray.
package aim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ray-intersector/ray"
	"ray-intersector/vmath/mat44"
	"ray-intersector/vmath/vec3"
)

// Axis selects one of the six signed basis directions of a transform.  The
// numbering matches the integer values accepted on the command line.
type Axis int

const (
	X Axis = iota
	Y
	Z
	NegX
	NegY
	NegZ
)

// Default is the axis used when none is given.
const Default = NegZ

var (
	ErrInvalidAxis     = errors.New("invalid axis")
	ErrDegenerateBasis = errors.New("degenerate basis vector")
)

var axisNames = [...]string{"X", "Y", "Z", "-X", "-Y", "-Z"}

func Axes() []Axis {
	return []Axis{X, Y, Z, NegX, NegY, NegZ}
}

func (a Axis) Valid() bool {
	return a >= X && a <= NegZ
}

func (a Axis) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisNames[a]
}

// Row is the matrix row holding the basis vector for a.
func (a Axis) Row() int {
	return int(a) % 3
}

func (a Axis) Negative() bool {
	return a >= NegX
}

// ParseAxis accepts an axis name ("X", "-z", ...) or its number (0-5).
func ParseAxis(s string) (Axis, error) {
	s = strings.TrimSpace(s)
	for i, name := range axisNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, "+"+name) {
			return Axis(i), nil
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || !Axis(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAxis, s)
	}
	return Axis(n), nil
}

// Resolve builds the ray that starts at m's translation and points along the
// selected basis row of m.  A zero-length or non-finite basis row has no
// direction, and is reported as ErrDegenerateBasis rather than guessed at.
func Resolve(m mat44.T, a Axis) (ray.Ray, error) {
	if !a.Valid() {
		return ray.Ray{}, fmt.Errorf("%w: %d", ErrInvalidAxis, int(a))
	}

	basis := mat44.Row(m, a.Row())
	if a.Negative() {
		basis = vec3.Neg(basis)
	}

	l := basis.Norm()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return ray.Ray{}, fmt.Errorf("%w: %v row is %v", ErrDegenerateBasis, a, basis)
	}

	return ray.Ray{
		Point: mat44.Translation(m),
		Slope: vec3.DivVS(basis, l),
	}, nil
}
