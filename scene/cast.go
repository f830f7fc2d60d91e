package scene

import (
	"iter"
	"math"

	"ray-intersector/contact"
	"ray-intersector/ray"
	"ray-intersector/vmath/vec3"

	"github.com/golang/glog"
)

// Object is a piece of scene geometry that rays can be cast against.
type Object interface {
	// Visible reports whether the object currently takes part in ray casts.
	Visible() bool

	// ClosestHit finds the nearest point, at positive distance along r, where
	// r meets the object's world-space surface.  An error means the object's
	// geometry could not be queried.
	ClosestHit(r ray.Ray) (contact.Contact, bool, error)
}

// CastRay returns the hit nearest to r's origin across every visible object.
//
// Objects are consulted once each, in order.  When two objects are hit at
// the same distance, the earlier one wins.  Objects whose geometry can't be
// queried are skipped.
func CastRay(r ray.Ray, objects iter.Seq[Object]) (contact.Contact, bool) {
	bestDistance := math.Inf(1)
	best := contact.ContactNaN()
	found := false

	for obj := range objects {
		if !obj.Visible() {
			continue
		}

		c, ok, err := obj.ClosestHit(r)
		if err != nil {
			glog.V(2).Infof("Skipping %v during ray cast: %v", obj, err)
			continue
		}
		if !ok {
			continue
		}

		distance := vec3.Dist(c.P, r.Point)
		if distance < bestDistance {
			bestDistance = distance
			best = c
			found = true
		}
	}

	return best, found
}
