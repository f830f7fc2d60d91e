// Package command creates ray-cast bindings in bulk, one per source
// transform, each with its own output locator.
package command

import (
	"context"
	"fmt"

	"ray-intersector/aim"
	"ray-intersector/binding"
	"ray-intersector/scene"

	"github.com/golang/glog"
)

// DefaultName is the binding name used when none is given.
const DefaultName = "rayIntersector1"

// Registry records newly created bindings.  *binding.Store is a Registry.
type Registry interface {
	Create(ctx context.Context, b binding.Binding) error
}

type Options struct {
	// Transforms names the source nodes.  When empty, sources come from the
	// graph's selection.
	Transforms []string

	// Name is the name of the first binding.  Later bindings get "_2", "_3",
	// and so on appended.
	Name string

	Axis aim.Axis
}

// BindingName is the name given to the binding for the i'th source.
func BindingName(base string, i int) string {
	if i == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, i+1)
}

// LocatorName is the name of the output locator for a binding.
func LocatorName(bindingName string) string {
	return "locator_" + bindingName
}

// sources picks the nodes that will drive bindings.  Selected transforms and
// joints are used directly; other selected nodes stand in for their parent
// when the parent is a transform or joint.
func sources(g *scene.Graph, transforms []string) ([]string, error) {
	if len(transforms) != 0 {
		for _, name := range transforms {
			if _, ok := g.Node(name); !ok {
				return nil, fmt.Errorf("while resolving transforms: %w: %q", scene.ErrNoSuchNode, name)
			}
		}
		return append([]string(nil), transforms...), nil
	}

	out := []string{}
	for _, name := range g.Selection() {
		n, ok := g.Node(name)
		if !ok {
			continue
		}
		if n.Kind.IsTransform() {
			out = append(out, n.Name)
			continue
		}
		if p := n.Parent(); p != nil && p.Kind.IsTransform() {
			out = append(out, p.Name)
		}
	}
	return out, nil
}

// CreateBindings creates a locator and a binding for every source transform
// and returns the created names in the order binding, locator, binding,
// locator, ...
//
// The graph's selection is restored before returning.  On error, bindings
// created before the failure are left in place and their names are returned
// along with the error.
func CreateBindings(ctx context.Context, g *scene.Graph, reg Registry, opts Options) (created []string, err error) {
	prevSelection := g.Selection()
	defer func() {
		if selErr := g.Select(prevSelection...); selErr != nil {
			glog.Warningf("Failed to restore selection %v: %v", prevSelection, selErr)
		}
	}()

	defer func() {
		if err != nil {
			glog.Errorf("Error while creating ray bindings: %v", err)
		}
	}()

	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	if !opts.Axis.Valid() {
		return nil, fmt.Errorf("%w: %d", aim.ErrInvalidAxis, int(opts.Axis))
	}

	srcs, err := sources(g, opts.Transforms)
	if err != nil {
		return nil, err
	}

	glog.Infof("Final transforms list: %v", srcs)
	glog.Infof("Name: %s", name)
	glog.Infof("Axis: %v", opts.Axis)

	if len(srcs) == 0 {
		glog.Warningf("No transforms given or selected; nothing to do")
	}

	created = []string{}
	for i, src := range srcs {
		b := binding.Binding{
			Name:   BindingName(name, i),
			Source: src,
			Axis:   opts.Axis,
			Output: LocatorName(BindingName(name, i)),
		}

		if _, err := g.CreateNode(b.Output, scene.KindLocator, nil); err != nil {
			return created, fmt.Errorf("while creating locator for binding %q: %w", b.Name, err)
		}

		if err := reg.Create(ctx, b); err != nil {
			return created, fmt.Errorf("while registering binding %q: %w", b.Name, err)
		}

		glog.V(1).Infof("Created binding %v", b)
		created = append(created, b.Name, b.Output)
	}

	return created, nil
}
