// Package intersector answers ray queries against a scene: resolve the ray
// from a world matrix, cast it, and fall back to the matrix's translation
// when nothing is hit or the query fails.
package intersector

import (
	"context"
	"fmt"
	"iter"
	"runtime"

	"ray-intersector/aim"
	"ray-intersector/binding"
	"ray-intersector/contact"
	"ray-intersector/scene"
	"ray-intersector/vmath/mat44"
	"ray-intersector/vmath/vec3"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Query is one ray request in a batch.
type Query struct {
	// Name labels the query in logs and traces.
	Name string

	World mat44.T
	Axis  aim.Axis
}

// Result is the answer to a single query.
type Result struct {
	// Point is the closest hit, or the query's origin when there is no hit or
	// the query failed.
	Point vec3.T

	Hit bool

	// Contact describes the hit.  It is NaN when Hit is false.
	Contact contact.Contact

	// Err is set when the query failed as a whole.  Point still holds the
	// fallback.
	Err error
}

type Intersector struct {
	parallelism int
}

type Option func(*Intersector)

// WithParallelism bounds the number of queries IntersectAll runs at once.
func WithParallelism(n int) Option {
	return func(in *Intersector) {
		if n > 0 {
			in.parallelism = n
		}
	}
}

func New(opts ...Option) *Intersector {
	in := &Intersector{
		parallelism: runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(in)
	}

	return in
}

func fallback(m mat44.T, err error) Result {
	return Result{
		Point:   mat44.Translation(m),
		Contact: contact.ContactNaN(),
		Err:     err,
	}
}

// Intersect casts the ray selected by m and a against objects and returns the
// closest visible hit.  Any failure, including a panic inside an object, is
// logged and answered with m's translation.
func (in *Intersector) Intersect(ctx context.Context, m mat44.T, a aim.Axis, objects iter.Seq[scene.Object]) (res Result) {
	tracer := otel.Tracer("ray-intersector/intersector")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Intersector.Intersect")
	defer span.End()

	span.SetAttributes(attribute.String("axis", a.String()))

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic during ray query: %v", p)
			glog.Errorf("Error while intersecting: %v", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			recordOutcome(ctx, outcomeError)
			res = fallback(m, err)
		}
	}()

	r, err := aim.Resolve(m, a)
	if err != nil {
		err := fmt.Errorf("while resolving ray: %w", err)
		glog.Errorf("Error while intersecting: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordOutcome(ctx, outcomeError)
		return fallback(m, err)
	}

	c, ok := scene.CastRay(r, objects)
	if !ok {
		span.SetAttributes(attribute.Bool("hit", false))
		span.SetStatus(codes.Ok, "")
		recordOutcome(ctx, outcomeFallback)
		return fallback(m, nil)
	}

	span.SetAttributes(
		attribute.Bool("hit", true),
		attribute.Float64("distance", c.Distance()),
	)
	span.SetStatus(codes.Ok, "")
	recordOutcome(ctx, outcomeHit)
	return Result{
		Point:   c.P,
		Hit:     true,
		Contact: c,
	}
}

// IntersectAll answers every query concurrently.  objects is called once per
// query to get that query's traversal.  The only errors returned come from
// ctx; per-query failures are reported in each Result.
func (in *Intersector) IntersectAll(ctx context.Context, queries []Query, objects func() iter.Seq[scene.Object]) ([]Result, error) {
	tracer := otel.Tracer("ray-intersector/intersector")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Intersector.IntersectAll")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("queries", int64(len(queries))),
		attribute.Int64("parallelism", int64(in.parallelism)),
	)

	results := make([]Result, len(queries))

	// Use errgroup and semaphore to limit concurrency.
	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(in.parallelism))

	for i, q := range queries {
		if err := sem.Acquire(egCtx, 1); err != nil {
			eg.Wait()
			err := fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		eg.Go(func() error {
			defer sem.Release(1)
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = in.Intersect(egCtx, q.World, q.Axis, objects())
			glog.V(1).Infof("Query %q: point=%v hit=%v", q.Name, results[i].Point, results[i].Hit)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		err := fmt.Errorf("while waiting for completion of errgroup: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return results, nil
}

// EvaluateBindings answers every binding against the visible meshes of g and
// moves each binding's output locator to its result.  Locators are only moved
// once every query has finished, so outputs never influence other bindings in
// the same pass.
func (in *Intersector) EvaluateBindings(ctx context.Context, g *scene.Graph, bs []binding.Binding) ([]Result, error) {
	tracer := otel.Tracer("ray-intersector/intersector")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Intersector.EvaluateBindings")
	defer span.End()

	queries := make([]Query, len(bs))
	outputs := make([]*scene.Node, len(bs))
	for i, b := range bs {
		src, ok := g.Node(b.Source)
		if !ok {
			err := fmt.Errorf("while evaluating binding %q: source %w: %q", b.Name, scene.ErrNoSuchNode, b.Source)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out, ok := g.Node(b.Output)
		if !ok {
			err := fmt.Errorf("while evaluating binding %q: output %w: %q", b.Name, scene.ErrNoSuchNode, b.Output)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		queries[i] = Query{Name: b.Name, World: src.World, Axis: b.Axis}
		outputs[i] = out
	}

	results, err := in.IntersectAll(ctx, queries, g.Meshes)
	if err != nil {
		err := fmt.Errorf("while evaluating bindings: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for i, res := range results {
		outputs[i].SetTranslation(res.Point)
	}

	span.SetStatus(codes.Ok, "")
	return results, nil
}
