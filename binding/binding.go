// Package binding holds named ray-cast bindings: a source transform whose
// world matrix drives a ray, and an output locator that receives the hit.
package binding

import (
	"fmt"

	"ray-intersector/aim"

	"google.golang.org/protobuf/types/known/structpb"
)

// Binding ties a source transform to an output locator.
type Binding struct {
	// Name identifies the binding in the store.
	Name string

	// Source names the transform or joint whose world matrix defines the ray.
	Source string

	Axis aim.Axis

	// Output names the locator whose translation receives the result.
	Output string
}

func (b Binding) String() string {
	return fmt.Sprintf("%s(%s %v -> %s)", b.Name, b.Source, b.Axis, b.Output)
}

// Record converts b to its stored form.
func Record(b Binding) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"name":   structpb.NewStringValue(b.Name),
			"source": structpb.NewStringValue(b.Source),
			"axis":   structpb.NewStringValue(b.Axis.String()),
			"output": structpb.NewStringValue(b.Output),
		},
	}
}

// FromRecord is the inverse of Record.
func FromRecord(rec *structpb.Struct) (Binding, error) {
	b := Binding{}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &b.Name},
		{"source", &b.Source},
		{"output", &b.Output},
	} {
		v, ok := rec.GetFields()[field.key]
		if !ok {
			return Binding{}, fmt.Errorf("record is missing field %q", field.key)
		}
		*field.dst = v.GetStringValue()
	}

	axisValue, ok := rec.GetFields()["axis"]
	if !ok {
		return Binding{}, fmt.Errorf("record is missing field %q", "axis")
	}
	axis, err := aim.ParseAxis(axisValue.GetStringValue())
	if err != nil {
		return Binding{}, fmt.Errorf("while parsing axis of binding %q: %w", b.Name, err)
	}
	b.Axis = axis

	return b, nil
}
