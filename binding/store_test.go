package binding

import (
	"context"
	"errors"
	"testing"

	"ray-intersector/aim"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/types/known/structpb"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return s
}

func TestCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	want := Binding{Name: "ray1", Source: "pCube1", Axis: aim.NegY, Output: "locator_ray1"}
	if err := s.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, found, err := s.Get(ctx, "ray1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("Get: binding not found after Create")
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Bad binding; diff (-got +want)\n%s", diff)
	}

	if err := s.Delete(ctx, "ray1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, err := s.Get(ctx, "ray1"); err != nil || found {
		t.Errorf("Get after Delete: got found=%v err=%v, want found=false err=nil", found, err)
	}
}

func TestCreateExisting(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	b := Binding{Name: "ray1", Source: "a", Axis: aim.Default, Output: "locator_ray1"}
	if err := s.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b.Source = "b"
	err := s.Create(ctx, b)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Second Create: got error %v, want ErrExists", err)
	}
	var bindingErr *Error
	if !errors.As(err, &bindingErr) || bindingErr.Name != "ray1" {
		t.Errorf("Second Create: got error %v, want an *Error naming ray1", err)
	}

	got, _, err := s.Get(ctx, "ray1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Source != "a" {
		t.Errorf("Failed Create overwrote the binding; got source %q, want %q", got.Source, "a")
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if err := s.Create(ctx, Binding{Source: "a", Output: "b"}); err == nil {
		t.Errorf("Create with no name should fail")
	}
	if err := s.Create(ctx, Binding{Name: "x", Axis: aim.Axis(9)}); err == nil {
		t.Errorf("Create with a bad axis should fail")
	}
}

func TestDeleteMissing(t *testing.T) {
	s := openStore(t)
	if err := s.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: got error %v, want ErrNotFound", err)
	}
}

func TestListInNameOrder(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, name := range []string{"ray1_2", "ray1", "alpha", "ray1_3"} {
		b := Binding{Name: name, Source: "src_" + name, Axis: aim.Z, Output: "locator_" + name}
		if err := s.Create(ctx, b); err != nil {
			t.Fatalf("Create(%q): %v", name, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	names := []string{}
	for _, b := range got {
		names = append(names, b.Name)
		if b.Source != "src_"+b.Name || b.Axis != aim.Z {
			t.Errorf("Bad listed binding %v", b)
		}
	}
	if diff := cmp.Diff(names, []string{"alpha", "ray1", "ray1_2", "ray1_3"}); diff != "" {
		t.Errorf("Bad list order; diff (-got +want)\n%s", diff)
	}
}

func TestReopenKeepsBindings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := Binding{Name: "ray1", Source: "joint1", Axis: aim.X, Output: "locator_ray1"}
	if err := s.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer s.Close()

	got, found, err := s.Get(ctx, "ray1")
	if err != nil || !found {
		t.Fatalf("Get after reopen: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Bad binding after reopen; diff (-got +want)\n%s", diff)
	}
}

func TestFromRecordErrors(t *testing.T) {
	rec := Record(Binding{Name: "n", Source: "s", Axis: aim.Y, Output: "o"})
	delete(rec.Fields, "source")
	if _, err := FromRecord(rec); err == nil {
		t.Errorf("Record without source should fail to decode")
	}

	rec = Record(Binding{Name: "n", Source: "s", Axis: aim.Y, Output: "o"})
	rec.Fields["axis"] = structpb.NewStringValue("sideways")
	if _, err := FromRecord(rec); !errors.Is(err, aim.ErrInvalidAxis) {
		t.Errorf("Bad axis: got error %v, want ErrInvalidAxis", err)
	}
}
