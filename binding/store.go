package binding

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger"
	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const bindingKeyPrefix = "bindings/"

func bindingKey(name string) []byte {
	return []byte(bindingKeyPrefix + name)
}

// glogLogger routes badger's internal logging into glog.
type glogLogger struct{}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.Errorf("badger: "+format, args...)
}

func (glogLogger) Warningf(format string, args ...interface{}) {
	glog.Warningf("badger: "+format, args...)
}

func (glogLogger) Infof(format string, args ...interface{}) {
	glog.V(1).Infof("badger: "+format, args...)
}

func (glogLogger) Debugf(format string, args ...interface{}) {
	glog.V(3).Infof("badger: "+format, args...)
}

// Store persists bindings in a badger key-value directory.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the store in dataDir.
func Open(dataDir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(glogLogger{}))
	if err != nil {
		return nil, xerrors.Errorf("while opening badger kv dir %q: %w", dataDir, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return xerrors.Errorf("while closing database: %w", err)
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on commit conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.V(1).Infof("Retrying binding store transaction after conflict")
	}
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Create stores b.  It fails with ErrExists if a binding with the same name
// is already stored.
func (s *Store) Create(ctx context.Context, b Binding) error {
	tracer := otel.Tracer("ray-intersector/binding")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Store.Create")
	defer span.End()

	span.SetAttributes(attribute.String("name", b.Name))

	if b.Name == "" {
		return failSpan(span, newError(b.Name, "binding has no name", nil))
	}
	if !b.Axis.Valid() {
		return failSpan(span, newError(b.Name, "bad axis", xerrors.Errorf("axis %d", int(b.Axis))))
	}

	data, err := proto.Marshal(Record(b))
	if err != nil {
		return failSpan(span, newError(b.Name, "while marshaling binding record", err))
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(bindingKey(b.Name))
		if err == nil {
			return newError(b.Name, "while creating binding", ErrExists)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return newError(b.Name, "while checking for existing binding", err)
		}
		if err := txn.Set(bindingKey(b.Name), data); err != nil {
			return newError(b.Name, "while writing binding", err)
		}
		return nil
	})
	if err != nil {
		return failSpan(span, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Get retrieves the named binding.
//
// Returns the binding, a "found" indicator, and an error.
func (s *Store) Get(ctx context.Context, name string) (Binding, bool, error) {
	tracer := otel.Tracer("ray-intersector/binding")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Store.Get")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))

	var out Binding
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bindingKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return newError(name, "while reading binding", err)
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return newError(name, "while copying binding value", err)
		}
		b, err := decode(name, data)
		if err != nil {
			return err
		}
		out, found = b, true
		return nil
	})
	if err != nil {
		return Binding{}, false, failSpan(span, err)
	}

	span.SetStatus(codes.Ok, "")
	return out, found, nil
}

// List returns every stored binding in name order.
func (s *Store) List(ctx context.Context) ([]Binding, error) {
	tracer := otel.Tracer("ray-intersector/binding")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Store.List")
	defer span.End()

	out := []Binding{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(bindingKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			name := strings.TrimPrefix(string(item.KeyCopy(nil)), bindingKeyPrefix)

			data, err := item.ValueCopy(nil)
			if err != nil {
				return newError(name, "while copying binding value", err)
			}
			b, err := decode(name, data)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, failSpan(span, err)
	}

	span.SetAttributes(attribute.Int64("count", int64(len(out))))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

// Delete removes the named binding.  It fails with ErrNotFound if there is no
// such binding.
func (s *Store) Delete(ctx context.Context, name string) error {
	tracer := otel.Tracer("ray-intersector/binding")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Store.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))

	err := s.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(bindingKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return newError(name, "while deleting binding", ErrNotFound)
		}
		if err != nil {
			return newError(name, "while reading binding", err)
		}
		if err := txn.Delete(bindingKey(name)); err != nil {
			return newError(name, "while deleting binding", err)
		}
		return nil
	})
	if err != nil {
		return failSpan(span, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func decode(name string, data []byte) (Binding, error) {
	rec := &structpb.Struct{}
	if err := proto.Unmarshal(data, rec); err != nil {
		return Binding{}, newError(name, "while unmarshaling binding record", err)
	}
	b, err := FromRecord(rec)
	if err != nil {
		return Binding{}, newError(name, "while decoding binding record", err)
	}
	if b.Name != name {
		return Binding{}, newError(name, "inconsistency between key and value", xerrors.Errorf("value has name %q", b.Name))
	}
	return b, nil
}
