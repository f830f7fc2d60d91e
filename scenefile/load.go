package scenefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ray-intersector/scene"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	googleopt "google.golang.org/api/option"
)

const gcsScheme = "gs://"

// ErrSceneNotExist is returned when a gs:// scene object is missing.
var ErrSceneNotExist = errors.New("scene file does not exist")

// SplitGCSPath splits "gs://bucket/some/object" into its bucket and object
// names.
func SplitGCSPath(path string) (bucket, object string, err error) {
	if !strings.HasPrefix(path, gcsScheme) {
		return "", "", fmt.Errorf("%q is not a gs:// path", path)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(path, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%q does not name a bucket and object", path)
	}
	return bucket, object, nil
}

// LoadScene reads and builds the scene at fileName, which is either a local
// path or a gs:// object.
func LoadScene(ctx context.Context, fileName string, opts ...googleopt.ClientOption) (*scene.Graph, error) {
	tracer := otel.Tracer("ray-intersector/scenefile")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "scenefile.LoadScene")
	defer span.End()

	span.SetAttributes(attribute.String("file", fileName))

	var data []byte
	var err error
	if strings.HasPrefix(fileName, gcsScheme) {
		data, err = readGCS(ctx, fileName, opts...)
	} else {
		data, err = os.ReadFile(fileName)
	}
	if err != nil {
		err := fmt.Errorf("while reading scene file: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	g, err := Parse(data)
	if err != nil {
		err := fmt.Errorf("while loading %s: %w", fileName, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return g, nil
}

func readGCS(ctx context.Context, path string, opts ...googleopt.ClientOption) ([]byte, error) {
	bucket, object, err := SplitGCSPath(path)
	if err != nil {
		return nil, err
	}

	gcs, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}
	defer gcs.Close()

	r, err := gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSceneNotExist, path)
		}
		return nil, fmt.Errorf("while opening reader for object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("while reading from object: %w", err)
	}
	return data, nil
}
