package slices

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/janelia-flyem/neuropil/core"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Sink is a destination for exported slice images.
type Sink interface {
	// Check verifies the destination can accept writes.  It is called before any
	// slice is written.
	Check(ctx context.Context) error

	// WriteSlice stores one encoded slice under the given file name and returns
	// the full path or key written.
	WriteSlice(ctx context.Context, name string, data []byte) (string, error)

	Close() error

	fmt.Stringer
}

// IsBucketRef returns true if the reference is a bucket URL rather than a local directory.
func IsBucketRef(ref string) bool {
	return strings.Contains(ref, "://")
}

// OpenSink returns a local directory sink or, for references like gs://bucket/path,
// s3://bucket/path or file:///path, a blob bucket sink.
func OpenSink(ctx context.Context, ref string) (Sink, error) {
	if IsBucketRef(ref) {
		return OpenBucketSink(ctx, ref)
	}
	return NewDirSink(ref), nil
}

// DirSink writes slices into a directory on the local file system.
type DirSink struct {
	dir string
}

// NewDirSink returns a sink for the given directory, which must already exist.
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

func (s *DirSink) String() string {
	return s.dir
}

func (s *DirSink) Check(ctx context.Context) error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return &core.IOError{Op: "export to", Path: s.dir, Err: err}
	}
	if !fi.IsDir() {
		return &core.IOError{Op: "export to", Path: s.dir, Err: fmt.Errorf("not a directory")}
	}
	f, err := os.CreateTemp(s.dir, ".neuropil-check-*")
	if err != nil {
		return &core.IOError{Op: "export to", Path: s.dir, Err: err}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

func (s *DirSink) WriteSlice(ctx context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return path, &core.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

func (s *DirSink) Close() error {
	return nil
}

// BucketSink writes slices as objects in a cloud bucket.
type BucketSink struct {
	ref    string
	bucket *blob.Bucket
}

// OpenBucketSink opens the bucket named by ref.  Any path after the bucket name
// becomes a key prefix for the written slices.
func OpenBucketSink(ctx context.Context, ref string) (*BucketSink, error) {
	scheme, rest, found := strings.Cut(ref, "://")
	if !found {
		return nil, fmt.Errorf("bad bucket reference %q", ref)
	}
	var bucketURL, prefix string
	switch scheme {
	case "file":
		bucketURL = ref
	default:
		name, path, _ := strings.Cut(rest, "/")
		bucketURL = scheme + "://" + name
		if path != "" {
			prefix = strings.TrimSuffix(path, "/") + "/"
		}
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		core.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
		return nil, &core.IOError{Op: "open bucket", Path: ref, Err: err}
	}
	if prefix != "" {
		bucket = blob.PrefixedBucket(bucket, prefix)
	}
	return &BucketSink{ref: ref, bucket: bucket}, nil
}

func (s *BucketSink) String() string {
	return s.ref
}

func (s *BucketSink) Check(ctx context.Context) error {
	ok, err := s.bucket.IsAccessible(ctx)
	if err != nil {
		return &core.IOError{Op: "export to", Path: s.ref, Err: err}
	}
	if !ok {
		return &core.IOError{Op: "export to", Path: s.ref, Err: fmt.Errorf("bucket is not accessible")}
	}
	return nil
}

func (s *BucketSink) WriteSlice(ctx context.Context, name string, data []byte) (string, error) {
	key := s.ref + "/" + name
	opts := &blob.WriterOptions{ContentType: "image/png"}
	if err := s.bucket.WriteAll(ctx, name, data, opts); err != nil {
		return key, &core.IOError{Op: "write", Path: key, Err: err}
	}
	return key, nil
}

func (s *BucketSink) Close() error {
	return s.bucket.Close()
}
