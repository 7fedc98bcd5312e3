package wsipatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// ReaderAtCloser is satisfied both by local files and by Google Storage
// objects wrapped in GSReaderAtCloser.
type ReaderAtCloser interface {
	io.Reader
	io.ReaderAt
	io.Closer
}

// IsGoogleStoragePath reports whether path names an object in a bucket.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// MaybeOpenFromGoogleStorage opens path, which may be a local file or a
// gs://bucket/object path, and returns a handle plus the object's size in
// bytes. A nil client is only acceptable for local paths.
func MaybeOpenFromGoogleStorage(path string, client *storage.Client) (ReaderAtCloser, int64, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: a storage client is required for Google Storage paths", path))
		}

		// Detect the bucket and the path to the actual file
		pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
		if len(pathParts) != 2 || pathParts[1] == "" {
			return nil, 0, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}

		handle := client.Bucket(pathParts[0]).Object(pathParts[1])

		wrappedHandle := &GSReaderAtCloser{
			ObjectHandle: handle,
			Context:      context.Background(),
		}

		// Make a hard call to get the filesize. This also surfaces
		// storage.ErrObjectNotExist before any pixel decoding starts.
		attrs, err := handle.Attrs(wrappedHandle.Context)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}

		return wrappedHandle, attrs.Size, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, fstat.Size(), nil
}

// IsNotExist reports whether err means the local file or the bucket object
// is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrObjectNotExist)
}

// GSReaderAtCloser decorates a Google Storage object handle with Read and
// ReadAt. Sequential reads share one streaming reader; ReadAt issues a range
// request per call.
type GSReaderAtCloser struct {
	*storage.ObjectHandle
	Context context.Context
	reader  *storage.Reader
}

func (o *GSReaderAtCloser) Read(p []byte) (n int, err error) {
	if o.reader == nil {
		o.reader, err = o.NewReader(o.Context)
		if err != nil {
			return 0, err
		}
	}

	return o.reader.Read(p)
}

// ReadAt satisfies io.ReaderAt. Note that this is dependent upon making p a
// buffer of the desired length to be read by NewRangeReader.
func (o *GSReaderAtCloser) ReadAt(p []byte, offset int64) (n int, err error) {
	rdr, err := o.NewRangeReader(o.Context, offset, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	n, err = io.ReadFull(rdr, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return n, err
}

// Close releases the streaming reader, if one was opened.
func (o *GSReaderAtCloser) Close() error {
	if o.reader == nil {
		return nil
	}

	err := o.reader.Close()
	o.reader = nil

	return err
}
