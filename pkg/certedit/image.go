package certedit

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"
)

const (
	OriginLocal = "local"
	OriginS3    = "s3"
	OriginBlob  = "blob"
)

// ImageRef names an image by the origin it is loaded from and a key inside it.
type ImageRef struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
}

func (r ImageRef) IsZero() bool {
	return r.Key == ""
}

type ImageSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type ImageSourceFunc func(ctx context.Context, key string) (io.ReadCloser, error)

func (f ImageSourceFunc) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return f(ctx, key)
}

// DirSource serves images from one local directory.
type DirSource string

func (d DirSource) Open(_ context.Context, key string) (io.ReadCloser, error) {
	clean := filepath.Clean("/" + key)
	return os.Open(filepath.Join(string(d), clean))
}

// BlobSource exposes a BlobStore as an image origin.
func BlobSource(store BlobStore) ImageSource {
	return ImageSourceFunc(func(ctx context.Context, key string) (io.ReadCloser, error) {
		return store.Open(ctx, BlobHandle(key))
	})
}

// ImageLoader only loads images from registered origins. Anything else is
// reported as a tainted image instead of being drawn.
type ImageLoader struct {
	mu      sync.RWMutex
	sources map[string]ImageSource
}

func NewImageLoader() *ImageLoader {
	return &ImageLoader{sources: make(map[string]ImageSource)}
}

func (l *ImageLoader) Register(origin string, src ImageSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[strings.ToLower(origin)] = src
}

func (l *ImageLoader) Load(ctx context.Context, ref ImageRef) (image.Image, error) {
	l.mu.RLock()
	src, ok := l.sources[strings.ToLower(ref.Origin)]
	l.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrTaintedImage, ref.Origin, ref.Key)
	}

	rc, err := src.Open(ctx, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s:%s: %w", ref.Origin, ref.Key, err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s:%s: %w", ref.Origin, ref.Key, err)
	}

	return img, nil
}
