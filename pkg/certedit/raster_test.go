package certedit

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 20, G: 20, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func within(got, want int) bool {
	return got >= want-1 && got <= want+1
}

func TestCanvasRasterizerSize(t *testing.T) {
	tests := []struct {
		name  string
		tmpl  *Template
		scale float64
		w, h  int
	}{
		{"certificate at 2x", CertificateTemplate(), 2, 1684, 1190},
		{"marksheet at 2x", MarksheetTemplate(), 2, 1190, 1684},
		{"scale clamped to 3x", CertificateTemplate(), 10, 2526, 1785},
	}

	r := NewCanvasRasterizer(NewImageLoader(), NewFontLoader(nil, nil), nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := Open(tt.tmpl, Record{FirstName: "Amit", LastName: "Shah", ID: "abc123456789"}, EditorOptions{})
			snap, err := ed.Snapshot()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			img, err := r.Rasterize(context.Background(), snap, tt.scale)
			if err != nil {
				t.Fatalf("rasterize failed: %v", err)
			}
			b := img.Bounds()
			if !within(b.Dx(), tt.w) || !within(b.Dy(), tt.h) {
				t.Errorf("expected %dx%d, got %dx%d", tt.w, tt.h, b.Dx(), b.Dy())
			}
		})
	}
}

func TestCanvasRasterizerSignatureImage(t *testing.T) {
	store := NewMemoryBlobStore()
	images := NewImageLoader()
	images.Register(OriginBlob, BlobSource(store))

	ed := Open(CertificateTemplate(), Record{}, EditorOptions{Blobs: store})
	h := putBlob(t, store, string(testPNG(t, 300, 100)))
	if err := ed.SetSignatureImage(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, _ := ed.Snapshot()
	r := NewCanvasRasterizer(images, NewFontLoader(nil, nil), nil)
	if _, err := r.Rasterize(context.Background(), snap, 2); err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}
}

func TestCanvasRasterizerTaintedImage(t *testing.T) {
	tmpl := CertificateTemplate()
	tmpl.Background = ImageRef{Origin: "https", Key: "cdn.example.com/bg.png"}

	ed := Open(tmpl, Record{}, EditorOptions{})
	snap, _ := ed.Snapshot()

	r := NewCanvasRasterizer(NewImageLoader(), NewFontLoader(nil, nil), nil)
	_, err := r.Rasterize(context.Background(), snap, 2)

	var re *RasterizationError
	if !errors.As(err, &re) {
		t.Fatalf("expected RasterizationError, got %v", err)
	}
	if !errors.Is(err, ErrTaintedImage) {
		t.Errorf("expected ErrTaintedImage in chain, got %v", err)
	}
}

func TestCanvasRasterizerBackground(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bg.png"), testPNG(t, 84, 60), 0644); err != nil {
		t.Fatal(err)
	}

	images := NewImageLoader()
	images.Register(OriginLocal, DirSource(dir))

	tmpl := CertificateTemplate()
	tmpl.Background = ImageRef{Origin: OriginLocal, Key: "bg.png"}
	snap, _ := Open(tmpl, Record{}, EditorOptions{}).Snapshot()

	r := NewCanvasRasterizer(images, NewFontLoader(nil, nil), nil)
	img, err := r.Rasterize(context.Background(), snap, 2)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}

	// A corner far from every field shows the background colour.
	_, _, b, _ := img.At(4, 4).RGBA()
	if b>>8 < 80 {
		t.Errorf("expected background colour at the corner, got blue=%d", b>>8)
	}
}

func TestCanvasRasterizerBackgroundCoversPage(t *testing.T) {
	dir := t.TempDir()
	// Much wider than the page, scaled by width alone it would leave the top blank.
	if err := os.WriteFile(filepath.Join(dir, "wide.png"), testPNG(t, 160, 40), 0644); err != nil {
		t.Fatal(err)
	}

	images := NewImageLoader()
	images.Register(OriginLocal, DirSource(dir))

	tmpl := CertificateTemplate()
	tmpl.Background = ImageRef{Origin: OriginLocal, Key: "wide.png"}
	snap, _ := Open(tmpl, Record{}, EditorOptions{}).Snapshot()

	img, err := NewCanvasRasterizer(images, NewFontLoader(nil, nil), nil).Rasterize(context.Background(), snap, 2)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}

	b := img.Bounds()
	corners := []image.Point{
		{b.Min.X + 4, b.Min.Y + 4},
		{b.Max.X - 5, b.Min.Y + 4},
		{b.Min.X + 4, b.Max.Y - 5},
		{b.Max.X - 5, b.Max.Y - 5},
	}
	for _, p := range corners {
		if _, _, blue, _ := img.At(p.X, p.Y).RGBA(); blue>>8 < 80 {
			t.Errorf("expected background colour at %v, got blue=%d", p, blue>>8)
		}
	}
}

func TestFitAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 160, 40))

	if got := fitAspect(src, 4).Bounds(); got.Dx() != 160 || got.Dy() != 40 {
		t.Errorf("matching aspect should be kept, got %v", got)
	}
	if got := fitAspect(src, 2).Bounds(); got.Dx() != 160 || got.Dy() != 80 {
		t.Errorf("expected 160x80, got %v", got)
	}
}

func TestCanvasRasterizerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, _ := newTestEditor().Snapshot()
	r := NewCanvasRasterizer(NewImageLoader(), NewFontLoader(nil, nil), nil)
	if _, err := r.Rasterize(ctx, snap, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
