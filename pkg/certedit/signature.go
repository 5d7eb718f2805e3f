package certedit

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// SignatureMaxPixels bounds an uploaded signature. It is four times the
// signature box so the image stays sharp at the largest export scale.
var SignatureMaxPixels = image.Pt(480, 240)

// SignatureMaxSourcePixels bounds the declared size of an upload. Decoding
// allocates for every declared pixel, so larger headers are refused unread.
var SignatureMaxSourcePixels = image.Pt(4096, 4096)

// NormalizeSignature decodes an uploaded signature image (png, jpeg or webp),
// scales it down to fit SignatureMaxPixels and returns it as PNG.
func NormalizeSignature(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature image: %w", err)
	}
	if cfg.Width > SignatureMaxSourcePixels.X || cfg.Height > SignatureMaxSourcePixels.Y {
		return nil, fmt.Errorf("signature image is %dx%d, at most %dx%d is accepted",
			cfg.Width, cfg.Height, SignatureMaxSourcePixels.X, SignatureMaxSourcePixels.Y)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature image: %w", err)
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("signature image is empty")
	}

	var out image.Image = src
	ratio := min(float64(SignatureMaxPixels.X)/float64(b.Dx()), float64(SignatureMaxPixels.Y)/float64(b.Dy()))
	if ratio < 1 {
		w := max(int(float64(b.Dx())*ratio), 1)
		h := max(int(float64(b.Dy())*ratio), 1)
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode signature image: %w", err)
	}
	return buf.Bytes(), nil
}
