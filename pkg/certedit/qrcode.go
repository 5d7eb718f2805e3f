package certedit

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/skip2/go-qrcode"
)

// QRStamper stamps a verification QR code on the bottom right corner of an
// exported PDF. URLPattern gets the export id, e.g. "https://example.com/verify/%s".
type QRStamper struct {
	URLPattern string
	// Size in pixels of the generated code, 50 is enough for a pdf page
	Size int
}

func (s QRStamper) Stamp(pdf []byte, exportID string) ([]byte, error) {
	size := s.Size
	if size <= 0 {
		size = 50
	}

	code, err := qrcode.Encode(fmt.Sprintf(s.URLPattern, exportID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	description := "pos: br, off: -12 12, scale: 1 abs, rotation: 0"
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(code), description, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR watermark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, nil, wm, nil); err != nil {
		return nil, fmt.Errorf("failed to embed QR code in PDF: %w", err)
	}

	return out.Bytes(), nil
}
