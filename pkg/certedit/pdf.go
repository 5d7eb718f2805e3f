package certedit

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PageSpec is the output page in points. The bitmap always covers it fully.
type PageSpec struct {
	Width       float64
	Height      float64
	Orientation Orientation
}

// PageFor sizes the page to the bitmap's aspect, at the logical size it was
// rasterized from.
func PageFor(img image.Image, scale float64, o Orientation) PageSpec {
	b := img.Bounds()
	return PageSpec{
		Width:       float64(b.Dx()) / scale,
		Height:      float64(b.Dy()) / scale,
		Orientation: o,
	}
}

// Assembler embeds a bitmap into a single page PDF at full bleed.
type Assembler interface {
	Assemble(w io.Writer, img image.Image, page PageSpec) error
}

const (
	EnginePdfcpu = "pdfcpu"
	EngineFpdf   = "fpdf"
)

func NewAssembler(engine string) (Assembler, error) {
	switch engine {
	case "", EnginePdfcpu:
		return PdfcpuAssembler{}, nil
	case EngineFpdf:
		return FpdfAssembler{}, nil
	}
	return nil, fmt.Errorf("unsupported pdf engine: %s", engine)
}

func encodePNG(img image.Image) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode bitmap: %w", err)
	}
	return &buf, nil
}

type PdfcpuAssembler struct{}

func (PdfcpuAssembler) Assemble(w io.Writer, img image.Image, page PageSpec) error {
	buf, err := encodePNG(img)
	if err != nil {
		return err
	}

	// pos:full would size the page to the bitmap's pixels. A centred image at
	// relative scale 1 fills the width of the dim page, and the aspect matches.
	imp, err := api.Import(fmt.Sprintf("dim:%.2f %.2f, pos:c, sc:1", page.Width, page.Height), types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse import description: %w", err)
	}

	if err := api.ImportImages(nil, w, []io.Reader{buf}, imp, nil); err != nil {
		return fmt.Errorf("failed to import bitmap into pdf: %w", err)
	}
	return nil
}

type FpdfAssembler struct{}

func (FpdfAssembler) Assemble(w io.Writer, img image.Image, page PageSpec) error {
	buf, err := encodePNG(img)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	// Portrait with explicit width and height keeps the size as given,
	// landscape pages simply have Wd > Ht.
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})

	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("snapshot", opts, buf)
	pdf.ImageOptions("snapshot", 0, 0, page.Width, page.Height, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// PageDims returns the page sizes of a PDF in points.
func PageDims(pdf []byte) ([]Size, error) {
	dims, err := api.PageDims(bytes.NewReader(pdf), nil)
	if err != nil {
		return nil, err
	}
	out := make([]Size, len(dims))
	for i, d := range dims {
		out[i] = Size{Width: d.Width, Height: d.Height}
	}
	return out, nil
}
