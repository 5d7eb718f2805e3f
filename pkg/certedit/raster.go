package certedit

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

/*
 * tdewolff/canvas measures in mm. Templates, positions and font sizes in this package
 * are in logical points (72 per inch) and are converted when drawing.
 */

const DPI = 72

const (
	MinScale     = 2.0
	MaxScale     = 3.0
	DefaultScale = 2.0
)

func pxToMM(px float64) float64 {
	return (px * 25.4) / DPI
}

// Rasterizer captures a snapshot into a bitmap at scale times its logical size.
type Rasterizer interface {
	Rasterize(ctx context.Context, snap Snapshot, scale float64) (image.Image, error)
}

type RasterizerFunc func(ctx context.Context, snap Snapshot, scale float64) (image.Image, error)

func (f RasterizerFunc) Rasterize(ctx context.Context, snap Snapshot, scale float64) (image.Image, error) {
	return f(ctx, snap, scale)
}

type CanvasRasterizer struct {
	images *ImageLoader
	fonts  *FontLoader
	logger *zap.SugaredLogger
}

func NewCanvasRasterizer(images *ImageLoader, fonts *FontLoader, logger *zap.SugaredLogger) *CanvasRasterizer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CanvasRasterizer{images: images, fonts: fonts, logger: logger}
}

func (r *CanvasRasterizer) Rasterize(ctx context.Context, snap Snapshot, scale float64) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, &RasterizationError{Err: fmt.Errorf("panic while drawing: %v", rec)}
		}
	}()

	if snap.Page.Width <= 0 || snap.Page.Height <= 0 {
		return nil, &RasterizationError{Err: fmt.Errorf("invalid page size %.1fx%.1f", snap.Page.Width, snap.Page.Height)}
	}
	scale = min(max(scale, MinScale), MaxScale)

	wMM, hMM := pxToMM(snap.Page.Width), pxToMM(snap.Page.Height)
	c := canvas.New(wMM, hMM)
	cctx := canvas.NewContext(c)

	cctx.SetFillColor(canvas.White)
	cctx.DrawPath(0, 0, canvas.Rectangle(wMM, hMM))

	if !snap.Background.IsZero() {
		bg, err := r.images.Load(ctx, snap.Background)
		if err != nil {
			return nil, &RasterizationError{Err: err}
		}
		// Stretch the background over the whole page, on both axes.
		bg = fitAspect(bg, wMM/hMM)
		res := canvas.DPMM(float64(bg.Bounds().Dx()) / wMM)
		cctx.DrawImage(0, 0, bg, res)
	}

	for _, item := range snap.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Canvas origin is bottom-left, positions are from the top-left.
		cx := wMM * item.Position.Left / 100
		cy := hMM - hMM*item.Position.Top/100

		if item.Style.Image {
			if err := r.drawImage(ctx, cctx, item, cx, cy); err != nil {
				return nil, &RasterizationError{Err: fmt.Errorf("field %s: %w", item.Key, err)}
			}
			continue
		}

		if err := r.drawText(cctx, item, cx, cy); err != nil {
			return nil, &RasterizationError{Err: fmt.Errorf("field %s: %w", item.Key, err)}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.logger.Debugf("Rasterizing %s at %.1fx", snap.DocumentType, scale)
	return rasterizer.Draw(c, canvas.DPMM(scale*DPI/25.4), canvas.DefaultColorSpace), nil
}

func (r *CanvasRasterizer) drawText(cctx *canvas.Context, item SnapshotItem, cx, cy float64) error {
	text := strings.TrimSpace(item.Text)
	if text == "" {
		return nil
	}

	family, err := r.fonts.Load(item.Style.FontFamily, item.Style.FontWeight)
	if err != nil {
		return err
	}

	color := item.Style.Color
	if color == "" {
		color = DefaultFontColor
	}

	face := family.Face(item.Style.FontSize, canvas.Hex(color), item.Style.FontWeight.canvasStyle(), canvas.FontNormal)
	line := canvas.NewTextLine(face, text, canvas.Left)

	// Center the line on the field position, vertically on the cap height.
	x := cx - line.Bounds().W()/2
	y := cy - face.Metrics().CapHeight/2
	cctx.DrawText(x, y, line)
	return nil
}

// drawImage fits the image inside the signature box keeping its aspect ratio.
func (r *CanvasRasterizer) drawImage(ctx context.Context, cctx *canvas.Context, item SnapshotItem, cx, cy float64) error {
	img, err := r.images.Load(ctx, item.Image)
	if err != nil {
		return err
	}

	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	if iw == 0 || ih == 0 {
		return nil
	}

	boxW, boxH := pxToMM(item.Style.ImageBox.Width), pxToMM(item.Style.ImageBox.Height)
	dpmm := max(iw/boxW, ih/boxH)
	w, h := iw/dpmm, ih/dpmm

	cctx.DrawImage(cx-w/2, cy-h/2, img, canvas.DPMM(dpmm))
	return nil
}

// fitAspect resamples img vertically so its width/height ratio is aspect.
// Canvas draws an image at one resolution for both axes, so a background of
// another shape has to be reshaped before it can cover the page exactly.
func fitAspect(img image.Image, aspect float64) image.Image {
	b := img.Bounds()
	h := max(int(math.Round(float64(b.Dx())/aspect)), 1)
	if h == b.Dy() {
		return img
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
