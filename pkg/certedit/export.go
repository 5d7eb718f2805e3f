package certedit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultSettleDelay = 150 * time.Millisecond

// Download is a finished export, ready to be handed to the client.
type Download struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
}

// Deliverer triggers the download of a finished export.
type Deliverer interface {
	Deliver(ctx context.Context, d Download) error
}

type DelivererFunc func(ctx context.Context, d Download) error

func (f DelivererFunc) Deliver(ctx context.Context, d Download) error {
	return f(ctx, d)
}

type ExportOutcome string

const (
	ExportSucceeded ExportOutcome = "success"
	ExportFailed    ExportOutcome = "failure"
	ExportSkipped   ExportOutcome = "skipped"
)

type ExporterOptions struct {
	// Wait before capturing so drag decorations are gone from the snapshot.
	SettleDelay time.Duration
	// Bitmap scale relative to the logical page size, clamped to [2, 3].
	Scale   float64
	Stamper *QRStamper
	Now     func() time.Time
	Logger  *zap.SugaredLogger
	// Observe is called once per export attempt.
	Observe func(d DocumentType, outcome ExportOutcome, elapsed time.Duration)
}

// Exporter turns an editor into a downloadable PDF. One exporter serves one
// editor; a second Export while one is running is dropped.
type Exporter struct {
	busy atomic.Bool

	rasterizer Rasterizer
	assembler  Assembler
	notifier   Notifier
	opts       ExporterOptions
}

func NewExporter(r Rasterizer, a Assembler, n Notifier, opts ExporterOptions) *Exporter {
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	opts.Scale = min(max(opts.Scale, MinScale), MaxScale)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if n == nil {
		n = LoggerNotifier{Logger: opts.Logger}
	}

	return &Exporter{
		rasterizer: r,
		assembler:  a,
		notifier:   n,
		opts:       opts,
	}
}

func (e *Exporter) Busy() bool {
	return e.busy.Load()
}

// Export captures the editor and delivers the PDF. Move mode is turned off for
// the capture and restored afterwards whatever the outcome. Failures are
// reported through the notifier and returned; nothing is delivered unless the
// whole pipeline succeeded.
func (e *Exporter) Export(ctx context.Context, ed *Editor, deliver Deliverer) (*Download, error) {
	if !e.busy.CompareAndSwap(false, true) {
		e.observe(ed.DocumentType(), ExportSkipped, 0)
		return nil, ErrExportInProgress
	}
	defer e.busy.Store(false)

	start := time.Now()
	prevMoveMode := ed.suspendMoveMode()
	defer ed.restoreMoveMode(prevMoveMode)

	dl, err := e.run(ctx, ed)
	if err == nil && deliver != nil {
		err = deliver.Deliver(ctx, *dl)
	}

	if err != nil {
		e.opts.Logger.Errorw("Export failed", "documentType", ed.DocumentType(), "subject", ed.Subject(), "error", err)
		e.notifier.Notify(Notification{
			Level:   NotifyError,
			Message: fmt.Sprintf("Failed to export %s. Please try again.", ed.DocumentType()),
			At:      e.opts.Now(),
		})
		e.observe(ed.DocumentType(), ExportFailed, time.Since(start))
		return nil, err
	}

	e.notifier.Notify(Notification{
		Level:   NotifySuccess,
		Message: fmt.Sprintf("%s downloaded as %s", ed.DocumentType().Title(), dl.Filename),
		At:      e.opts.Now(),
	})
	e.observe(ed.DocumentType(), ExportSucceeded, time.Since(start))
	return dl, nil
}

func (e *Exporter) run(ctx context.Context, ed *Editor) (*Download, error) {
	if err := sleepContext(ctx, e.opts.SettleDelay); err != nil {
		return nil, err
	}

	snap, err := ed.Snapshot()
	if err != nil {
		return nil, err
	}

	img, err := e.rasterizer.Rasterize(ctx, snap, e.opts.Scale)
	if err != nil {
		var re *RasterizationError
		if !errors.As(err, &re) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = &RasterizationError{Err: err}
		}
		return nil, err
	}
	if img == nil {
		return nil, &RasterizationError{Err: errors.New("rasterizer returned no bitmap")}
	}

	var buf bytes.Buffer
	if err := e.assembler.Assemble(&buf, img, PageFor(img, e.opts.Scale, snap.Orientation)); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	data := buf.Bytes()
	if e.opts.Stamper != nil {
		if data, err = e.opts.Stamper.Stamp(data, id); err != nil {
			return nil, err
		}
	}

	return &Download{
		ID:          id,
		Filename:    Filename(snap.Subject, snap.DocumentType, e.opts.Now()),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (e *Exporter) observe(d DocumentType, outcome ExportOutcome, elapsed time.Duration) {
	if e.opts.Observe != nil {
		e.opts.Observe(d, outcome, elapsed)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
