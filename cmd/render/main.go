// Command render produces documents from a saved layout without the api.
//
//	render -type certificate -first Amit -last Shah -id abc123 -out cert.pdf
//	render -layout layout.json -csv students.csv -out certificates.zip
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
)

func main() {
	var (
		layoutPath  = flag.String("layout", "", "layout json saved from an editor")
		docType     = flag.String("type", "", "document type, overrides the layout's")
		csvPath     = flag.String("csv", "", "csv of records to render in a batch")
		firstName   = flag.String("first", "", "first name of a single record")
		lastName    = flag.String("last", "", "last name of a single record")
		recordID    = flag.String("id", "", "id of a single record")
		out         = flag.String("out", "", "output .pdf for a single record or .zip for a batch")
		fontsPath   = flag.String("fonts", "font_metadata.json", "font metadata written by scan_font")
		templateDir = flag.String("templates", "templates", "directory local backgrounds are read from")
		engine      = flag.String("engine", certedit.EnginePdfcpu, "pdf engine, pdfcpu or fpdf")
		scale       = flag.Float64("scale", certedit.DefaultScale, "bitmap scale, clamped to [2, 3]")
		workers     = flag.Int("workers", 0, "batch workers, 0 picks from the cpu count")
		qrPattern   = flag.String("qr", "", "stamp a QR code linking to this pattern, e.g. https://example.com/verify/%s")
	)
	flag.Parse()

	logger := util.NewLogger("development")
	defer logger.Sync()

	layout, err := readLayout(*layoutPath)
	if err != nil {
		log.Fatalf("Failed to read layout: %v", err)
	}
	if *docType != "" {
		layout.DocumentType = certedit.DocumentType(*docType)
	}
	if layout.DocumentType == "" {
		layout.DocumentType = certedit.DocumentCertificate
	}

	tmpl, err := certedit.TemplateFor(layout.DocumentType)
	if err != nil {
		log.Fatalf("Failed to get template: %v", err)
	}

	fontMetadata, err := certedit.ReadFontMetadata(*fontsPath)
	if err != nil {
		logger.Warnf("Font metadata unavailable, using built-in fonts only: %v", err)
	}

	images := certedit.NewImageLoader()
	images.Register(certedit.OriginLocal, certedit.DirSource(*templateDir))

	assembler, err := certedit.NewAssembler(*engine)
	if err != nil {
		log.Fatalf("Failed to create assembler: %v", err)
	}

	opts := certedit.ExporterOptions{Scale: *scale, Logger: logger}
	if *qrPattern != "" {
		opts.Stamper = &certedit.QRStamper{URLPattern: *qrPattern}
	}
	rasterizer := certedit.NewCanvasRasterizer(images, certedit.NewFontLoader(fontMetadata, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	if *csvPath != "" {
		if *out == "" {
			*out = "documents.zip"
		}
		err = renderBatch(ctx, tmpl, layout, *csvPath, *out, certedit.BatchOptions{
			Workers:    *workers,
			Rasterizer: rasterizer,
			Assembler:  assembler,
			Exporter:   opts,
			Logger:     logger,
		})
	} else {
		rec := certedit.Record{ID: *recordID, FirstName: *firstName, LastName: *lastName}
		err = renderSingle(ctx, tmpl, layout, rec, *out, rasterizer, assembler, opts)
	}
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	logger.Infof("Done in %s", time.Since(start))
}

func readLayout(path string) (certedit.Layout, error) {
	var layout certedit.Layout
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return layout, err
	}
	if err := json.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("unmarshalling layout: %w", err)
	}
	return layout, nil
}

func renderSingle(ctx context.Context, tmpl *certedit.Template, layout certedit.Layout, rec certedit.Record, out string, r certedit.Rasterizer, a certedit.Assembler, opts certedit.ExporterOptions) error {
	if !layout.Background.IsZero() {
		tmpl.Background = layout.Background
	}

	ed := certedit.Open(tmpl, rec, certedit.EditorOptions{Logger: opts.Logger})
	defer ed.Close(ctx)

	if err := ed.ApplyLayout(layout); err != nil {
		return err
	}

	exporter := certedit.NewExporter(r, a, certedit.LoggerNotifier{Logger: opts.Logger}, opts)
	_, err := exporter.Export(ctx, ed, certedit.DelivererFunc(func(_ context.Context, d certedit.Download) error {
		if out == "" {
			out = d.Filename
		}
		if err := os.WriteFile(out, d.Data, 0644); err != nil {
			return err
		}
		fmt.Printf("Saved %q\n", out)
		return nil
	}))
	return err
}

func renderBatch(ctx context.Context, tmpl *certedit.Template, layout certedit.Layout, csvPath, out string, opts certedit.BatchOptions) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := certedit.ReadRecordsCSV(f)
	if err != nil {
		return err
	}

	outDir, err := util.CreateTempDir("render-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(outDir)
	opts.OutputDir = outDir

	results, err := certedit.RenderBatch(ctx, tmpl, layout, records, opts)
	if err != nil {
		return err
	}

	if !strings.EqualFold(filepath.Ext(out), ".zip") {
		out += ".zip"
	}
	if err := certedit.ZipResults(results, out); err != nil {
		return err
	}

	fmt.Printf("Saved %d documents to %q\n", len(results), out)
	return nil
}
