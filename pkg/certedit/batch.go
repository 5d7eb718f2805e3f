package certedit

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

type GeneratedResult struct {
	Number   int
	FilePath string
	ID       string
}

type BatchOptions struct {
	OutputDir  string
	Workers    int
	Rasterizer Rasterizer
	Assembler  Assembler
	Exporter   ExporterOptions
	Logger     *zap.SugaredLogger
}

type batchJob struct {
	index  int
	record Record
}

type batchResult struct {
	index int
	path  string
	id    string
	err   error
}

func DetermineWorkers(jobCount int) int {
	if jobCount <= 0 {
		return max(runtime.GOMAXPROCS(0), 1)
	}
	return min(max(runtime.GOMAXPROCS(0)*2, 1), jobCount)
}

// RenderBatch exports one document per record with the same layout. Each
// record gets its own editor and exporter; files are written to OutputDir.
func RenderBatch(ctx context.Context, t *Template, layout Layout, records []Record, opts BatchOptions) ([]GeneratedResult, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if len(records) == 0 {
		return []GeneratedResult{}, nil
	}
	if !layout.Background.IsZero() {
		withBackground := *t
		withBackground.Background = layout.Background
		t = &withBackground
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DetermineWorkers(len(records))
	}
	opts.Logger.Infof("Using %d workers for %d records", workers, len(records))

	jobs := make(chan batchJob, len(records))
	results := make(chan batchResult, len(records))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				path, id, err := renderOne(ctx, t, layout, job, opts)
				results <- batchResult{index: job.index, path: path, id: id, err: err}
			}
		}()
	}

	for i, r := range records {
		jobs <- batchJob{index: i, record: r}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	return aggregateResults(results, len(records))
}

func renderOne(ctx context.Context, t *Template, layout Layout, job batchJob, opts BatchOptions) (string, string, error) {
	ed := Open(t, job.record, EditorOptions{Logger: opts.Logger, Now: opts.Exporter.Now})
	defer ed.Close(ctx)

	if err := ed.ApplyLayout(layout); err != nil {
		return "", "", fmt.Errorf("failed to apply layout for row %d: %w", job.index, err)
	}

	exporter := NewExporter(opts.Rasterizer, opts.Assembler, LoggerNotifier{Logger: opts.Logger}, opts.Exporter)

	var path string
	dl, err := exporter.Export(ctx, ed, DelivererFunc(func(_ context.Context, d Download) error {
		// Rows can share a subject name, the row number keeps files apart.
		path = filepath.Join(opts.OutputDir, fmt.Sprintf("%03d_%s", job.index+1, d.Filename))
		return os.WriteFile(path, d.Data, 0644)
	}))
	if err != nil {
		return "", "", fmt.Errorf("failed to export row %d: %w", job.index, err)
	}

	return path, dl.ID, nil
}

func aggregateResults(results <-chan batchResult, total int) ([]GeneratedResult, error) {
	byIndex := make(map[int]batchResult, total)
	var firstErr error

	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		byIndex[r.index] = r
	}

	if firstErr != nil {
		return nil, firstErr
	}

	out := make([]GeneratedResult, 0, total)
	for i := range total {
		r, ok := byIndex[i]
		if !ok {
			return nil, fmt.Errorf("missing result for row %d", i)
		}
		out = append(out, GeneratedResult{Number: i + 1, FilePath: r.path, ID: r.id})
	}
	return out, nil
}

// ZipResults packs the generated files into one archive.
func ZipResults(results []GeneratedResult, zipFile string) error {
	f, err := os.Create(zipFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeZip(f, results); err != nil {
		return err
	}
	return f.Close()
}

func writeZip(w io.Writer, results []GeneratedResult) error {
	archive := zip.NewWriter(w)
	for _, r := range results {
		if err := addFileToZip(archive, r.FilePath, filepath.Base(r.FilePath)); err != nil {
			archive.Close()
			return err
		}
	}

	// Close flushes the entries and writes the central directory.
	if err := archive.Close(); err != nil {
		return fmt.Errorf("failed to finish zip: %w", err)
	}
	return nil
}

func addFileToZip(archive *zip.Writer, filePath, archivePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = archivePath
	header.Method = zip.Deflate

	writer, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}

	src, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(writer, src)
	return err
}
