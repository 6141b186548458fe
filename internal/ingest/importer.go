package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
	"github.com/Priya8975/merchant-activity-service/internal/metrics"
)

// Config controls a single import run.
type Config struct {
	DataDir    string
	FilePrefix string
	BatchSize  int
}

// Importer runs the ingestion pipeline: guard check, discovery, then every
// file in name order through ParseRow, the Deduplicator and the Batcher.
// A run is strictly sequential and an Importer must not be shared between
// concurrent runs.
type Importer struct {
	cfg    Config
	writer Writer
	logger *slog.Logger
	open   func(path string) (io.ReadCloser, error)
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func NewImporter(cfg Config, writer Writer, logger *slog.Logger) *Importer {
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = DefaultFilePrefix
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Importer{
		cfg:    cfg,
		writer: writer,
		logger: logger,
		open:   openFile,
	}
}

// Run executes one import. If storage already holds records nothing is read
// and the summary reports AlreadyLoaded. Unreadable directories and files are
// logged and skipped; a writer failure stops the run and is returned with
// the totals reached so far.
func (imp *Importer) Run(ctx context.Context) (domain.ImportSummary, error) {
	var summary domain.ImportSummary

	existing, err := imp.writer.CountExisting(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return summary, fmt.Errorf("%w: counting existing records: %w", ErrWrite, err)
	}
	if existing > 0 {
		imp.logger.Info("import skipped, storage already loaded", "existing_rows", existing)
		metrics.RunsTotal.WithLabelValues("already_loaded").Inc()
		summary.AlreadyLoaded = true
		return summary, nil
	}

	files, err := DiscoverFiles(imp.cfg.DataDir, imp.cfg.FilePrefix)
	if err != nil {
		imp.logger.Error("source discovery failed", "data_dir", imp.cfg.DataDir, "error", err)
	}
	if len(files) == 0 {
		imp.logger.Warn("no source files found", "data_dir", imp.cfg.DataDir, "prefix", imp.cfg.FilePrefix)
		metrics.RunsTotal.WithLabelValues("completed").Inc()
		return summary, nil
	}

	imp.logger.Info("found source files", "count", len(files), "data_dir", imp.cfg.DataDir)

	dedup := NewDeduplicator()
	batcher := NewBatcher(imp.writer, imp.cfg.BatchSize)

	for _, path := range files {
		stats, err := imp.importFile(ctx, path, dedup, batcher)
		summary.FilesProcessed++
		summary.RowsInserted += stats.inserted
		summary.RowsSkipped += stats.skipped
		metrics.RowsTotal.WithLabelValues("inserted").Add(float64(stats.inserted))
		metrics.RowsTotal.WithLabelValues("skipped").Add(float64(stats.skipped))

		if err != nil {
			if errors.Is(err, ErrFileRead) {
				metrics.FilesTotal.WithLabelValues("read_error").Inc()
				imp.logger.Error("file import interrupted",
					"file", filepath.Base(path),
					"inserted", stats.inserted,
					"skipped", stats.skipped,
					"error", err,
				)
				continue
			}
			metrics.RunsTotal.WithLabelValues("failed").Inc()
			return summary, fmt.Errorf("importing %s: %w", filepath.Base(path), err)
		}

		metrics.FilesTotal.WithLabelValues("processed").Inc()
		imp.logger.Info("file imported",
			"file", filepath.Base(path),
			"inserted", stats.inserted,
			"skipped", stats.skipped,
		)
	}

	imp.logger.Info("import complete",
		"files_processed", summary.FilesProcessed,
		"rows_inserted", summary.RowsInserted,
		"rows_skipped", summary.RowsSkipped,
		"distinct_event_ids", dedup.Len(),
	)
	metrics.RunsTotal.WithLabelValues("completed").Inc()
	return summary, nil
}

type fileStats struct {
	inserted int
	skipped  int
}

func (s *fileStats) skip(reason RejectReason) {
	s.skipped++
	metrics.RejectionsTotal.WithLabelValues(string(reason)).Inc()
}

// importFile opens one source file and streams it through importRows.
func (imp *Importer) importFile(ctx context.Context, path string, dedup *Deduplicator, batcher *Batcher) (fileStats, error) {
	f, err := imp.open(path)
	if err != nil {
		return fileStats{}, fmt.Errorf("%w: opening %s: %w", ErrFileRead, path, err)
	}
	defer f.Close()

	return imp.importRows(ctx, path, f, dedup, batcher)
}

// importRows processes one source stream. Rows buffered when the stream
// ends, normally or not, are flushed before returning; a read error is
// returned after that flush, wrapped in ErrFileRead.
func (imp *Importer) importRows(ctx context.Context, name string, r io.Reader, dedup *Deduplicator, batcher *Batcher) (fileStats, error) {
	var stats fileStats

	rows, err := newRowReader(r)
	if err != nil {
		return stats, fmt.Errorf("%w: %s: %w", ErrFileRead, name, err)
	}

	var readErr error
	for {
		raw, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("%w: %s after line %d: %w", ErrFileRead, name, rows.line, err)
			break
		}

		res := ParseRow(raw)
		if !res.Accepted() {
			stats.skip(res.Reason)
			continue
		}
		if dedup.Seen(res.Record.EventID) {
			stats.skip(RejectDuplicateEventID)
			continue
		}
		dedup.Mark(res.Record.EventID)

		if err := batcher.Add(ctx, res.Record); err != nil {
			stats.inserted += batcher.TakeWritten()
			return stats, err
		}
	}

	err = batcher.Flush(ctx)
	stats.inserted += batcher.TakeWritten()
	if err != nil {
		return stats, err
	}
	return stats, readErr
}
