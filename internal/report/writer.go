package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"discussion-grader/internal/config"
	"discussion-grader/internal/excel"
	"discussion-grader/internal/logger"
	"discussion-grader/internal/model"
	"discussion-grader/internal/storage"

	"github.com/rs/zerolog"
)

type Publisher interface {
	PublishReport(ctx context.Context, report model.RunReport) error
}

// StorageFactory returns the storage for an s3://bucket target.
type StorageFactory func(bucket string) (storage.Storage, error)

// Writer persists run reports. Targets ending in .xlsx become workbooks,
// everything else is the JSON record list; s3://bucket/key targets are
// uploaded, anything else is a local path.
type Writer struct {
	local     storage.Storage
	s3        StorageFactory
	publisher Publisher
	log       zerolog.Logger
}

func NewWriter(cfg *config.Config, publisher Publisher) *Writer {
	return &Writer{
		local: storage.NewLocalStorage(""),
		s3: func(bucket string) (storage.Storage, error) {
			return storage.NewS3Storage(cfg, bucket)
		},
		publisher: publisher,
		log:       logger.Get().With().Str("component", "report").Logger(),
	}
}

// Deliver writes the artifact when target is set and publishes the report
// when a publisher is configured. A publish failure is logged, not returned:
// the artifact is the record of the run.
func (w *Writer) Deliver(ctx context.Context, report model.RunReport, target string) error {
	if target != "" {
		if err := w.Write(ctx, report, target); err != nil {
			return err
		}
		w.log.Info().Str("target", target).Int("records", len(report.Records)).Msg("Results saved")
	}

	if w.publisher != nil {
		if err := w.publisher.PublishReport(ctx, report); err != nil {
			w.log.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to publish report")
		} else {
			w.log.Info().Str("run_id", report.RunID).Msg("Report published")
		}
	}
	return nil
}

func (w *Writer) Write(ctx context.Context, report model.RunReport, target string) error {
	data, err := Render(report, target)
	if err != nil {
		return err
	}

	store, key, err := w.resolve(target)
	if err != nil {
		return err
	}

	if err := store.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", target, err)
	}
	return nil
}

// Read loads the records of a JSON report previously written to target.
func (w *Writer) Read(ctx context.Context, target string) ([]model.ProcessingRecord, error) {
	if strings.EqualFold(filepath.Ext(target), ".xlsx") {
		return nil, fmt.Errorf("cannot read records back from workbook %s", target)
	}

	store, key, err := w.resolve(target)
	if err != nil {
		return nil, err
	}

	rc, err := store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read report from %s: %w", target, err)
	}
	defer rc.Close()

	var records []model.ProcessingRecord
	if err := json.NewDecoder(rc).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", target, err)
	}
	return records, nil
}

func (w *Writer) resolve(target string) (storage.Storage, string, error) {
	bucket, key, ok := storage.ParseS3URI(target)
	if !ok {
		if storage.IsS3URI(target) {
			return nil, "", fmt.Errorf("invalid S3 target %q: expected s3://bucket/key", target)
		}
		return w.local, target, nil
	}
	s, err := w.s3(bucket)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return s, key, nil
}

// Render encodes a report in the format implied by target's extension.
func Render(report model.RunReport, target string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(target), ".xlsx") {
		return excel.WriteReport(report)
	}

	data, err := json.MarshalIndent(report.Records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal records: %w", err)
	}
	return append(data, '\n'), nil
}
