package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// Supported compression codecs.
const (
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
	CompressionGzip   = "gzip"
	CompressionNone   = "none"
)

// ParquetArchive keeps one parquet file of change events per source URL.
type ParquetArchive struct {
	basePath    string
	compression string
	withContent bool
	logger      zerolog.Logger
	locks       *urlLocks
}

// ParquetArchiveBuilder provides a fluent interface for creating ParquetArchive
type ParquetArchiveBuilder struct {
	basePath    string
	compression string
	withContent bool
	logger      zerolog.Logger
}

// NewParquetArchiveBuilder creates a new builder
func NewParquetArchiveBuilder(logger zerolog.Logger) *ParquetArchiveBuilder {
	return &ParquetArchiveBuilder{
		compression: CompressionZstd,
		withContent: true,
		logger:      logger.With().Str("component", "ParquetArchive").Logger(),
	}
}

// WithBasePath sets the archive root directory
func (b *ParquetArchiveBuilder) WithBasePath(path string) *ParquetArchiveBuilder {
	b.basePath = path
	return b
}

// WithCompression sets the codec (zstd, snappy, gzip or none)
func (b *ParquetArchiveBuilder) WithCompression(codec string) *ParquetArchiveBuilder {
	if codec != "" {
		b.compression = strings.ToLower(codec)
	}
	return b
}

// WithContent controls whether full snapshot text is archived next to the diff
func (b *ParquetArchiveBuilder) WithContent(enabled bool) *ParquetArchiveBuilder {
	b.withContent = enabled
	return b
}

// Build creates the archive and its root directory.
func (b *ParquetArchiveBuilder) Build() (*ParquetArchive, error) {
	if b.basePath == "" {
		return nil, common.NewValidationError("parquet_base_path", b.basePath, "archive base path is not configured")
	}
	switch b.compression {
	case CompressionZstd, CompressionSnappy, CompressionGzip, CompressionNone:
	default:
		return nil, common.NewValidationError("compression_codec", b.compression, "unsupported compression codec")
	}
	if err := os.MkdirAll(b.basePath, 0755); err != nil {
		return nil, common.WrapError(err, "failed to create archive directory "+b.basePath)
	}

	return &ParquetArchive{
		basePath:    b.basePath,
		compression: b.compression,
		withContent: b.withContent,
		logger:      b.logger,
		locks:       newURLLocks(),
	}, nil
}

// Name implements notifier.Sink.
func (pa *ParquetArchive) Name() string { return "parquet" }

// NotifyChange appends the event to the URL's archive file.
func (pa *ParquetArchive) NotifyChange(ctx context.Context, event models.ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("archive write cancelled: %w", err)
	}

	lock := pa.locks.get(event.URL)
	lock.Lock()
	defer lock.Unlock()

	path, err := archivePath(pa.basePath, event.URL)
	if err != nil {
		return err
	}

	rows, err := readArchivedChanges(path)
	if err != nil {
		pa.logger.Error().Err(err).Str("path", path).Msg("Unreadable archive file, starting a new one")
		rows = nil
	}
	for _, row := range rows {
		if row.EventID == event.ID {
			pa.logger.Debug().Str("url", event.URL).Str("event_id", event.ID).Msg("Event already archived, skipping duplicate")
			return nil
		}
	}
	rows = append(rows, newArchivedChange(event, pa.withContent))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("archive write cancelled: %w", err)
	}
	if err := pa.writeRows(path, rows); err != nil {
		return err
	}

	pa.logger.Debug().Str("url", event.URL).Str("path", path).Int("total_records", len(rows)).Msg("Change event archived")
	return nil
}

// NotifyHealth implements notifier.Sink. Health events are not archived.
func (pa *ParquetArchive) NotifyHealth(context.Context, models.HealthEvent) error {
	return nil
}

// Changes returns the archived change events for url, newest first.
func (pa *ParquetArchive) Changes(url string) ([]models.ChangeEvent, error) {
	lock := pa.locks.get(url)
	lock.Lock()
	defer lock.Unlock()

	path, err := archivePath(pa.basePath, url)
	if err != nil {
		return nil, err
	}
	rows, err := readArchivedChanges(path)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DetectedAt > rows[j].DetectedAt })
	events := make([]models.ChangeEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.ToChangeEvent())
	}
	return events, nil
}

// writeRows rewrites the archive through a temporary file so a crash never leaves a partial file.
func (pa *ParquetArchive) writeRows(path string, rows []ArchivedChange) error {
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return common.WrapError(err, "failed to create archive file "+tmp)
	}

	writer := parquet.NewGenericWriter[ArchivedChange](file, pa.compressionOption())
	if _, err := writer.Write(rows); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return common.WrapError(err, "failed to write archive rows")
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return common.WrapError(err, "failed to close parquet writer")
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return common.WrapError(err, "failed to close archive file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return common.WrapError(err, "failed to replace archive file "+path)
	}
	return nil
}

func (pa *ParquetArchive) compressionOption() parquet.WriterOption {
	switch pa.compression {
	case CompressionSnappy:
		return parquet.Compression(&parquet.Snappy)
	case CompressionGzip:
		return parquet.Compression(&parquet.Gzip)
	case CompressionNone:
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

// readArchivedChanges returns every row in path. A missing or empty file yields no rows.
func readArchivedChanges(path string) ([]ArchivedChange, error) {
	osFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open archive file '%s': %w", path, err)
	}
	defer osFile.Close()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive file '%s': %w", path, err)
	}
	if stat.Size() == 0 {
		return nil, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file '%s': %w", path, err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var rows []ArchivedChange
	for {
		var row ArchivedChange
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading row from parquet file '%s': %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
