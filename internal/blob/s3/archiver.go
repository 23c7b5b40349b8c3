package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/scan"
)

// Archiver uploads scan and execution reports as JSON so every run
// leaves an auditable record. Reports are never overwritten: keys
// carry the run timestamp down to the second.
//
//	reports/scans/2026/08/30-141502.json
//	reports/executions/2026/08/30-141502.json
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
}

// NewArchiver creates an Archiver. reader may be nil to skip the
// post-upload existence check.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader) *Archiver {
	return &Archiver{writer: writer, reader: reader}
}

// ArchiveScan uploads a scan report and returns its storage path.
func (a *Archiver) ArchiveScan(ctx context.Context, report *scan.Report) (string, error) {
	path := reportPath("scans", report.ScannedAt)
	if err := a.upload(ctx, path, report); err != nil {
		return "", fmt.Errorf("s3blob: archive scan report: %w", err)
	}
	return path, nil
}

// ArchiveExecution uploads an execution result and returns its
// storage path.
func (a *Archiver) ArchiveExecution(ctx context.Context, result *domain.ExecutionResult) (string, error) {
	path := reportPath("executions", result.Timestamp)
	if err := a.upload(ctx, path, result); err != nil {
		return "", fmt.Errorf("s3blob: archive execution result: %w", err)
	}
	return path, nil
}

func (a *Archiver) upload(ctx context.Context, path string, report any) error {
	buf, err := marshalReport(report)
	if err != nil {
		return err
	}
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/json"); err != nil {
		return err
	}

	// Verify the object landed before reporting success. Deleting
	// source data based on an unverified archive is how audits die.
	if a.reader != nil {
		exists, err := a.reader.Exists(ctx, path)
		if err != nil {
			return fmt.Errorf("verify %s: %w", path, err)
		}
		if !exists {
			return fmt.Errorf("verify %s: object missing after upload", path)
		}
	}
	return nil
}

// reportPath partitions report keys by year and month so prefix
// listings stay cheap as history accumulates.
func reportPath(kind string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("reports/%s/%s.json", kind, at.Format("2006/01/02-150405"))
}

func marshalReport(report any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}
