package s3blob

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kloudy-Sky/openintel/internal/domain"
	"github.com/Kloudy-Sky/openintel/internal/scan"
)

type memoryBlobs struct {
	objects map[string][]byte
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string][]byte)}
}

func (m *memoryBlobs) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = buf
	return nil
}

func (m *memoryBlobs) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, domain.ErrNotFound
}

func (m *memoryBlobs) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	return nil, nil
}

func (m *memoryBlobs) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

func TestArchiveScanWritesTimestampedKey(t *testing.T) {
	blobs := newMemoryBlobs()
	a := NewArchiver(blobs, blobs)

	report := &scan.Report{
		ScannedAt:   time.Date(2026, 8, 30, 14, 15, 2, 0, time.UTC),
		WindowHours: 48,
	}
	path, err := a.ArchiveScan(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, "reports/scans/2026/08/30-141502.json", path)

	var decoded scan.Report
	require.NoError(t, json.Unmarshal(blobs.objects[path], &decoded))
	assert.Equal(t, 48, decoded.WindowHours)
}

func TestArchiveExecutionWritesTimestampedKey(t *testing.T) {
	blobs := newMemoryBlobs()
	a := NewArchiver(blobs, nil)

	result := &domain.ExecutionResult{
		Timestamp: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		Mode:      domain.ModeDryRun,
	}
	path, err := a.ArchiveExecution(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, "reports/executions/2026/08/30-090000.json", path)
	assert.Contains(t, string(blobs.objects[path]), `"dry_run"`)
}
