package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lllllllleong/financialstatementflow/internal/config"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryGateway() (*Gateway, *MemoryBlobs, *MemoryRecords) {
	blobs, records := NewMemoryBlobs(), NewMemoryRecords()
	return NewGatewayWithBackend(&Backend{Blobs: blobs, Records: records}), blobs, records
}

func TestPersistWritesBlobAndRecord(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newMemoryGateway()

	csv := "Year,Revenue\n2023,90\n2024,100\n"
	res, err := g.Persist(ctx, PersistRequest{
		CSV:        csv,
		Filename:   "statement.pdf",
		Analysis:   "## Analysis",
		Model:      "| Year | Revenue |",
		SourceHash: "abc123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.FileID)
	require.NotEmpty(t, res.RecordID)

	rec, err := g.Record(ctx, res.RecordID)
	require.NoError(t, err)
	assert.Equal(t, res.RecordID, rec.ID)
	assert.Equal(t, "statement.pdf", rec.OriginalFilename)
	assert.Equal(t, "statement.pdf.csv", rec.CSVFilename)
	assert.Equal(t, res.FileID, rec.StoredFileID)
	assert.Equal(t, int64(len(csv)), rec.FileSize)
	assert.Equal(t, 2, rec.RowCount)
	assert.Equal(t, []string{"Year", "Revenue"}, rec.Columns)
	assert.Equal(t, models.StatusCompleted, rec.Status)
	assert.Equal(t, "## Analysis", rec.Analysis)
	assert.Equal(t, "| Year | Revenue |", rec.Model)
	assert.Equal(t, "abc123", rec.SourceSHA256)
	assert.Equal(t, "UTC", rec.UploadDate.Location().String())
}

func TestPersistUsesOneUploadTimestamp(t *testing.T) {
	ctx := context.Background()
	g, blobs, _ := newMemoryGateway()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var ticks int
	g.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}

	res, err := g.Persist(ctx, PersistRequest{CSV: "Year,Revenue\n2024,100\n", Filename: "statement.pdf"})
	require.NoError(t, err)

	rec, err := g.Record(ctx, res.RecordID)
	require.NoError(t, err)
	blobs.mu.RLock()
	meta := blobs.files[res.FileID].meta
	blobs.mu.RUnlock()

	assert.Equal(t, 1, ticks)
	assert.Equal(t, base.Add(time.Second), rec.UploadDate)
	assert.Equal(t, meta.UploadDate, rec.UploadDate)
}

func TestPersistRoundTripIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newMemoryGateway()

	csv := "\"Line item\",Amount\r\nRevenue,\"1,000\"\r\n"
	res, err := g.Persist(ctx, PersistRequest{CSV: csv, Filename: "q1.pdf"})
	require.NoError(t, err)

	data, err := g.File(ctx, res.FileID)
	require.NoError(t, err)
	assert.Equal(t, []byte(csv), data)
}

func TestPersistTwiceCreatesDistinctRecords(t *testing.T) {
	ctx := context.Background()
	g, blobs, records := newMemoryGateway()

	req := PersistRequest{CSV: "Year,Revenue\n2024,100", Filename: "same.pdf"}
	first, err := g.Persist(ctx, req)
	require.NoError(t, err)
	second, err := g.Persist(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.RecordID, second.RecordID)
	assert.NotEqual(t, first.FileID, second.FileID)
	assert.Equal(t, 2, records.Count())
	assert.Equal(t, 2, blobs.Count())
}

func TestPersistEmptyCSV(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newMemoryGateway()

	res, err := g.Persist(ctx, PersistRequest{CSV: "", Filename: "blank.pdf"})
	require.NoError(t, err)

	rec, err := g.Record(ctx, res.RecordID)
	require.NoError(t, err)
	assert.Zero(t, rec.RowCount)
	assert.Equal(t, []string{}, rec.Columns)
	assert.Zero(t, rec.FileSize)
}

func TestPersistNotConnected(t *testing.T) {
	_, err := NewGateway(nil).Persist(context.Background(), PersistRequest{CSV: "a", Filename: "x.pdf"})

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestGatewayRetriesFailedConnect(t *testing.T) {
	var attempts int32
	g := NewGateway(func(ctx context.Context) (*Backend, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return nil, errors.New("connection refused")
		}
		return &Backend{Blobs: NewMemoryBlobs(), Records: NewMemoryRecords()}, nil
	})

	_, err := g.Persist(context.Background(), PersistRequest{CSV: "a\n1", Filename: "x.pdf"})
	require.Error(t, err)

	_, err = g.Persist(context.Background(), PersistRequest{CSV: "a\n1", Filename: "x.pdf"})
	require.NoError(t, err)

	_, err = g.Persist(context.Background(), PersistRequest{CSV: "a\n1", Filename: "x.pdf"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

type failingBlobs struct{ err error }

func (f failingBlobs) Put(context.Context, string, []byte, models.FileMetadata) (string, error) {
	return "", f.err
}

func (f failingBlobs) Get(context.Context, string) ([]byte, error) { return nil, f.err }

func TestPersistBlobFailureSkipsRecord(t *testing.T) {
	records := NewMemoryRecords()
	g := NewGatewayWithBackend(&Backend{Blobs: failingBlobs{err: errors.New("write rejected")}, Records: records})

	_, err := g.Persist(context.Background(), PersistRequest{CSV: "a\n1", Filename: "x.pdf"})

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "store csv file", perr.Op)
	assert.Zero(t, records.Count())
}

func TestRecordAndFileNotFound(t *testing.T) {
	g, _, _ := newMemoryGateway()

	_, err := g.Record(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.File(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConnector(t *testing.T) {
	g := NewGateway(NewConnector(config.StoreConfig{Records: config.RecordsMemory, Blobs: config.BlobsMemory}))
	t.Cleanup(func() { _ = g.Close() })

	res, err := g.Persist(context.Background(), PersistRequest{CSV: "Year\n2024", Filename: "m.pdf"})
	require.NoError(t, err)

	data, err := g.File(context.Background(), res.FileID)
	require.NoError(t, err)
	assert.Equal(t, "Year\n2024", string(data))
}

func TestConnectorRejectsUnknownBackend(t *testing.T) {
	_, err := NewConnector(config.StoreConfig{Records: "cassandra", Blobs: config.BlobsMemory})(context.Background())
	assert.Error(t, err)

	_, err = NewConnector(config.StoreConfig{Records: config.RecordsMemory, Blobs: "ftp"})(context.Background())
	assert.Error(t, err)
}

func TestMetadataStrings(t *testing.T) {
	m := metadataStrings(models.FileMetadata{
		OriginalFilename: "a.pdf",
		ContentType:      "text/csv",
		RowCount:         3,
		Columns:          []string{"Year", "Net, Income"},
	})
	assert.Equal(t, "a.pdf", m["original_filename"])
	assert.Equal(t, "3", m["row_count"])
	assert.Equal(t, `["Year","Net, Income"]`, m["columns"])
}
