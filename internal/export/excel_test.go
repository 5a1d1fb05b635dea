package export

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"eskan/internal/database"
	"eskan/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestExporter(t *testing.T) (*Exporter, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewExporter(db, t.TempDir(), &logger), db
}

func periodDay(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func seedExportRequest(t *testing.T, db *database.DB, checkIn, checkOut time.Time) *models.BookingRequest {
	t.Helper()
	r, err := models.NewBookingRequest("1234567890", "THR", 7, 1, checkIn, checkOut, "")
	require.NoError(t, err)
	require.NoError(t, r.AddGuest("Employee", "1234567890", models.RelationSelf, 80))
	require.NoError(t, r.Submit(7))
	require.NoError(t, db.CreateBookingRequest(context.Background(), r))
	return r
}

func TestExportRequests(t *testing.T) {
	exporter, db := newTestExporter(t)
	ctx := context.Background()

	inside := seedExportRequest(t, db, periodDay(10), periodDay(13))
	seedExportRequest(t, db, periodDay(25), periodDay(28))

	path, err := exporter.ExportRequests(ctx, periodDay(1), periodDay(20))
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, path, "requests_2026-10-01_to_2026-10-20.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Period: 2026-10-01 - 2026-10-20", title)

	header, err := f.GetCellValue(sheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Tracking Code", header)

	code, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, inside.TrackingCode, code)

	status, err := f.GetCellValue(sheetName, "H3")
	require.NoError(t, err)
	assert.Equal(t, "Submitted to hotel", status)

	// The stay outside the period stays out of the report.
	outOfRange, err := f.GetCellValue(sheetName, "A4")
	require.NoError(t, err)
	assert.Empty(t, outOfRange)
}

func TestExportRequestsEmptyPeriod(t *testing.T) {
	exporter, _ := newTestExporter(t)

	path, err := exporter.ExportRequests(context.Background(), periodDay(1), periodDay(5))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExportRequestsInvalidPeriod(t *testing.T) {
	exporter, _ := newTestExporter(t)

	_, err := exporter.ExportRequests(context.Background(), periodDay(20), periodDay(10))
	assert.ErrorIs(t, err, database.ErrValidation)

	_, err = exporter.ExportRequests(context.Background(), periodDay(10), periodDay(10))
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestExportCreatesDirectory(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir() + "/nested/exports"
	exporter := NewExporter(db, dir, &logger)

	_, err = exporter.ExportRequests(context.Background(), periodDay(1), periodDay(5))
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
