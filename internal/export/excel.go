// Package export produces XLSX reports of booking requests for the welfare
// office.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eskan/internal/database"
	"eskan/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Requests"

type Exporter struct {
	db     *database.DB
	path   string
	logger *zerolog.Logger
}

func NewExporter(db *database.DB, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{db: db, path: path, logger: logger}
}

// ExportRequests writes every request overlapping the period into an XLSX
// file and returns its path.
func (e *Exporter) ExportRequests(ctx context.Context, from, to time.Time) (string, error) {
	if !to.After(from) {
		return "", fmt.Errorf("%w: export period end must be after start", database.ErrValidation)
	}

	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	requests, err := e.db.ListRequestsByDateRange(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("load requests: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		from.Format("2006-01-02"), to.Format("2006-01-02")))

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.MergeCell(sheetName, "A1", "J1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	e.writeHeaders(f)
	for i, request := range requests {
		e.writeRequestRow(f, i+3, request)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "B", 16)
	_ = f.SetColWidth(sheetName, "C", "H", 14)
	_ = f.SetColWidth(sheetName, "I", "J", 20)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("requests_%s_to_%s.xlsx",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("requests", len(requests)).Msg("export file created")
	return filePath, nil
}

func (e *Exporter) writeHeaders(f *excelize.File) {
	headers := []string{
		"Tracking Code", "Employee", "Province", "Hotel ID", "Check-in",
		"Check-out", "Guests", "Status", "Submitted At", "Last Change",
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
}

func (e *Exporter) writeRequestRow(f *excelize.File, row int, request *models.BookingRequest) {
	values := []interface{}{
		request.TrackingCode,
		request.EmployeeNationalCode,
		request.EmployeeProvinceCode,
		request.HotelID,
		request.CheckIn.Format("2006-01-02"),
		request.CheckOut.Format("2006-01-02"),
		request.GuestCount,
		models.StatusLabel(request.Status),
		request.SubmittedAt.Format("2006-01-02 15:04"),
		request.StatusUpdatedAt.Format("2006-01-02 15:04"),
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheetName, cell, v)
	}

	if styleID, err := e.statusStyle(f, request.Status); err == nil {
		cell, _ := excelize.CoordinatesToCellName(8, row)
		_ = f.SetCellStyle(sheetName, cell, cell, styleID)
	}
}

func (e *Exporter) statusStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusHotelApproved:
		color = "#C6EFCE"
	case models.StatusHotelRejected:
		color = "#FFC7CE"
	case models.StatusSubmitted:
		color = "#FFEB9C"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
