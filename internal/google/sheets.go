// Package google mirrors booking requests into a report spreadsheet kept by
// the welfare office. The worker treats every call as retryable.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"eskan/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrRowNotFound signals that a request has no row in the report sheet yet.
var ErrRowNotFound = errors.New("request row not found")

const (
	requestsSheetRange = "Requests!A:A"
	callTimeout        = 30 * time.Second
)

type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
}

// NewSheetsService authenticates with a service account credentials file and
// warms the row cache in the background.
func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	service := &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[int64]int),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		_ = service.WarmUpCache(ctx)
	}()

	return service, nil
}

// TestConnection reads the first cell to verify access to the spreadsheet.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Requests!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, requestsSheetRange).Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			fmt.Sscanf(v, "%d", &id)
		}
		if id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// UpsertRequest updates an existing request row or appends a new one.
func (s *SheetsService) UpsertRequest(request *models.BookingRequest) error {
	if request == nil {
		return fmt.Errorf("request is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	rowIdx, err := s.findRequestRow(ctx, request.ID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.appendRequest(ctx, request)
		}
		return err
	}

	rangeData := fmt.Sprintf("Requests!A%d:J%d", rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{requestRowValues(request)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// UpdateRequestStatus rewrites the status and updated-at cells for a request.
func (s *SheetsService) UpdateRequestStatus(requestID int64, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	rowIdx, err := s.findRequestRow(ctx, requestID)
	if err != nil {
		return err
	}

	statusRange := fmt.Sprintf("Requests!H%d:H%d", rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	updatedRange := fmt.Sprintf("Requests!J%d:J%d", rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{now}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *SheetsService) appendRequest(ctx context.Context, request *models.BookingRequest) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{requestRowValues(request)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, requestsSheetRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// findRequestRow locates row index (1-based) for request_id in column A with cache.
func (s *SheetsService) findRequestRow(ctx context.Context, requestID int64) (int, error) {
	if requestID == 0 {
		return 0, fmt.Errorf("request id is required")
	}

	if row, ok := s.getCachedRow(requestID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, requestsSheetRange).Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		switch v := row[0].(type) {
		case float64:
			if int64(v) == requestID {
				rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
				s.setCachedRow(requestID, rowIdx)
				return rowIdx, nil
			}
		case string:
			if v == fmt.Sprintf("%d", requestID) {
				rowIdx := i + 1
				s.setCachedRow(requestID, rowIdx)
				return rowIdx, nil
			}
		}
	}

	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func requestRowValues(request *models.BookingRequest) []interface{} {
	return []interface{}{
		request.ID,
		request.TrackingCode,
		request.EmployeeNationalCode,
		request.HotelID,
		request.CheckIn.Format("2006-01-02"),
		request.CheckOut.Format("2006-01-02"),
		request.GuestCount,
		request.Status,
		request.CreatedAt.Format("2006-01-02 15:04:05"),
		request.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
