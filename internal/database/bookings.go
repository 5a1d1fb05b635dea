package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eskan/internal/models"
)

// CreateBookingRequest persists a freshly submitted aggregate: the request
// row, its guests and the history accumulated so far, in one transaction.
func (db *DB) CreateBookingRequest(ctx context.Context, r *models.BookingRequest) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `INSERT INTO booking_requests (
            tracking_code, employee_national_code, employee_province_code,
            submitter_id, hotel_id, check_in, check_out, guest_count, notes,
            status, assigned_room_id, submitted_at, status_updated_at,
            created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TrackingCode,
		r.EmployeeNationalCode,
		r.EmployeeProvinceCode,
		r.SubmitterID,
		r.HotelID,
		r.CheckIn.Format("2006-01-02"),
		r.CheckOut.Format("2006-01-02"),
		r.GuestCount,
		r.Notes,
		r.Status,
		nullableID(r.AssignedRoomID),
		r.SubmittedAt,
		r.StatusUpdatedAt,
		now,
		now,
		r.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now

	for i := range r.Guests {
		g := &r.Guests[i]
		g.RequestID = id
		res, err := tx.ExecContext(ctx,
			`INSERT INTO guests (request_id, full_name, national_code, relation, discount_percent)
             VALUES (?, ?, ?, ?, ?)`,
			id, g.FullName, g.NationalCode, g.Relation, g.DiscountPercent)
		if err != nil {
			return fmt.Errorf("failed to insert guest: %w", err)
		}
		g.ID, _ = res.LastInsertId()
	}

	for i := range r.History {
		h := &r.History[i]
		h.RequestID = id
		res, err := tx.ExecContext(ctx,
			`INSERT INTO status_history (request_id, old_status, new_status, actor_id, comment, created_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			id, nullableString(h.OldStatus), h.NewStatus, h.ActorID, h.Comment, h.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
		h.ID, _ = res.LastInsertId()
	}

	return tx.Commit()
}

// GetBookingRequest loads the full aggregate: request row, guests, history
// and attached files.
func (db *DB) GetBookingRequest(ctx context.Context, id int64) (*models.BookingRequest, error) {
	r, err := db.scanRequest(db.QueryRowContext(ctx, selectRequestColumns+` FROM booking_requests WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := db.loadChildren(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetBookingRequestByTrackingCode resolves a request by its public code.
func (db *DB) GetBookingRequestByTrackingCode(ctx context.Context, code string) (*models.BookingRequest, error) {
	r, err := db.scanRequest(db.QueryRowContext(ctx, selectRequestColumns+` FROM booking_requests WHERE tracking_code = ?`, code))
	if err != nil {
		return nil, err
	}
	if err := db.loadChildren(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRequestStatusWithVersion commits one lifecycle transition: status,
// room assignment and timestamps guarded by the version stamp, plus the new
// history entry, in one transaction. Zero rows affected means a concurrent
// writer won and the caller must reload.
func (db *DB) UpdateRequestStatusWithVersion(ctx context.Context, r *models.BookingRequest) error {
	entry := r.LastHistoryEntry()
	if entry == nil {
		return fmt.Errorf("%w: transition has no history entry", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE booking_requests
         SET status = ?, assigned_room_id = ?, status_updated_at = ?, updated_at = ?, version = version + 1
         WHERE id = ? AND version = ?`,
		r.Status, nullableID(r.AssignedRoomID), r.StatusUpdatedAt, time.Now(), r.ID, r.Version)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO status_history (request_id, old_status, new_status, actor_id, comment, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, nullableString(entry.OldStatus), entry.NewStatus, entry.ActorID, entry.Comment, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	entry.ID, _ = res.LastInsertId()
	entry.RequestID = r.ID

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	r.Version++
	return nil
}

// ListApprovedByHotel returns approved requests with an assigned room at a
// hotel, excluding one request id. Used for overlap checks during allocation.
func (db *DB) ListApprovedByHotel(ctx context.Context, hotelID, excludeID int64) ([]*models.BookingRequest, error) {
	rows, err := db.QueryContext(ctx,
		selectRequestColumns+` FROM booking_requests
         WHERE hotel_id = ? AND status = ? AND assigned_room_id IS NOT NULL AND id != ?`,
		hotelID, models.StatusHotelApproved, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved requests: %w", err)
	}
	defer rows.Close()
	return db.scanRequests(rows)
}

// ListBookingRequests applies the authorization scope plus optional status and
// search filters, with pagination. Returns the page and the total match count.
func (db *DB) ListBookingRequests(ctx context.Context, filter models.ListFilter) ([]*models.BookingRequest, int, error) {
	if filter.Scope.Empty {
		return []*models.BookingRequest{}, 0, nil
	}

	where, args := buildScopeWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM booking_requests` + where
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	if pageSize > models.MaxPageSize {
		pageSize = models.MaxPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := selectRequestColumns + ` FROM booking_requests` + where +
		` ORDER BY submitted_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests, err := db.scanRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ListRequestsByDateRange returns every request whose stay touches the given
// period, oldest check-in first. Used by the report export.
func (db *DB) ListRequestsByDateRange(ctx context.Context, from, to time.Time) ([]*models.BookingRequest, error) {
	rows, err := db.QueryContext(ctx,
		selectRequestColumns+` FROM booking_requests
         WHERE check_in < ? AND check_out > ?
         ORDER BY check_in ASC, id ASC`,
		to.Format("2006-01-02"), from.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests by date range: %w", err)
	}
	defer rows.Close()
	return db.scanRequests(rows)
}

func buildScopeWhere(filter models.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	scope := filter.Scope
	if !scope.All {
		var scopeConds []string
		if scope.ProvinceCode != "" {
			scopeConds = append(scopeConds, "employee_province_code = ?")
			args = append(args, scope.ProvinceCode)
		}
		if scope.SubmitterID != 0 {
			scopeConds = append(scopeConds, "submitter_id = ?")
			args = append(args, scope.SubmitterID)
		}
		if scope.HotelID != 0 {
			scopeConds = append(scopeConds, "hotel_id = ?")
			args = append(args, scope.HotelID)
		}
		if scope.EmployeeNationalCode != "" {
			scopeConds = append(scopeConds, "employee_national_code = ?")
			args = append(args, scope.EmployeeNationalCode)
		}
		// An unrestricted non-admin scope must never happen; treat as empty.
		if len(scopeConds) == 0 {
			conds = append(conds, "1 = 0")
		} else {
			conds = append(conds, "("+strings.Join(scopeConds, " OR ")+")")
		}
	}

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.SearchTerm != "" {
		conds = append(conds, "(tracking_code LIKE ? OR employee_national_code LIKE ?)")
		term := "%" + filter.SearchTerm + "%"
		args = append(args, term, term)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// AttachFile records a file against a request.
func (db *DB) AttachFile(ctx context.Context, f *models.RequestFile) error {
	now := time.Now()
	res, err := db.ExecContext(ctx,
		`INSERT INTO request_files (request_id, file_name, path, uploaded_by, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		f.RequestID, f.FileName, f.Path, f.UploadedBy, now)
	if err != nil {
		return fmt.Errorf("failed to attach file: %w", err)
	}
	f.ID, _ = res.LastInsertId()
	f.CreatedAt = now
	return nil
}

const selectRequestColumns = `SELECT id, tracking_code, employee_national_code,
    COALESCE(employee_province_code, ''), submitter_id, hotel_id,
    date(check_in), date(check_out), guest_count, COALESCE(notes, ''), status,
    COALESCE(assigned_room_id, 0), submitted_at, status_updated_at,
    created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanRequest(row rowScanner) (*models.BookingRequest, error) {
	r := &models.BookingRequest{}
	var checkIn, checkOut string
	err := row.Scan(
		&r.ID, &r.TrackingCode, &r.EmployeeNationalCode, &r.EmployeeProvinceCode,
		&r.SubmitterID, &r.HotelID, &checkIn, &checkOut, &r.GuestCount,
		&r.Notes, &r.Status, &r.AssignedRoomID, &r.SubmittedAt,
		&r.StatusUpdatedAt, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking request: %w", err)
	}
	if r.CheckIn, err = time.Parse("2006-01-02", checkIn); err != nil {
		return nil, fmt.Errorf("failed to parse check-in date %s: %w", checkIn, err)
	}
	if r.CheckOut, err = time.Parse("2006-01-02", checkOut); err != nil {
		return nil, fmt.Errorf("failed to parse check-out date %s: %w", checkOut, err)
	}
	return r, nil
}

func (db *DB) scanRequests(rows *sql.Rows) ([]*models.BookingRequest, error) {
	var requests []*models.BookingRequest
	for rows.Next() {
		r, err := db.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}
	return requests, nil
}

func (db *DB) loadChildren(ctx context.Context, r *models.BookingRequest) error {
	guestRows, err := db.QueryContext(ctx,
		`SELECT id, request_id, full_name, national_code, relation, discount_percent
         FROM guests WHERE request_id = ? ORDER BY id`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to load guests: %w", err)
	}
	defer guestRows.Close()
	for guestRows.Next() {
		var g models.Guest
		if err := guestRows.Scan(&g.ID, &g.RequestID, &g.FullName, &g.NationalCode, &g.Relation, &g.DiscountPercent); err != nil {
			return fmt.Errorf("failed to scan guest: %w", err)
		}
		r.Guests = append(r.Guests, g)
	}
	if err := guestRows.Err(); err != nil {
		return err
	}

	historyRows, err := db.QueryContext(ctx,
		`SELECT id, request_id, COALESCE(old_status, ''), new_status, actor_id, COALESCE(comment, ''), created_at
         FROM status_history WHERE request_id = ? ORDER BY id`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to load status history: %w", err)
	}
	defer historyRows.Close()
	for historyRows.Next() {
		var h models.StatusHistoryEntry
		if err := historyRows.Scan(&h.ID, &h.RequestID, &h.OldStatus, &h.NewStatus, &h.ActorID, &h.Comment, &h.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}
		r.History = append(r.History, h)
	}
	if err := historyRows.Err(); err != nil {
		return err
	}

	fileRows, err := db.QueryContext(ctx,
		`SELECT id, request_id, file_name, path, uploaded_by, created_at
         FROM request_files WHERE request_id = ? ORDER BY id`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to load files: %w", err)
	}
	defer fileRows.Close()
	for fileRows.Next() {
		var f models.RequestFile
		if err := fileRows.Scan(&f.ID, &f.RequestID, &f.FileName, &f.Path, &f.UploadedBy, &f.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan file: %w", err)
		}
		r.Files = append(r.Files, f)
	}
	return fileRows.Err()
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
