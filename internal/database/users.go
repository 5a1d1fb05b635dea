package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eskan/internal/models"
)

func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	res, err := db.ExecContext(ctx,
		`INSERT INTO users (full_name, national_code, phone, role, province_code, hotel_id, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(national_code) DO UPDATE SET
             full_name = excluded.full_name, phone = excluded.phone,
             role = excluded.role, province_code = excluded.province_code,
             hotel_id = excluded.hotel_id, updated_at = excluded.updated_at`,
		user.FullName, user.NationalCode, user.Phone, user.Role,
		user.ProvinceCode, user.HotelID, now, now)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	if user.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			user.ID = id
		}
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.scanUser(db.QueryRowContext(ctx, selectUserColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByNationalCode resolves the requesting employee at creation time.
func (db *DB) GetUserByNationalCode(ctx context.Context, nationalCode string) (*models.User, error) {
	return db.scanUser(db.QueryRowContext(ctx, selectUserColumns+` FROM users WHERE national_code = ?`, nationalCode))
}

// ListDependents returns the family members registered against an employee.
func (db *DB) ListDependents(ctx context.Context, employeeNationalCode string) ([]*models.Dependent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, employee_national_code, full_name, national_code
         FROM dependents WHERE employee_national_code = ? ORDER BY id`, employeeNationalCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependents: %w", err)
	}
	defer rows.Close()

	var deps []*models.Dependent
	for rows.Next() {
		d := &models.Dependent{}
		if err := rows.Scan(&d.ID, &d.EmployeeNationalCode, &d.FullName, &d.NationalCode); err != nil {
			return nil, fmt.Errorf("failed to scan dependent: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func (db *DB) AddDependent(ctx context.Context, dep *models.Dependent) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO dependents (employee_national_code, full_name, national_code)
         VALUES (?, ?, ?)
         ON CONFLICT(employee_national_code, national_code) DO UPDATE SET full_name = excluded.full_name`,
		dep.EmployeeNationalCode, dep.FullName, dep.NationalCode)
	if err != nil {
		return fmt.Errorf("failed to add dependent: %w", err)
	}
	if dep.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			dep.ID = id
		}
	}
	return nil
}

const selectUserColumns = `SELECT id, full_name, national_code, COALESCE(phone, ''),
    role, COALESCE(province_code, ''), COALESCE(hotel_id, 0), created_at, updated_at`

func (db *DB) scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.FullName, &u.NationalCode, &u.Phone, &u.Role,
		&u.ProvinceCode, &u.HotelID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}
