package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eskan/internal/models"
)

func (db *DB) UpsertHotel(ctx context.Context, hotel *models.Hotel) error {
	if hotel.ID != 0 {
		_, err := db.ExecContext(ctx,
			`INSERT INTO hotels (id, name, province_code, is_active) VALUES (?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET name = excluded.name,
                 province_code = excluded.province_code, is_active = excluded.is_active`,
			hotel.ID, hotel.Name, hotel.ProvinceCode, hotel.IsActive)
		if err != nil {
			return fmt.Errorf("failed to upsert hotel: %w", err)
		}
		return nil
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO hotels (name, province_code, is_active) VALUES (?, ?, ?)`,
		hotel.Name, hotel.ProvinceCode, hotel.IsActive)
	if err != nil {
		return fmt.Errorf("failed to insert hotel: %w", err)
	}
	hotel.ID, _ = res.LastInsertId()
	return nil
}

func (db *DB) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	var h models.Hotel
	err := db.QueryRowContext(ctx,
		`SELECT id, name, province_code, is_active FROM hotels WHERE id = ?`, id).
		Scan(&h.ID, &h.Name, &h.ProvinceCode, &h.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return &h, nil
}

func (db *DB) UpsertRoom(ctx context.Context, room *models.Room) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO rooms (hotel_id, number, capacity, is_active) VALUES (?, ?, ?, ?)
         ON CONFLICT(hotel_id, number) DO UPDATE SET capacity = excluded.capacity,
             is_active = excluded.is_active`,
		room.HotelID, room.Number, room.Capacity, room.IsActive)
	if err != nil {
		return fmt.Errorf("failed to upsert room: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && room.ID == 0 {
		room.ID = id
	}
	return nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var r models.Room
	err := db.QueryRowContext(ctx,
		`SELECT id, hotel_id, number, capacity, is_active FROM rooms WHERE id = ?`, id).
		Scan(&r.ID, &r.HotelID, &r.Number, &r.Capacity, &r.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &r, nil
}

// ListRoomsByHotel returns active rooms ordered by number so allocation
// tie-breaks deterministically.
func (db *DB) ListRoomsByHotel(ctx context.Context, hotelID int64) ([]*models.Room, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, hotel_id, number, capacity, is_active
         FROM rooms WHERE hotel_id = ? AND is_active = 1 ORDER BY number`, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		r := &models.Room{}
		if err := rows.Scan(&r.ID, &r.HotelID, &r.Number, &r.Capacity, &r.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}
