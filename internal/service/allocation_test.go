package service

import (
	"testing"
	"time"

	"eskan/internal/database"
	"eskan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func testRooms() []*models.Room {
	return []*models.Room{
		{ID: 1, Number: "101", Capacity: 2, IsActive: true},
		{ID: 2, Number: "201", Capacity: 4, IsActive: true},
		{ID: 3, Number: "202", Capacity: 4, IsActive: true},
		{ID: 4, Number: "301", Capacity: 6, IsActive: true},
	}
}

func TestSelectRoomBestFit(t *testing.T) {
	var allocator RoomAllocator
	target := &models.BookingRequest{ID: 10, GuestCount: 3, CheckIn: day(10), CheckOut: day(15)}

	room, err := allocator.SelectRoom(target, testRooms(), nil)
	require.NoError(t, err)
	// Capacity 2 is too small; smallest sufficient capacity wins.
	assert.Equal(t, 4, room.Capacity)
	assert.Equal(t, "201", room.Number)
}

func TestSelectRoomTieBreaksOnNumber(t *testing.T) {
	var allocator RoomAllocator
	target := &models.BookingRequest{ID: 10, GuestCount: 3, CheckIn: day(10), CheckOut: day(15)}

	approved := []*models.BookingRequest{
		{ID: 1, AssignedRoomID: 2, CheckIn: day(12), CheckOut: day(14)},
	}
	room, err := allocator.SelectRoom(target, testRooms(), approved)
	require.NoError(t, err)
	assert.Equal(t, "202", room.Number)
}

func TestSelectRoomHalfOpenBoundary(t *testing.T) {
	var allocator RoomAllocator
	rooms := []*models.Room{{ID: 1, Number: "101", Capacity: 2, IsActive: true}}
	approved := []*models.BookingRequest{
		{ID: 1, AssignedRoomID: 1, CheckIn: day(10), CheckOut: day(15)},
	}

	// Checking in on the other stay's check-out day is fine.
	target := &models.BookingRequest{ID: 10, GuestCount: 2, CheckIn: day(15), CheckOut: day(20)}
	room, err := allocator.SelectRoom(target, rooms, approved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), room.ID)

	// One day of overlap blocks the room.
	target = &models.BookingRequest{ID: 10, GuestCount: 2, CheckIn: day(14), CheckOut: day(20)}
	_, err = allocator.SelectRoom(target, rooms, approved)
	assert.ErrorIs(t, err, database.ErrNoRoomAvailable)
}

func TestSelectRoomSkipsInactive(t *testing.T) {
	var allocator RoomAllocator
	rooms := []*models.Room{
		{ID: 1, Number: "101", Capacity: 4, IsActive: false},
		{ID: 2, Number: "102", Capacity: 6, IsActive: true},
	}
	target := &models.BookingRequest{ID: 10, GuestCount: 2, CheckIn: day(10), CheckOut: day(12)}

	room, err := allocator.SelectRoom(target, rooms, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), room.ID)
}

func TestSelectRoomNoCapacity(t *testing.T) {
	var allocator RoomAllocator
	target := &models.BookingRequest{ID: 10, GuestCount: 8, CheckIn: day(10), CheckOut: day(12)}

	_, err := allocator.SelectRoom(target, testRooms(), nil)
	assert.ErrorIs(t, err, database.ErrNoRoomAvailable)
}

func TestSelectRoomIgnoresOwnAssignment(t *testing.T) {
	var allocator RoomAllocator
	rooms := []*models.Room{{ID: 1, Number: "101", Capacity: 2, IsActive: true}}
	target := &models.BookingRequest{ID: 10, GuestCount: 2, CheckIn: day(10), CheckOut: day(15)}
	approved := []*models.BookingRequest{
		{ID: 10, AssignedRoomID: 1, CheckIn: day(10), CheckOut: day(15)},
	}

	room, err := allocator.SelectRoom(target, rooms, approved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), room.ID)
}
