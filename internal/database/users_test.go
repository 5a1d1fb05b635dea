package database

import (
	"context"
	"testing"

	"eskan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &models.User{
		FullName:     "Employee One",
		NationalCode: "1234567890",
		Phone:        "09120000000",
		Role:         models.RoleEmployee,
		ProvinceCode: "THR",
	}
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))
	require.NotZero(t, user.ID)

	loaded, err := db.GetUserByNationalCode(ctx, "1234567890")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loaded.ID)
	assert.Equal(t, "09120000000", loaded.Phone)

	// Same national code updates in place.
	user.Phone = "09121111111"
	require.NoError(t, db.CreateOrUpdateUser(ctx, user))

	loaded, err = db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "09121111111", loaded.Phone)
}

func TestGetUserNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetUserByNationalCode(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDependents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	dep := &models.Dependent{
		EmployeeNationalCode: "1234567890",
		FullName:             "Child",
		NationalCode:         "1111111111",
	}
	require.NoError(t, db.AddDependent(ctx, dep))
	require.NotZero(t, dep.ID)

	// Re-adding the same pair only refreshes the name.
	dep2 := &models.Dependent{
		EmployeeNationalCode: "1234567890",
		FullName:             "Child Renamed",
		NationalCode:         "1111111111",
	}
	require.NoError(t, db.AddDependent(ctx, dep2))

	deps, err := db.ListDependents(ctx, "1234567890")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "Child Renamed", deps[0].FullName)

	deps, err = db.ListDependents(ctx, "9999999999")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestHotelAndRoomUpserts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	hotel := &models.Hotel{ID: 1, Name: "Caspian Resort", ProvinceCode: "MAZ", IsActive: true}
	require.NoError(t, db.UpsertHotel(ctx, hotel))

	hotel.Name = "Caspian Resort Renovated"
	require.NoError(t, db.UpsertHotel(ctx, hotel))

	loaded, err := db.GetHotel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Caspian Resort Renovated", loaded.Name)

	room := &models.Room{HotelID: 1, Number: "101", Capacity: 2, IsActive: true}
	require.NoError(t, db.UpsertRoom(ctx, room))
	require.NotZero(t, room.ID)

	room.Capacity = 3
	require.NoError(t, db.UpsertRoom(ctx, room))

	rooms, err := db.ListRoomsByHotel(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 3, rooms[0].Capacity)

	_, err = db.GetRoom(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRoomsByHotelSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRoom(ctx, &models.Room{HotelID: 1, Number: "102", Capacity: 2, IsActive: true}))
	require.NoError(t, db.UpsertRoom(ctx, &models.Room{HotelID: 1, Number: "101", Capacity: 2, IsActive: false}))

	rooms, err := db.ListRoomsByHotel(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].Number)
}
