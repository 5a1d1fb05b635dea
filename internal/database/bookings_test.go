package database

import (
	"context"
	"io"
	"testing"
	"time"

	"eskan/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stayDay(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

type requestSeed struct {
	employeeNationalCode string
	provinceCode         string
	submitterID          int64
	hotelID              int64
	checkIn              time.Time
	checkOut             time.Time
}

func seedRequest(t *testing.T, db *DB, seed requestSeed) *models.BookingRequest {
	t.Helper()
	if seed.employeeNationalCode == "" {
		seed.employeeNationalCode = "1234567890"
	}
	if seed.provinceCode == "" {
		seed.provinceCode = "THR"
	}
	if seed.submitterID == 0 {
		seed.submitterID = 7
	}
	if seed.hotelID == 0 {
		seed.hotelID = 1
	}
	if seed.checkIn.IsZero() {
		seed.checkIn = stayDay(10)
		seed.checkOut = stayDay(13)
	}

	r, err := models.NewBookingRequest(
		seed.employeeNationalCode, seed.provinceCode,
		seed.submitterID, seed.hotelID,
		seed.checkIn, seed.checkOut, "")
	require.NoError(t, err)
	require.NoError(t, r.AddGuest("Employee", seed.employeeNationalCode, models.RelationSelf, 80))
	require.NoError(t, r.Submit(seed.submitterID))
	require.NoError(t, db.CreateBookingRequest(context.Background(), r))
	return r
}

func TestCreateAndGetBookingRequest(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := seedRequest(t, db, requestSeed{})
	require.NotZero(t, created.ID)

	loaded, err := db.GetBookingRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TrackingCode, loaded.TrackingCode)
	assert.Equal(t, models.StatusSubmitted, loaded.Status)
	assert.Equal(t, "THR", loaded.EmployeeProvinceCode)
	assert.True(t, loaded.CheckIn.Equal(stayDay(10)))
	assert.True(t, loaded.CheckOut.Equal(stayDay(13)))
	assert.Equal(t, int64(1), loaded.Version)

	require.Len(t, loaded.Guests, 1)
	assert.Equal(t, models.RelationSelf, loaded.Guests[0].Relation)
	assert.Equal(t, 80, loaded.Guests[0].DiscountPercent)

	// Creation writes the draft entry and the submit entry.
	require.Len(t, loaded.History, 2)
	assert.Equal(t, "", loaded.History[0].OldStatus)
	assert.Equal(t, models.StatusDraft, loaded.History[0].NewStatus)
	assert.Equal(t, models.StatusSubmitted, loaded.History[1].NewStatus)
}

func TestGetBookingRequestByTrackingCode(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := seedRequest(t, db, requestSeed{})

	loaded, err := db.GetBookingRequestByTrackingCode(ctx, created.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)

	_, err = db.GetBookingRequestByTrackingCode(ctx, "REQ-MISSING1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookingRequestNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetBookingRequest(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRequestStatusWithVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := seedRequest(t, db, requestSeed{})
	room := &models.Room{ID: 5, Number: "201"}
	require.NoError(t, created.Approve(room, 20))

	require.NoError(t, db.UpdateRequestStatusWithVersion(ctx, created))
	assert.Equal(t, int64(2), created.Version)

	loaded, err := db.GetBookingRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusHotelApproved, loaded.Status)
	assert.Equal(t, int64(5), loaded.AssignedRoomID)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Len(t, loaded.History, 3)
}

func TestUpdateRequestStatusVersionConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := seedRequest(t, db, requestSeed{})

	// Two actors load the same version; the second write must lose.
	stale, err := db.GetBookingRequest(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, created.Transition(models.StatusHotelRejected, 20, "full"))
	require.NoError(t, db.UpdateRequestStatusWithVersion(ctx, created))

	require.NoError(t, stale.Transition(models.StatusCancelledByUser, 7, "cancelled by requester"))
	err = db.UpdateRequestStatusWithVersion(ctx, stale)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	loaded, err := db.GetBookingRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusHotelRejected, loaded.Status)
}

func TestUpdateClearsRoomAssignment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := seedRequest(t, db, requestSeed{})
	require.NoError(t, created.Approve(&models.Room{ID: 5, Number: "201"}, 20))
	require.NoError(t, db.UpdateRequestStatusWithVersion(ctx, created))

	require.NoError(t, created.Transition(models.StatusCancelledByUser, 7, "cancelled by requester"))
	require.NoError(t, db.UpdateRequestStatusWithVersion(ctx, created))

	loaded, err := db.GetBookingRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, loaded.AssignedRoomID)
}

func TestListBookingRequestsScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedRequest(t, db, requestSeed{provinceCode: "THR", submitterID: 7, hotelID: 1})
	seedRequest(t, db, requestSeed{employeeNationalCode: "5555555555", provinceCode: "ESF", submitterID: 8, hotelID: 2})
	outside := seedRequest(t, db, requestSeed{employeeNationalCode: "6666666666", provinceCode: "KHR", submitterID: 7, hotelID: 3})

	all, total, err := db.ListBookingRequests(ctx, models.ListFilter{Scope: models.ListScope{All: true}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	// Province scope includes own submissions from other provinces.
	provinceScoped, total, err := db.ListBookingRequests(ctx, models.ListFilter{
		Scope: models.ListScope{ProvinceCode: "THR", SubmitterID: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	ids := []int64{provinceScoped[0].ID, provinceScoped[1].ID}
	assert.Contains(t, ids, outside.ID)

	_, total, err = db.ListBookingRequests(ctx, models.ListFilter{
		Scope: models.ListScope{HotelID: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	empty, total, err := db.ListBookingRequests(ctx, models.ListFilter{Scope: models.ListScope{Empty: true}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, empty)

	// A non-admin scope without any claim matches nothing.
	_, total, err = db.ListBookingRequests(ctx, models.ListFilter{Scope: models.ListScope{}})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListBookingRequestsFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := seedRequest(t, db, requestSeed{})
	second := seedRequest(t, db, requestSeed{employeeNationalCode: "5555555555"})
	require.NoError(t, second.Transition(models.StatusHotelRejected, 20, "full"))
	require.NoError(t, db.UpdateRequestStatusWithVersion(ctx, second))

	rejected, total, err := db.ListBookingRequests(ctx, models.ListFilter{
		Scope:  models.ListScope{All: true},
		Status: models.StatusHotelRejected,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, second.ID, rejected[0].ID)

	found, total, err := db.ListBookingRequests(ctx, models.ListFilter{
		Scope:      models.ListScope{All: true},
		SearchTerm: first.TrackingCode,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, first.ID, found[0].ID)

	byNationalCode, _, err := db.ListBookingRequests(ctx, models.ListFilter{
		Scope:      models.ListScope{All: true},
		SearchTerm: "555555",
	})
	require.NoError(t, err)
	require.Len(t, byNationalCode, 1)
	assert.Equal(t, second.ID, byNationalCode[0].ID)
}

func TestListBookingRequestsPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedRequest(t, db, requestSeed{checkIn: stayDay(10 + i), checkOut: stayDay(12 + i)})
	}

	page, total, err := db.ListBookingRequests(ctx, models.ListFilter{
		Scope:    models.ListScope{All: true},
		Page:     2,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	last, total, err := db.ListBookingRequests(ctx, models.ListFilter{
		Scope:    models.ListScope{All: true},
		Page:     3,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, last, 1)
}

func TestListApprovedByHotel(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	approved := seedRequest(t, db, requestSeed{hotelID: 1})
	require.NoError(t, approved.Approve(&models.Room{ID: 5, Number: "201"}, 20))
	require.NoError(t, db.UpdateRequestStatusWithVersion(ctx, approved))

	seedRequest(t, db, requestSeed{hotelID: 1, employeeNationalCode: "5555555555"})
	otherHotel := seedRequest(t, db, requestSeed{hotelID: 2, employeeNationalCode: "6666666666"})
	require.NoError(t, otherHotel.Approve(&models.Room{ID: 9, Number: "11"}, 21))
	require.NoError(t, db.UpdateRequestStatusWithVersion(ctx, otherHotel))

	list, err := db.ListApprovedByHotel(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)
	assert.Equal(t, int64(5), list[0].AssignedRoomID)

	// The request being re-evaluated never blocks itself.
	list, err = db.ListApprovedByHotel(ctx, 1, approved.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListRequestsByDateRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inside := seedRequest(t, db, requestSeed{checkIn: stayDay(10), checkOut: stayDay(13)})
	seedRequest(t, db, requestSeed{employeeNationalCode: "5555555555", checkIn: stayDay(25), checkOut: stayDay(28)})
	boundary := seedRequest(t, db, requestSeed{employeeNationalCode: "6666666666", checkIn: stayDay(20), checkOut: stayDay(22)})

	list, err := db.ListRequestsByDateRange(ctx, stayDay(1), stayDay(20))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inside.ID, list[0].ID)

	// A stay starting on the period end is outside the half-open range.
	list, err = db.ListRequestsByDateRange(ctx, stayDay(1), stayDay(21))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, inside.ID, list[0].ID)
	assert.Equal(t, boundary.ID, list[1].ID)
}

func TestAttachFile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := seedRequest(t, db, requestSeed{})
	file := &models.RequestFile{
		RequestID:  created.ID,
		FileName:   "voucher.pdf",
		Path:       "/files/voucher.pdf",
		UploadedBy: 20,
	}
	require.NoError(t, db.AttachFile(ctx, file))
	require.NotZero(t, file.ID)

	loaded, err := db.GetBookingRequest(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Files, 1)
	assert.Equal(t, "voucher.pdf", loaded.Files[0].FileName)
	assert.Equal(t, int64(20), loaded.Files[0].UploadedBy)
}
