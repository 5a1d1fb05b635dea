package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDates     = errors.New("check-out date must be after check-in date")
	ErrNoGuests         = errors.New("request must have at least one guest")
	ErrInvalidStatus    = errors.New("unknown booking status")
	ErrSameStatus       = errors.New("request is already in the requested status")
	ErrTransitionDenied = errors.New("status transition is not allowed")
)

// allowedTransitions is the full edge set of the request lifecycle. Rejected
// and cancelled are terminal; an approved request can only be cancelled.
var allowedTransitions = map[string][]string{
	StatusDraft:           {StatusSubmitted},
	StatusSubmitted:       {StatusHotelApproved, StatusHotelRejected, StatusCancelledByUser},
	StatusHotelApproved:   {StatusCancelledByUser},
	StatusHotelRejected:   {},
	StatusCancelledByUser: {},
}

// IsValidStatus reports whether s is a known lifecycle status.
func IsValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminalStatus reports whether no transition leaves s.
func IsTerminalStatus(s string) bool {
	edges, ok := allowedTransitions[s]
	return ok && len(edges) == 0
}

// CanTransition reports whether the edge from -> to is in the lifecycle graph.
// A no-op transition is never allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingRequest is the aggregate root of a subsidized stay request. All
// status mutations go through Transition; Version is the optimistic
// concurrency stamp checked by the persistence layer on every write.
type BookingRequest struct {
	ID                   int64                `json:"id"`
	TrackingCode         string               `json:"tracking_code"`
	EmployeeNationalCode string               `json:"employee_national_code"`
	EmployeeProvinceCode string               `json:"employee_province_code"`
	SubmitterID          int64                `json:"submitter_id"`
	HotelID              int64                `json:"hotel_id"`
	CheckIn              time.Time            `json:"check_in"`
	CheckOut             time.Time            `json:"check_out"`
	GuestCount           int                  `json:"guest_count"`
	Notes                string               `json:"notes,omitempty"`
	Status               string               `json:"status"`
	AssignedRoomID       int64                `json:"assigned_room_id,omitempty"`
	SubmittedAt          time.Time            `json:"submitted_at"`
	StatusUpdatedAt      time.Time            `json:"status_updated_at"`
	Guests               []Guest              `json:"guests,omitempty"`
	History              []StatusHistoryEntry `json:"history,omitempty"`
	Files                []RequestFile        `json:"files,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Version              int64                `json:"version"`
}

// NewTrackingCode generates a human-facing request code.
func NewTrackingCode() string {
	id := uuid.New()
	return "REQ-" + strings.ToUpper(id.String()[:8])
}

// NewBookingRequest builds a request in draft status with its first history
// entry. The caller is expected to submit it immediately; draft never
// persists as a resting state.
func NewBookingRequest(employeeNationalCode, employeeProvinceCode string, submitterID, hotelID int64, checkIn, checkOut time.Time, notes string) (*BookingRequest, error) {
	if !checkOut.After(checkIn) {
		return nil, ErrInvalidDates
	}
	now := time.Now()
	r := &BookingRequest{
		TrackingCode:         NewTrackingCode(),
		EmployeeNationalCode: employeeNationalCode,
		EmployeeProvinceCode: employeeProvinceCode,
		SubmitterID:          submitterID,
		HotelID:              hotelID,
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		Notes:                notes,
		Status:               StatusDraft,
		SubmittedAt:          now,
		StatusUpdatedAt:      now,
		Version:              1,
	}
	r.History = append(r.History, StatusHistoryEntry{
		NewStatus: StatusDraft,
		ActorID:   submitterID,
		Comment:   "created",
		CreatedAt: now,
	})
	return r, nil
}

// AddGuest appends a guest with a frozen discount. Guests are only added
// before submission.
func (r *BookingRequest) AddGuest(fullName, nationalCode, relation string, discountPercent int) error {
	if r.Status != StatusDraft {
		return fmt.Errorf("guests can only be added to a draft request: %w", ErrTransitionDenied)
	}
	if discountPercent < 0 || discountPercent > 100 {
		return fmt.Errorf("discount percent out of range: %d", discountPercent)
	}
	r.Guests = append(r.Guests, Guest{
		FullName:        fullName,
		NationalCode:    nationalCode,
		Relation:        relation,
		DiscountPercent: discountPercent,
	})
	r.GuestCount = len(r.Guests)
	return nil
}

// Transition moves the request along one lifecycle edge. It stamps
// StatusUpdatedAt, appends exactly one history entry, and clears the room
// assignment whenever the new status is not hotel_approved.
func (r *BookingRequest) Transition(to string, actorID int64, comment string) error {
	if !IsValidStatus(to) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if to == r.Status {
		return fmt.Errorf("%w: %s", ErrSameStatus, r.Status)
	}
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionDenied, r.Status, to)
	}

	now := time.Now()
	entry := StatusHistoryEntry{
		RequestID: r.ID,
		OldStatus: r.Status,
		NewStatus: to,
		ActorID:   actorID,
		Comment:   comment,
		CreatedAt: now,
	}

	r.Status = to
	r.StatusUpdatedAt = now
	if to != StatusHotelApproved {
		// A room assignment is only meaningful while approved.
		r.AssignedRoomID = 0
	}
	r.History = append(r.History, entry)
	return nil
}

// Submit advances a freshly built draft to the hotel queue.
func (r *BookingRequest) Submit(actorID int64) error {
	if len(r.Guests) == 0 {
		return ErrNoGuests
	}
	return r.Transition(StatusSubmitted, actorID, "submitted")
}

// Approve assigns the room and moves the request to hotel_approved. The room
// must already be validated as free by the allocator; the assignment and the
// transition commit together.
func (r *BookingRequest) Approve(room *Room, actorID int64) error {
	comment := fmt.Sprintf("approved, room %s assigned", room.Number)
	if err := r.Transition(StatusHotelApproved, actorID, comment); err != nil {
		return err
	}
	r.AssignedRoomID = room.ID
	return nil
}

// Overlaps reports whether the request's stay intersects the half-open range
// [checkIn, checkOut). Touching boundaries do not overlap.
func (r *BookingRequest) Overlaps(checkIn, checkOut time.Time) bool {
	return r.CheckIn.Before(checkOut) && r.CheckOut.After(checkIn)
}

// LastHistoryEntry returns the most recent transition record, or nil.
func (r *BookingRequest) LastHistoryEntry() *StatusHistoryEntry {
	if len(r.History) == 0 {
		return nil
	}
	return &r.History[len(r.History)-1]
}
