package service

import (
	"sort"
	"time"

	"eskan/internal/database"
	"eskan/internal/models"
)

// RoomAllocator picks the room for an approval. Each approval is evaluated
// independently against the approved bookings visible at that moment; the
// per-hotel lock in the orchestrator keeps two approvals at one hotel from
// interleaving between read and commit.
type RoomAllocator struct{}

// rangesOverlap uses half-open interval semantics: a check-out on another
// stay's check-in day does not conflict.
func rangesOverlap(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// SelectRoom returns the best-fit room for the request: the smallest-capacity
// active room that holds all guests and is free for the whole stay. Ties
// break on room number so the choice is deterministic. Returns
// database.ErrNoRoomAvailable when no candidate remains.
func (RoomAllocator) SelectRoom(target *models.BookingRequest, rooms []*models.Room, approved []*models.BookingRequest) (*models.Room, error) {
	taken := make(map[int64]bool)
	for _, other := range approved {
		if other.ID == target.ID || other.AssignedRoomID == 0 {
			continue
		}
		if rangesOverlap(other.CheckIn, other.CheckOut, target.CheckIn, target.CheckOut) {
			taken[other.AssignedRoomID] = true
		}
	}

	var candidates []*models.Room
	for _, room := range rooms {
		if !room.IsActive || taken[room.ID] {
			continue
		}
		if room.Capacity < target.GuestCount {
			continue
		}
		candidates = append(candidates, room)
	}
	if len(candidates) == 0 {
		return nil, database.ErrNoRoomAvailable
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Capacity != candidates[j].Capacity {
			return candidates[i].Capacity < candidates[j].Capacity
		}
		return candidates[i].Number < candidates[j].Number
	})
	return candidates[0], nil
}
