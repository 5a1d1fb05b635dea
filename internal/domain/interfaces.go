package domain

import (
	"context"
	"time"

	"eskan/internal/models"
)

// Repository is the persistence boundary of the booking core. Writes against
// a stale aggregate version fail with database.ErrConcurrentModification.
type Repository interface {
	CreateBookingRequest(ctx context.Context, r *models.BookingRequest) error
	GetBookingRequest(ctx context.Context, id int64) (*models.BookingRequest, error)
	GetBookingRequestByTrackingCode(ctx context.Context, code string) (*models.BookingRequest, error)
	UpdateRequestStatusWithVersion(ctx context.Context, r *models.BookingRequest) error
	ListBookingRequests(ctx context.Context, filter models.ListFilter) ([]*models.BookingRequest, int, error)
	ListApprovedByHotel(ctx context.Context, hotelID, excludeID int64) ([]*models.BookingRequest, error)
	AttachFile(ctx context.Context, f *models.RequestFile) error
}

// UserDirectory resolves employees and their registered dependents.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByNationalCode(ctx context.Context, nationalCode string) (*models.User, error)
	ListDependents(ctx context.Context, employeeNationalCode string) ([]*models.Dependent, error)
}

// RoomDirectory exposes the read-mostly room inventory.
type RoomDirectory interface {
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRoomsByHotel(ctx context.Context, hotelID int64) ([]*models.Room, error)
}

// LockRepository serializes room allocation per hotel. Acquire returns false
// when another approval currently holds the hotel.
type LockRepository interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error)
}

// EventPublisher fans out lifecycle events; failures are logged, never
// propagated.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers best-effort SMS messages.
type Notifier interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// SyncWorker schedules report mirroring for a booking request.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, requestID int64, request *models.BookingRequest, status string) error
}

// BookingService is the lifecycle orchestrator consumed by the transport layer.
type BookingService interface {
	CreateRequest(ctx context.Context, identity models.Identity, input CreateRequestInput) (*models.BookingRequest, string, error)
	ApproveRequest(ctx context.Context, identity models.Identity, requestID int64) (*models.BookingRequest, error)
	RejectRequest(ctx context.Context, identity models.Identity, requestID int64, reason string) (*models.BookingRequest, string, error)
	CancelRequest(ctx context.Context, identity models.Identity, requestID int64) (*models.BookingRequest, string, error)
	GetRequestDetails(ctx context.Context, identity models.Identity, requestID int64) (*RequestDetails, error)
	ListRequests(ctx context.Context, identity models.Identity, opts ListOptions) ([]*models.BookingRequest, int, error)
	ListMyRequests(ctx context.Context, identity models.Identity, opts ListOptions) ([]*models.BookingRequest, int, error)
	AttachFile(ctx context.Context, identity models.Identity, requestID int64, fileName, path string) (*models.RequestFile, error)
}

// CreateRequestInput carries everything needed to file a request on behalf of
// an employee.
type CreateRequestInput struct {
	EmployeeNationalCode string
	HotelID              int64
	CheckIn              time.Time
	CheckOut             time.Time
	Notes                string
	Guests               []GuestInput
}

type GuestInput struct {
	FullName     string
	NationalCode string
}

// RequestDetails is the read view assembled by GetRequestDetails.
type RequestDetails struct {
	Request     *models.BookingRequest `json:"request"`
	StatusLabel string                 `json:"status_label"`
	Hotel       *models.Hotel          `json:"hotel,omitempty"`
	Room        *models.Room           `json:"room,omitempty"`
}

// ListOptions are the caller-supplied listing filters; the authorization
// scope is derived from the identity, never from the caller.
type ListOptions struct {
	Status     string
	SearchTerm string
	Page       int
	PageSize   int
}
