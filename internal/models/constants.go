package models

const (
	StatusDraft           = "draft"
	StatusSubmitted       = "submitted"
	StatusHotelApproved   = "hotel_approved"
	StatusHotelRejected   = "hotel_rejected"
	StatusCancelledByUser = "cancelled_by_user"
)

const (
	RoleSuperAdmin   = "super_admin"
	RoleProvinceUser = "province_user"
	RoleHotelUser    = "hotel_user"
	RoleEmployee     = "employee"
)

const (
	RelationSelf      = "self"
	RelationDependent = "dependent"
	RelationCompanion = "companion"
)

const (
	// DiscountSelf applies to the requesting employee and registered dependents.
	DiscountSelf      = 80
	DiscountDependent = 80
	DiscountCompanion = 65
)

const (
	// DefaultPageSize for request listings.
	DefaultPageSize = 20

	// MaxPageSize caps caller-supplied page sizes.
	MaxPageSize = 100

	// RateLimitRequests per client within RateLimitWindow seconds.
	RateLimitRequests = 30
	RateLimitWindow   = 60

	// AllocationLockTTL seconds a per-hotel allocation lock may be held.
	AllocationLockTTL = 15

	// WorkerQueueSize is the in-memory sync queue capacity.
	WorkerQueueSize = 256
)

// StatusLabels maps internal status values to display labels.
var StatusLabels = map[string]string{
	StatusDraft:           "Draft",
	StatusSubmitted:       "Submitted to hotel",
	StatusHotelApproved:   "Approved by hotel",
	StatusHotelRejected:   "Rejected by hotel",
	StatusCancelledByUser: "Cancelled by requester",
}

// StatusLabel returns the display label for a status, falling back to the raw value.
func StatusLabel(status string) string {
	if label, ok := StatusLabels[status]; ok {
		return label
	}
	return status
}
