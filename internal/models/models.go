package models

import "time"

type Hotel struct {
	ID           int64  `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	ProvinceCode string `json:"province_code" yaml:"province_code"`
	IsActive     bool   `json:"is_active" yaml:"is_active"`
}

type Room struct {
	ID       int64  `json:"id" yaml:"id"`
	HotelID  int64  `json:"hotel_id" yaml:"hotel_id"`
	Number   string `json:"number" yaml:"number"`
	Capacity int    `json:"capacity" yaml:"capacity"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	NationalCode string    `json:"national_code"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"` // super_admin, province_user, hotel_user, employee
	ProvinceCode string    `json:"province_code,omitempty"`
	HotelID      int64     `json:"hotel_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Dependent is a family member registered against an employee.
type Dependent struct {
	ID                   int64  `json:"id"`
	EmployeeNationalCode string `json:"employee_national_code"`
	FullName             string `json:"full_name"`
	NationalCode         string `json:"national_code"`
}

// Identity is the resolved acting user for a single call. It is always passed
// explicitly; no ambient lookup exists.
type Identity struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	ProvinceCode string `json:"province_code,omitempty"`
	HotelID      int64  `json:"hotel_id,omitempty"`
	NationalCode string `json:"national_code,omitempty"`
}

type Guest struct {
	ID              int64  `json:"id"`
	RequestID       int64  `json:"request_id"`
	FullName        string `json:"full_name"`
	NationalCode    string `json:"national_code"`
	Relation        string `json:"relation"` // self, dependent, companion
	DiscountPercent int    `json:"discount_percent"`
}

// StatusHistoryEntry is an immutable audit record of one transition. OldStatus
// is empty only for the very first entry of a request.
type StatusHistoryEntry struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"request_id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	ActorID   int64     `json:"actor_id"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type RequestFile struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	FileName   string    `json:"file_name"`
	Path       string    `json:"path"`
	UploadedBy int64     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListScope is the role-derived row filter for listing queries. Exactly one of
// All/Empty or a combination of the match fields applies.
type ListScope struct {
	// All means no restriction (super admin).
	All bool
	// Empty means the role can list nothing; the query must return no rows.
	Empty bool
	// ProvinceCode, when set, matches the requesting employee's province.
	ProvinceCode string
	// SubmitterID, when set, matches requests filed by that user. Combined
	// with ProvinceCode using OR.
	SubmitterID int64
	// HotelID, when set, matches the request's hotel.
	HotelID int64
	// EmployeeNationalCode, when set, matches the requesting employee.
	// Combined with SubmitterID using OR (self-service listing).
	EmployeeNationalCode string
}

// Matches evaluates the scope against a single request. The database layer
// compiles the same logic to SQL; this form exists for in-memory filtering
// and tests.
func (s ListScope) Matches(r *BookingRequest) bool {
	if s.Empty {
		return false
	}
	if s.All {
		return true
	}
	if s.ProvinceCode != "" && r.EmployeeProvinceCode == s.ProvinceCode {
		return true
	}
	if s.SubmitterID != 0 && r.SubmitterID == s.SubmitterID {
		return true
	}
	if s.HotelID != 0 && r.HotelID == s.HotelID {
		return true
	}
	if s.EmployeeNationalCode != "" && r.EmployeeNationalCode == s.EmployeeNationalCode {
		return true
	}
	return false
}

// ListFilter combines the authorization scope with caller-supplied filters.
type ListFilter struct {
	Scope      ListScope
	Status     string
	SearchTerm string // matched against tracking code and employee national code
	Page       int
	PageSize   int
}

// SyncTask is a queued unit of work for the report sync worker.
type SyncTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	RequestID   int64      `json:"request_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, retry, completed, failed
	RetryCount  int        `json:"retry_count"`
	Error       string     `json:"error,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
