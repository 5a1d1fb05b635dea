// Package auth decides, per booking request, what an identity may do, and
// derives the row filter for listing queries. Evaluation is a pure function
// over the identity and the aggregate; the identity is always passed in
// explicitly.
package auth

import (
	"eskan/internal/models"
)

// Decision is the outcome of evaluating an identity against one request.
// Manage covers approve and reject; those stay hotel-side operations even for
// the submitter.
type Decision struct {
	CanView   bool
	CanManage bool
}

// Evaluate applies the role rules. Identities matching no rule get a zero
// Decision, which callers treat as a hard deny.
func Evaluate(identity models.Identity, r *models.BookingRequest) Decision {
	if identity.Role == models.RoleSuperAdmin {
		return Decision{CanView: true, CanManage: true}
	}

	d := Decision{}

	// The submitter and the requesting employee may always view their request.
	if identity.UserID != 0 && identity.UserID == r.SubmitterID {
		d.CanView = true
	}
	if identity.NationalCode != "" && identity.NationalCode == r.EmployeeNationalCode {
		d.CanView = true
	}

	switch identity.Role {
	case models.RoleHotelUser:
		// Hotel staff only ever touch their own hotel's requests; manage
		// (approve/reject) is a hotel-only capability.
		if identity.HotelID != 0 && identity.HotelID == r.HotelID {
			d.CanView = true
			d.CanManage = true
		}
	case models.RoleProvinceUser:
		if identity.ProvinceCode != "" && identity.ProvinceCode == r.EmployeeProvinceCode {
			d.CanView = true
		}
	}

	return d
}

// CanView reports whether the identity may read the request.
func CanView(identity models.Identity, r *models.BookingRequest) bool {
	return Evaluate(identity, r).CanView
}

// CanManage reports whether the identity may approve or reject the request.
func CanManage(identity models.Identity, r *models.BookingRequest) bool {
	return Evaluate(identity, r).CanManage
}

// ScopeFilter derives the listing predicate for an identity. A scoped role
// with its scoping claim missing lists nothing rather than erroring.
func ScopeFilter(identity models.Identity) models.ListScope {
	switch identity.Role {
	case models.RoleSuperAdmin:
		return models.ListScope{All: true}

	case models.RoleProvinceUser:
		if identity.ProvinceCode == "" {
			return models.ListScope{Empty: true}
		}
		// A province user also sees requests they personally filed, even when
		// the employee's province record is inconsistent.
		return models.ListScope{
			ProvinceCode: identity.ProvinceCode,
			SubmitterID:  identity.UserID,
		}

	case models.RoleHotelUser:
		if identity.HotelID == 0 {
			return models.ListScope{Empty: true}
		}
		return models.ListScope{HotelID: identity.HotelID}
	}

	return models.ListScope{Empty: true}
}

// SelfScope is the self-service listing predicate: requests the identity
// submitted or that are for the identity's own national code.
func SelfScope(identity models.Identity) models.ListScope {
	if identity.UserID == 0 && identity.NationalCode == "" {
		return models.ListScope{Empty: true}
	}
	return models.ListScope{
		SubmitterID:          identity.UserID,
		EmployeeNationalCode: identity.NationalCode,
	}
}

// CanSubmit reports whether the role may file requests on behalf of employees.
func CanSubmit(identity models.Identity) bool {
	return identity.Role == models.RoleSuperAdmin || identity.Role == models.RoleProvinceUser
}

// CanCancel reports whether the identity may cancel the request: the original
// submitter or a super admin.
func CanCancel(identity models.Identity, r *models.BookingRequest) bool {
	if identity.Role == models.RoleSuperAdmin {
		return true
	}
	return identity.UserID != 0 && identity.UserID == r.SubmitterID
}
