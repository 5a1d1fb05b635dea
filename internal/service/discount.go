package service

import (
	"context"
	"fmt"

	"eskan/internal/domain"
	"eskan/internal/models"
)

// DiscountCalculator classifies a guest against the requesting employee and
// returns the subsidy percentage. The result is frozen on the guest record at
// creation time; later dependent registrations never change existing guests.
type DiscountCalculator struct {
	users domain.UserDirectory
}

func NewDiscountCalculator(users domain.UserDirectory) *DiscountCalculator {
	return &DiscountCalculator{users: users}
}

// Classify returns the relation tag and discount percent for one guest.
func (c *DiscountCalculator) Classify(ctx context.Context, employeeNationalCode, guestNationalCode string) (string, int, error) {
	if guestNationalCode == employeeNationalCode {
		return models.RelationSelf, models.DiscountSelf, nil
	}

	dependents, err := c.users.ListDependents(ctx, employeeNationalCode)
	if err != nil {
		return "", 0, fmt.Errorf("failed to resolve dependents: %w", err)
	}
	for _, dep := range dependents {
		if dep.NationalCode == guestNationalCode {
			return models.RelationDependent, models.DiscountDependent, nil
		}
	}

	return models.RelationCompanion, models.DiscountCompanion, nil
}
