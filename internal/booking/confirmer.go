package booking

import (
	"fmt"
	"log"

	"ai-vacation-planner/internal/registry"
	"ai-vacation-planner/internal/trip"
)

// Confirmer turns a live proposal into a booking on explicit user
// approval. It reads the plan, checks ownership, and requests the status
// transition from the registry; it never mutates plan content.
type Confirmer struct {
	registry *registry.Registry
}

// NewConfirmer creates a Confirmer over the given registry.
func NewConfirmer(reg *registry.Registry) *Confirmer {
	return &Confirmer{registry: reg}
}

// Confirm books the plan with the given id for the approving user.
// Confirming an already-booked plan returns the same Booking again, so a
// retry after a transport failure cannot double-book. Plan ids are opaque:
// a plan owned by someone else is reported as not found rather than
// disclosing its existence.
func (c *Confirmer) Confirm(planID, approvingUserID string) (trip.Booking, error) {
	plan, err := c.registry.Get(planID)
	if err != nil {
		return trip.Booking{}, fmt.Errorf("confirm %s: %w", planID, err)
	}
	if plan.UserID != approvingUserID {
		return trip.Booking{}, fmt.Errorf("confirm %s: plan belongs to another user: %w", planID, trip.ErrNotFound)
	}

	bk, err := c.registry.MarkBooked(planID)
	if err != nil {
		return trip.Booking{}, fmt.Errorf("confirm %s: %w", planID, err)
	}

	log.Printf("Confirmed booking %s for plan %s (user %s)", bk.ID, planID, approvingUserID)
	return bk, nil
}
