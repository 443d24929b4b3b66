package registry

import (
	"strings"
	"sync"
	"time"

	"ai-vacation-planner/internal/trip"

	"github.com/google/uuid"
)

// Registry owns the VacationPlan lifecycle. It holds at most one PROPOSED
// plan per user; a new proposal supersedes the prior one, which becomes
// EXPIRED. BOOKED and EXPIRED are terminal. All read-modify-write
// sequences run under one mutex, so a proposal racing a confirmation for
// the same user cannot interleave into an inconsistent state.
type Registry struct {
	mu         sync.Mutex
	plans      map[string]*trip.VacationPlan
	liveByUser map[string]string       // user id -> plan id of the live proposal
	bookings   map[string]trip.Booking // plan id -> booking
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		plans:      make(map[string]*trip.VacationPlan),
		liveByUser: make(map[string]string),
		bookings:   make(map[string]trip.Booking),
	}
}

// Propose registers a plan as the user's live proposal and returns its id.
// An existing live proposal for the same user is expired first; the
// supersede-then-insert sequence is atomic.
func (r *Registry) Propose(plan trip.VacationPlan) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevID, ok := r.liveByUser[plan.UserID]; ok {
		if prev, ok := r.plans[prevID]; ok && prev.Status == trip.StatusProposed {
			prev.Status = trip.StatusExpired
		}
	}

	plan.ID = uuid.NewString()
	plan.Status = trip.StatusProposed
	plan.CreatedAt = time.Now().UTC()

	stored := plan
	r.plans[plan.ID] = &stored
	r.liveByUser[plan.UserID] = plan.ID
	return plan.ID
}

// Get returns a copy of the plan with the given id.
func (r *Registry) Get(planID string) (trip.VacationPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, ok := r.plans[planID]
	if !ok {
		return trip.VacationPlan{}, trip.ErrNotFound
	}
	return *plan, nil
}

// GetProposed returns the user's live proposal, if any.
func (r *Registry) GetProposed(userID string) (trip.VacationPlan, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	planID, ok := r.liveByUser[userID]
	if !ok {
		return trip.VacationPlan{}, false
	}
	plan, ok := r.plans[planID]
	if !ok || plan.Status != trip.StatusProposed {
		return trip.VacationPlan{}, false
	}
	return *plan, true
}

// MarkBooked transitions a PROPOSED plan to BOOKED and mints its Booking.
// Calling it again for an already-BOOKED plan returns the stored Booking
// unchanged, so confirmation is safe to retry. An unknown id returns
// ErrNotFound; an EXPIRED plan returns ErrInvalidState.
func (r *Registry) MarkBooked(planID string) (trip.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, ok := r.plans[planID]
	if !ok {
		return trip.Booking{}, trip.ErrNotFound
	}

	switch plan.Status {
	case trip.StatusBooked:
		return r.bookings[planID], nil
	case trip.StatusExpired:
		return trip.Booking{}, trip.ErrInvalidState
	}

	plan.Status = trip.StatusBooked
	if r.liveByUser[plan.UserID] == planID {
		delete(r.liveByUser, plan.UserID)
	}

	booking := mintBooking(*plan)
	r.bookings[planID] = booking
	return booking, nil
}

// Cancel expires a PROPOSED plan. Cancelling an already-EXPIRED plan is a
// no-op; cancelling a BOOKED plan returns ErrInvalidState.
func (r *Registry) Cancel(planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, ok := r.plans[planID]
	if !ok {
		return trip.ErrNotFound
	}

	switch plan.Status {
	case trip.StatusBooked:
		return trip.ErrInvalidState
	case trip.StatusExpired:
		return nil
	}

	plan.Status = trip.StatusExpired
	if r.liveByUser[plan.UserID] == planID {
		delete(r.liveByUser, plan.UserID)
	}
	return nil
}

func mintBooking(plan trip.VacationPlan) trip.Booking {
	id := uuid.NewString()
	raw := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	return trip.Booking{
		ID:                     id,
		PlanID:                 plan.ID,
		UserID:                 plan.UserID,
		FlightConfirmationCode: "FL-" + raw[:8],
		HotelConfirmationCode:  "HT-" + raw[8:16],
		TotalCharged:           plan.TotalCost,
		Currency:               plan.Currency,
		CreatedAt:              time.Now().UTC(),
	}
}
