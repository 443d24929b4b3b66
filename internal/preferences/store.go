package preferences

import (
	"fmt"
	"sync"

	"ai-vacation-planner/internal/trip"
)

// Update is a partial patch of a preference record. Nil fields are left
// untouched.
type Update struct {
	HomeCity           *string   `json:"home_city,omitempty"`
	DefaultCurrency    *string   `json:"default_currency,omitempty"`
	MaxBudgetTotal     *float64  `json:"max_budget_total,omitempty"`
	MaxBudgetPerDay    *float64  `json:"max_budget_per_day,omitempty"`
	Interests          *[]string `json:"interests,omitempty"`
	TravelStyle        *string   `json:"travel_style,omitempty"`
	PreferredAirlines  *[]string `json:"preferred_airlines,omitempty"`
	PreferredHotelType *[]string `json:"preferred_hotel_types,omitempty"`
}

// Store is an in-memory preference store. Records are created lazily with
// defaults on first read and are never deleted.
type Store struct {
	mu      sync.Mutex
	records map[string]trip.Preferences
}

// NewStore creates an empty preference store.
func NewStore() *Store {
	return &Store{records: make(map[string]trip.Preferences)}
}

// Get returns the preference record for userID, creating it with defaults
// if it does not exist yet.
func (s *Store) Get(userID string) trip.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(userID)
}

// Apply merges a partial update into the record and returns the full
// result. Budgets must be non-negative.
func (s *Store) Apply(userID string, update Update) (trip.Preferences, error) {
	if update.MaxBudgetTotal != nil && *update.MaxBudgetTotal < 0 {
		return trip.Preferences{}, fmt.Errorf("max_budget_total must be non-negative, got %v", *update.MaxBudgetTotal)
	}
	if update.MaxBudgetPerDay != nil && *update.MaxBudgetPerDay < 0 {
		return trip.Preferences{}, fmt.Errorf("max_budget_per_day must be non-negative, got %v", *update.MaxBudgetPerDay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.getOrCreateLocked(userID)
	if update.HomeCity != nil {
		prefs.HomeCity = *update.HomeCity
	}
	if update.DefaultCurrency != nil {
		prefs.DefaultCurrency = *update.DefaultCurrency
	}
	if update.MaxBudgetTotal != nil {
		v := *update.MaxBudgetTotal
		prefs.MaxBudgetTotal = &v
	}
	if update.MaxBudgetPerDay != nil {
		v := *update.MaxBudgetPerDay
		prefs.MaxBudgetPerDay = &v
	}
	if update.Interests != nil {
		prefs.Interests = append([]string(nil), (*update.Interests)...)
	}
	if update.TravelStyle != nil {
		prefs.TravelStyle = *update.TravelStyle
	}
	if update.PreferredAirlines != nil {
		prefs.PreferredAirlines = append([]string(nil), (*update.PreferredAirlines)...)
	}
	if update.PreferredHotelType != nil {
		prefs.PreferredHotelType = append([]string(nil), (*update.PreferredHotelType)...)
	}

	s.records[userID] = prefs
	return prefs, nil
}

func (s *Store) getOrCreateLocked(userID string) trip.Preferences {
	if prefs, ok := s.records[userID]; ok {
		return prefs
	}
	prefs := trip.Preferences{
		UserID:             userID,
		DefaultCurrency:    "USD",
		Interests:          []string{},
		TravelStyle:        "balanced",
		PreferredAirlines:  []string{},
		PreferredHotelType: []string{},
	}
	s.records[userID] = prefs
	return prefs
}
