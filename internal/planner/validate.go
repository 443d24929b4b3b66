package planner

import (
	"fmt"
	"math"

	"ai-vacation-planner/internal/trip"
)

// costTolerance absorbs float rounding when comparing money sums.
const costTolerance = 0.01

// planCandidate is the shape of a finalize_plan call's arguments.
type planCandidate struct {
	DestinationCity    string              `json:"destination_city"`
	Currency           string              `json:"currency"`
	EstimatedTotalCost float64             `json:"estimated_total_cost"`
	Days               []trip.ItineraryDay `json:"days"`
}

// buildPlan turns an accepted candidate into a VacationPlan owned by the
// user. The total is always recomputed from the days.
func buildPlan(userID string, cand planCandidate, prefs trip.Preferences) trip.VacationPlan {
	currency := cand.Currency
	if currency == "" {
		currency = prefs.DefaultCurrency
	}
	plan := trip.VacationPlan{
		UserID:      userID,
		Destination: cand.DestinationCity,
		Days:        cand.Days,
		Currency:    currency,
	}
	plan.TotalCost = plan.SumDayCosts()
	return plan
}

// validateCandidate checks a finalize candidate against structural
// invariants and the user's budget constraints. Availability is checked
// separately because it needs the oracle. Returned violations are written
// for the model: they become the repair prompt verbatim.
func validateCandidate(cand planCandidate, prefs trip.Preferences) []string {
	var violations []string

	if cand.DestinationCity == "" {
		violations = append(violations, "destination_city is missing")
	}
	if len(cand.Days) == 0 {
		violations = append(violations, "the itinerary has no days")
		return violations
	}

	for i, day := range cand.Days {
		if day.Date.IsZero() {
			violations = append(violations, fmt.Sprintf("day %d has no date", i+1))
			continue
		}
		if i > 0 && !day.Date.Equal(cand.Days[i-1].Date.Next().Time) {
			violations = append(violations, fmt.Sprintf(
				"itinerary dates must be contiguous: day %d is %s but day %d is %s",
				i, cand.Days[i-1].Date, i+1, day.Date))
		}
		for _, seg := range day.Segments {
			if seg.Cost < 0 {
				violations = append(violations, fmt.Sprintf("day %d has a negative segment cost", i+1))
			}
			switch seg.Kind {
			case trip.SegmentFlight, trip.SegmentHotel, trip.SegmentActivity:
			default:
				violations = append(violations, fmt.Sprintf(
					"day %d has unknown segment kind %q (use flight, hotel, or activity)", i+1, seg.Kind))
			}
		}
		if prefs.MaxBudgetPerDay != nil && day.Cost() > *prefs.MaxBudgetPerDay+costTolerance {
			violations = append(violations, fmt.Sprintf(
				"day %d costs %.2f, above the per-day budget of %.2f", i+1, day.Cost(), *prefs.MaxBudgetPerDay))
		}
	}

	total := 0.0
	for _, day := range cand.Days {
		total += day.Cost()
	}
	if cand.EstimatedTotalCost != 0 && math.Abs(cand.EstimatedTotalCost-total) > costTolerance {
		violations = append(violations, fmt.Sprintf(
			"estimated_total_cost %.2f does not match the sum of day costs %.2f", cand.EstimatedTotalCost, total))
	}
	if prefs.MaxBudgetTotal != nil && total > *prefs.MaxBudgetTotal+costTolerance {
		violations = append(violations, fmt.Sprintf(
			"total cost %.2f exceeds the trip budget of %.2f", total, *prefs.MaxBudgetTotal))
	}

	return violations
}
