package trip

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire format for calendar dates (no time component).
const DateFormat = "2006-01-02"

// Date is a calendar day. It marshals as "YYYY-MM-DD" so the reasoning
// model and the HTTP surface exchange plain dates, not timestamps.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return Date{d.AddDate(0, 0, 1)}
}

// DaysUntil returns the number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateFormat) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Days returns the number of days covered by the range, inclusive.
func (r DateRange) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

// Preferences is a user's stored travel preference record. A record is
// created lazily with defaults on first read and is never deleted.
type Preferences struct {
	UserID             string   `json:"user_id"`
	HomeCity           string   `json:"home_city"`
	DefaultCurrency    string   `json:"default_currency"`
	MaxBudgetTotal     *float64 `json:"max_budget_total,omitempty"`
	MaxBudgetPerDay    *float64 `json:"max_budget_per_day,omitempty"`
	Interests          []string `json:"interests"`
	TravelStyle        string   `json:"travel_style"`
	PreferredAirlines  []string `json:"preferred_airlines"`
	PreferredHotelType []string `json:"preferred_hotel_types"`
}

// SegmentKind classifies an itinerary entry.
type SegmentKind string

const (
	SegmentFlight   SegmentKind = "flight"
	SegmentHotel    SegmentKind = "hotel"
	SegmentActivity SegmentKind = "activity"
)

// Segment is one entry within an itinerary day.
type Segment struct {
	Kind        SegmentKind `json:"kind"`
	Description string      `json:"description"`
	Cost        float64     `json:"cost"`
}

// ItineraryDay is one day of a vacation plan.
type ItineraryDay struct {
	Date     Date      `json:"date"`
	Segments []Segment `json:"segments"`
	Notes    string    `json:"notes,omitempty"`
}

// Cost returns the summed cost of the day's segments.
func (d ItineraryDay) Cost() float64 {
	var total float64
	for _, s := range d.Segments {
		total += s.Cost
	}
	return total
}

// PlanStatus is the lifecycle state of a vacation plan.
type PlanStatus string

const (
	StatusProposed PlanStatus = "PROPOSED"
	StatusBooked   PlanStatus = "BOOKED"
	StatusExpired  PlanStatus = "EXPIRED"
)

// VacationPlan is a structured day-by-day itinerary owned by one user.
// TotalCost is derived and must equal the sum of the day costs.
type VacationPlan struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Destination string         `json:"destination_city"`
	Days        []ItineraryDay `json:"days"`
	TotalCost   float64        `json:"total_cost"`
	Currency    string         `json:"currency"`
	Status      PlanStatus     `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SumDayCosts recomputes the plan total from its days.
func (p *VacationPlan) SumDayCosts() float64 {
	var total float64
	for _, d := range p.Days {
		total += d.Cost()
	}
	return total
}

// Range returns the inclusive date span of the itinerary. Days must be
// non-empty.
func (p *VacationPlan) Range() DateRange {
	return DateRange{Start: p.Days[0].Date, End: p.Days[len(p.Days)-1].Date}
}

// Booking is the immutable record of a confirmed plan. One-to-one with a
// VacationPlan whose status is BOOKED.
type Booking struct {
	ID                     string    `json:"booking_id"`
	PlanID                 string    `json:"plan_id"`
	UserID                 string    `json:"user_id"`
	FlightConfirmationCode string    `json:"flight_confirmation_code"`
	HotelConfirmationCode  string    `json:"hotel_confirmation_code"`
	TotalCharged           float64   `json:"total_charged"`
	Currency               string    `json:"currency"`
	CreatedAt              time.Time `json:"created_at"`
}
