package search

import (
	"fmt"
	"sort"
	"time"

	"ai-vacation-planner/internal/trip"
)

// FlightOption is one mock flight candidate.
type FlightOption struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Airline     string    `json:"airline"`
	CabinClass  string    `json:"cabin_class"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
}

// HotelOption is one mock hotel candidate.
type HotelOption struct {
	ID            string    `json:"id"`
	City          string    `json:"destination_city"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	CheckIn       trip.Date `json:"check_in"`
	CheckOut      trip.Date `json:"check_out"`
	PricePerNight float64   `json:"price_per_night"`
	TotalPrice    float64   `json:"total_price"`
	Currency      string    `json:"currency"`
	Rating        float64   `json:"rating"`
}

var demoAirlines = []string{"Demo Air", "Blue Horizon", "Pacific Wings"}
var demoHotelTypes = []string{"budget", "midrange", "luxury"}

// Catalog generates and ranks mock travel candidates. Results are fully
// deterministic for identical inputs: the generator is seedless and the
// ranking tie-break is lexical id order.
type Catalog struct{}

// NewCatalog creates a Catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// SearchFlights returns mock flights between origin and destination near
// the start of the range, filtered by maxBudget (nil means unbounded) and
// ranked against the user's preferences.
func (c *Catalog) SearchFlights(origin, destination string, r trip.DateRange, maxBudget *float64, prefs trip.Preferences) []FlightOption {
	currency := prefs.DefaultCurrency
	if currency == "" {
		currency = "USD"
	}

	const basePrice = 300.0
	var flights []FlightOption
	for i := 0; i < 3; i++ {
		price := basePrice + float64(i)*50
		if maxBudget != nil && price > *maxBudget {
			continue
		}
		depDate := r.Start.AddDate(0, 0, i)
		departure := time.Date(depDate.Year(), depDate.Month(), depDate.Day(), 9+i, 0, 0, 0, time.UTC)
		flights = append(flights, FlightOption{
			ID:          fmt.Sprintf("FL-%s-%s-%d", origin, destination, i),
			Origin:      origin,
			Destination: destination,
			Departure:   departure,
			Arrival:     departure.Add(7 * time.Hour),
			Airline:     demoAirlines[i],
			CabinClass:  "economy",
			Price:       price,
			Currency:    currency,
		})
	}

	sort.Slice(flights, func(a, b int) bool {
		sa, sb := flightScore(flights[a], prefs), flightScore(flights[b], prefs)
		if sa != sb {
			return sa > sb
		}
		if flights[a].Price != flights[b].Price {
			return flights[a].Price < flights[b].Price
		}
		return flights[a].ID < flights[b].ID
	})
	return flights
}

// SearchHotels returns mock hotels for the range, filtered by
// maxBudgetTotal (nil means unbounded) and ranked against the user's
// preferences.
func (c *Catalog) SearchHotels(city string, r trip.DateRange, maxBudgetTotal *float64, prefs trip.Preferences) []HotelOption {
	currency := prefs.DefaultCurrency
	if currency == "" {
		currency = "USD"
	}

	nights := r.Start.DaysUntil(r.End)
	if nights <= 0 {
		nights = 1
	}

	const basePricePerNight = 80.0
	var hotels []HotelOption
	for i := 0; i < 3; i++ {
		pricePerNight := basePricePerNight + float64(i)*30
		totalPrice := pricePerNight * float64(nights)
		if maxBudgetTotal != nil && totalPrice > *maxBudgetTotal {
			continue
		}
		hotels = append(hotels, HotelOption{
			ID:            fmt.Sprintf("HT-%s-%d", city, i),
			City:          city,
			Name:          fmt.Sprintf("Demo Hotel %d", i),
			Type:          demoHotelTypes[i],
			CheckIn:       r.Start,
			CheckOut:      r.End,
			PricePerNight: pricePerNight,
			TotalPrice:    totalPrice,
			Currency:      currency,
			Rating:        3.5 + float64(i)*0.5,
		})
	}

	sort.Slice(hotels, func(a, b int) bool {
		sa, sb := hotelScore(hotels[a], prefs), hotelScore(hotels[b], prefs)
		if sa != sb {
			return sa > sb
		}
		if hotels[a].TotalPrice != hotels[b].TotalPrice {
			return hotels[a].TotalPrice < hotels[b].TotalPrice
		}
		return hotels[a].ID < hotels[b].ID
	})
	return hotels
}

func flightScore(f FlightOption, prefs trip.Preferences) int {
	score := 0
	for _, airline := range prefs.PreferredAirlines {
		if airline == f.Airline {
			score++
		}
	}
	return score
}

func hotelScore(h HotelOption, prefs trip.Preferences) int {
	score := 0
	for _, t := range prefs.PreferredHotelType {
		if t == h.Type {
			score++
		}
	}
	return score
}
