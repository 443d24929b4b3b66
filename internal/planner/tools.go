package planner

import (
	"encoding/json"
	"fmt"

	"ai-vacation-planner/internal/calendar"
	"ai-vacation-planner/internal/llm"
	"ai-vacation-planner/internal/trip"
)

// The closed tool set offered to the reasoning model. finalize_plan is the
// terminal call; everything else feeds results back into the transcript.
const (
	toolGetPreferences    = "get_preferences"
	toolCheckAvailability = "check_availability"
	toolSearchFlights     = "search_flights"
	toolSearchHotels      = "search_hotels"
	toolFinalizePlan      = "finalize_plan"
)

func toolSchema() []llm.ToolDefinition {
	dateProp := func(desc string) llm.Property {
		return llm.Property{Type: "string", Description: desc + " (YYYY-MM-DD)"}
	}

	segmentSchema := llm.Property{
		Type:        "object",
		Description: "One itinerary entry: a flight leg, hotel stay, or activity, with its cost",
	}

	return []llm.ToolDefinition{
		{
			Name:        toolGetPreferences,
			Description: "Load the user's travel preferences: home city, currency, budgets, interests, travel style, preferred airlines and hotel types.",
			Parameters:  llm.Parameters{Properties: map[string]llm.Property{}},
		},
		{
			Name:        toolCheckAvailability,
			Description: "Find free date ranges on the user's calendar that can fit the requested trip duration.",
			Parameters: llm.Parameters{
				Properties: map[string]llm.Property{
					"trip_duration_days": {Type: "integer", Description: "Desired trip length in days"},
					"window_days":        {Type: "integer", Description: "How far ahead to search, default 60"},
				},
				Required: []string{"trip_duration_days"},
			},
		},
		{
			Name:        toolSearchFlights,
			Description: "Search flights between two cities for a date range. Results are ranked by preference match, then price.",
			Parameters: llm.Parameters{
				Properties: map[string]llm.Property{
					"origin":      {Type: "string", Description: "Origin city or airport code"},
					"destination": {Type: "string", Description: "Destination city or airport code"},
					"start":       dateProp("First day of the trip"),
					"end":         dateProp("Last day of the trip"),
				},
				Required: []string{"origin", "destination", "start", "end"},
			},
		},
		{
			Name:        toolSearchHotels,
			Description: "Search hotels in the destination city for a date range. Results are ranked by preference match, then price.",
			Parameters: llm.Parameters{
				Properties: map[string]llm.Property{
					"destination_city": {Type: "string", Description: "City to stay in"},
					"start":            dateProp("Check-in date"),
					"end":              dateProp("Check-out date"),
				},
				Required: []string{"destination_city", "start", "end"},
			},
		},
		{
			Name:        toolFinalizePlan,
			Description: "Submit the finished day-by-day itinerary. Call this exactly once, after choosing dates, a flight, and a hotel.",
			Parameters: llm.Parameters{
				Properties: map[string]llm.Property{
					"destination_city":     {Type: "string", Description: "Destination city of the trip"},
					"currency":             {Type: "string", Description: "Currency for all costs"},
					"estimated_total_cost": {Type: "number", Description: "Sum of all day costs"},
					"days": {
						Type:        "array",
						Description: "One entry per day, dates contiguous. Each day has a date, a list of segments ({kind: flight|hotel|activity, description, cost}), and optional notes.",
						Items:       &segmentSchema,
					},
				},
				Required: []string{"destination_city", "days"},
			},
		},
	}
}

// decodeArgs converts loosely-typed tool arguments into a typed struct via
// a JSON round trip.
func decodeArgs(args map[string]any, into any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal tool args: %w", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("failed to decode tool args: %w", err)
	}
	return nil
}

// resultPayload converts a structured tool result into the generic map the
// reasoning transcript carries.
func resultPayload(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to convert tool result: %w", err)
	}
	return m, nil
}

type availabilityArgs struct {
	TripDurationDays int `json:"trip_duration_days"`
	WindowDays       int `json:"window_days"`
}

type flightSearchArgs struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Start       trip.Date `json:"start"`
	End         trip.Date `json:"end"`
}

type hotelSearchArgs struct {
	DestinationCity string    `json:"destination_city"`
	Start           trip.Date `json:"start"`
	End             trip.Date `json:"end"`
}

// executeTool dispatches one non-terminal tool invocation. Argument and
// dispatch problems are reported inside the ToolResult so the model can
// correct itself on the next round instead of aborting the loop.
func (a *Assembler) executeTool(userID string, call *llm.ToolInvocation) llm.ToolResult {
	res := llm.ToolResult{Name: call.Name}

	switch call.Name {
	case toolGetPreferences:
		payload, err := resultPayload(a.prefs.Get(userID))
		if err != nil {
			res.Err = err.Error()
			return res
		}
		res.Content = payload

	case toolCheckAvailability:
		var args availabilityArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			res.Err = err.Error()
			return res
		}
		if args.WindowDays == 0 {
			args.WindowDays = calendar.DefaultWindowDays
		}
		ranges := a.oracle.FreeRanges(userID, args.TripDurationDays, args.WindowDays)
		res.Content = map[string]any{"free_ranges": rangesPayload(ranges)}

	case toolSearchFlights:
		var args flightSearchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			res.Err = err.Error()
			return res
		}
		prefs := a.prefs.Get(userID)
		maxBudget := prefs.MaxBudgetTotal
		if maxBudget == nil {
			maxBudget = prefs.MaxBudgetPerDay
		}
		flights := a.catalog.SearchFlights(args.Origin, args.Destination,
			trip.DateRange{Start: args.Start, End: args.End}, maxBudget, prefs)
		payload, err := resultPayload(map[string]any{"flights": flights})
		if err != nil {
			res.Err = err.Error()
			return res
		}
		res.Content = payload

	case toolSearchHotels:
		var args hotelSearchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			res.Err = err.Error()
			return res
		}
		prefs := a.prefs.Get(userID)
		hotels := a.catalog.SearchHotels(args.DestinationCity,
			trip.DateRange{Start: args.Start, End: args.End}, prefs.MaxBudgetTotal, prefs)
		payload, err := resultPayload(map[string]any{"hotels": hotels})
		if err != nil {
			res.Err = err.Error()
			return res
		}
		res.Content = payload

	default:
		res.Err = fmt.Sprintf("unknown tool %q; available tools: %s, %s, %s, %s, %s",
			call.Name, toolGetPreferences, toolCheckAvailability, toolSearchFlights, toolSearchHotels, toolFinalizePlan)
	}

	return res
}

func rangesPayload(ranges []trip.DateRange) []map[string]any {
	out := make([]map[string]any, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, map[string]any{"start": r.Start.String(), "end": r.End.String()})
	}
	return out
}
