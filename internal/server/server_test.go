package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-vacation-planner/internal/app"
	"ai-vacation-planner/internal/config"
	"ai-vacation-planner/internal/llm"
	"ai-vacation-planner/internal/trip"
)

type stubStep struct {
	decision llm.Decision
	err      error
}

// stubReasoner pops one scripted decision per Reason call.
type stubReasoner struct {
	mu    sync.Mutex
	steps []stubStep
}

func (s *stubReasoner) Reason(_ context.Context, _ string, _ []llm.Message, _ []llm.ToolDefinition) (llm.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return llm.Decision{}, fmt.Errorf("stub reasoner ran out of steps")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.decision, step.err
}

func (s *stubReasoner) Model() string { return "stub-model" }

func newTestServer(reasoner llm.Reasoner) *httptest.Server {
	cfg := &config.Config{
		ReasonerBackend: "gemini",
		MaxRounds:       config.DefaultMaxRounds,
		MaxRepairs:      0,
		CallTimeout:     time.Second,
	}
	return httptest.NewServer(New(app.New(cfg, reasoner)).Router())
}

// candidateArgs builds finalize_plan arguments for a hotel-only itinerary
// starting at start, one day per entry of dayCosts.
func candidateArgs(destination string, start trip.Date, dayCosts []float64) map[string]any {
	var days []any
	total := 0.0
	d := start
	for _, cost := range dayCosts {
		days = append(days, map[string]any{
			"date": d.String(),
			"segments": []any{
				map[string]any{"kind": "hotel", "description": "Demo Hotel 0", "cost": cost},
			},
		})
		total += cost
		d = d.Next()
	}
	return map[string]any{
		"destination_city":     destination,
		"currency":             "USD",
		"estimated_total_cost": total,
		"days":                 days,
	}
}

// freeStart picks a trip start date safely past the seeded busy day.
func freeStart() trip.Date {
	return trip.DateOf(time.Now().UTC().AddDate(0, 0, 10))
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(&stubReasoner{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var health map[string]any
	decodeBody(t, resp, &health)
	if health["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", health["status"])
	}
	if health["reasoner_configured"] != true {
		t.Error("Expected the reasoner to be reported as configured")
	}
	if health["model"] != "stub-model" {
		t.Errorf("Expected the stub model name, got %v", health["model"])
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	ts := newTestServer(&stubReasoner{})
	defer ts.Close()

	t.Run("GetCreatesDefaults", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/preferences/user-1")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var prefs trip.Preferences
		decodeBody(t, resp, &prefs)
		if prefs.DefaultCurrency != "USD" {
			t.Errorf("Expected default currency USD, got %q", prefs.DefaultCurrency)
		}
	})

	t.Run("PatchUpdates", func(t *testing.T) {
		body := strings.NewReader(`{"home_city": "SIN", "max_budget_total": 2500, "travel_style": "relaxed"}`)
		req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/preferences/user-1", body)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var prefs trip.Preferences
		decodeBody(t, resp, &prefs)
		if prefs.HomeCity != "SIN" || prefs.TravelStyle != "relaxed" {
			t.Errorf("Update not applied: %+v", prefs)
		}
		if prefs.MaxBudgetTotal == nil || *prefs.MaxBudgetTotal != 2500 {
			t.Errorf("Expected total budget 2500, got %v", prefs.MaxBudgetTotal)
		}
	})

	t.Run("RejectsUnknownTravelStyle", func(t *testing.T) {
		body := strings.NewReader(`{"travel_style": "chaotic"}`)
		req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/preferences/user-1", body)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestCreatePlan(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		reasoner := &stubReasoner{steps: []stubStep{
			{decision: llm.Decision{Call: &llm.ToolInvocation{
				Name: "finalize_plan",
				Args: candidateArgs("Lisbon", freeStart(), []float64{110, 110, 110}),
			}}},
		}}
		ts := newTestServer(reasoner)
		defer ts.Close()

		resp := postJSON(t, ts.URL+"/plans", map[string]string{"user_id": "user-1", "message": "3 days in Lisbon"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", resp.StatusCode)
		}
		var plan trip.VacationPlan
		decodeBody(t, resp, &plan)
		if plan.Status != trip.StatusProposed {
			t.Errorf("Expected a PROPOSED plan, got %s", plan.Status)
		}
		if plan.TotalCost != 330 {
			t.Errorf("Expected total 330, got %.2f", plan.TotalCost)
		}

		// The plan must be retrievable both by id and as the live proposal.
		got, err := http.Get(ts.URL + "/plans/" + plan.ID)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if got.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 fetching the plan, got %d", got.StatusCode)
		}
		got.Body.Close()

		proposal, err := http.Get(ts.URL + "/users/user-1/proposal")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if proposal.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 fetching the proposal, got %d", proposal.StatusCode)
		}
		proposal.Body.Close()
	})

	t.Run("ClarificationIsNotAnError", func(t *testing.T) {
		reasoner := &stubReasoner{steps: []stubStep{
			{decision: llm.Decision{Text: "Which city would you like to visit?"}},
		}}
		ts := newTestServer(reasoner)
		defer ts.Close()

		resp := postJSON(t, ts.URL+"/plans", map[string]string{"user_id": "user-1", "message": "plan me a vacation"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		var body map[string]any
		decodeBody(t, resp, &body)
		if body["needs_clarification"] != true {
			t.Errorf("Expected a clarification response, got %v", body)
		}
		if body["question"] != "Which city would you like to visit?" {
			t.Errorf("Expected the model's question, got %v", body["question"])
		}
	})

	t.Run("ValidationFailureIs422", func(t *testing.T) {
		args := candidateArgs("", freeStart(), []float64{100})
		reasoner := &stubReasoner{steps: []stubStep{
			{decision: llm.Decision{Call: &llm.ToolInvocation{Name: "finalize_plan", Args: args}}},
		}}
		ts := newTestServer(reasoner)
		defer ts.Close()

		resp := postJSON(t, ts.URL+"/plans", map[string]string{"user_id": "user-1", "message": "3 days somewhere"})
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("Expected 422, got %d", resp.StatusCode)
		}
		var body struct {
			Error      string   `json:"error"`
			Violations []string `json:"violations"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "validation_failed" || len(body.Violations) == 0 {
			t.Errorf("Expected violations in the body, got %+v", body)
		}
	})

	t.Run("UpstreamFailureIs502", func(t *testing.T) {
		reasoner := &stubReasoner{steps: []stubStep{
			{err: fmt.Errorf("model overloaded")},
			{err: fmt.Errorf("model overloaded")},
		}}
		ts := newTestServer(reasoner)
		defer ts.Close()

		resp := postJSON(t, ts.URL+"/plans", map[string]string{"user_id": "user-1", "message": "3 days in Lisbon"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadGateway {
			t.Fatalf("Expected 502, got %d", resp.StatusCode)
		}
	})

	t.Run("MissingFieldsAre400", func(t *testing.T) {
		ts := newTestServer(&stubReasoner{})
		defer ts.Close()

		resp := postJSON(t, ts.URL+"/plans", map[string]string{"user_id": "user-1"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestBookingEndpoint(t *testing.T) {
	reasoner := &stubReasoner{steps: []stubStep{
		{decision: llm.Decision{Call: &llm.ToolInvocation{
			Name: "finalize_plan",
			Args: candidateArgs("Lisbon", freeStart(), []float64{110, 110}),
		}}},
	}}
	ts := newTestServer(reasoner)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/plans", map[string]string{"user_id": "user-1", "message": "2 days in Lisbon"})
	var plan trip.VacationPlan
	decodeBody(t, resp, &plan)

	t.Run("ConfirmAndRetry", func(t *testing.T) {
		first := postJSON(t, ts.URL+"/bookings", map[string]string{"user_id": "user-1", "plan_id": plan.ID})
		if first.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", first.StatusCode)
		}
		var bk1 trip.Booking
		decodeBody(t, first, &bk1)
		if bk1.PlanID != plan.ID || bk1.FlightConfirmationCode == "" {
			t.Errorf("Unexpected booking: %+v", bk1)
		}

		second := postJSON(t, ts.URL+"/bookings", map[string]string{"user_id": "user-1", "plan_id": plan.ID})
		if second.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201 on retry, got %d", second.StatusCode)
		}
		var bk2 trip.Booking
		decodeBody(t, second, &bk2)
		if bk1.ID != bk2.ID || bk1.FlightConfirmationCode != bk2.FlightConfirmationCode {
			t.Errorf("Retried booking must be identical, got %+v and %+v", bk1, bk2)
		}
	})

	t.Run("UnknownPlanIs404", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/bookings", map[string]string{
			"user_id": "user-1",
			"plan_id": "00000000-0000-4000-8000-000000000000",
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("MalformedPlanIDIs400", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/bookings", map[string]string{"user_id": "user-1", "plan_id": "not-a-uuid"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("CancelBookedPlanIs409", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/plans/"+plan.ID+"?user_id=user-1", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("Expected 409 cancelling a booked plan, got %d", resp.StatusCode)
		}
	})
}

func TestCancelPlanEndpoint(t *testing.T) {
	reasoner := &stubReasoner{steps: []stubStep{
		{decision: llm.Decision{Call: &llm.ToolInvocation{
			Name: "finalize_plan",
			Args: candidateArgs("Lisbon", freeStart(), []float64{110}),
		}}},
	}}
	ts := newTestServer(reasoner)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/plans", map[string]string{"user_id": "user-1", "message": "a day in Lisbon"})
	var plan trip.VacationPlan
	decodeBody(t, resp, &plan)

	t.Run("MissingUserIDIs400", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/plans/"+plan.ID, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("ForeignUserIs404", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/plans/"+plan.ID+"?user_id=mallory", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("OwnerCancelIs204", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/plans/"+plan.ID+"?user_id=user-1", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d", resp.StatusCode)
		}

		proposal, err := http.Get(ts.URL + "/users/user-1/proposal")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer proposal.Body.Close()
		if proposal.StatusCode != http.StatusNotFound {
			t.Errorf("Expected no live proposal after cancel, got %d", proposal.StatusCode)
		}
	})
}
