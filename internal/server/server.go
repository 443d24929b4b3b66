package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ai-vacation-planner/internal/app"
	"ai-vacation-planner/internal/preferences"
	"ai-vacation-planner/internal/trip"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Server is the thin HTTP layer over the core App operations. It carries
// no business logic: handlers translate requests, call the App, and map
// the error taxonomy onto status codes.
type Server struct {
	app      *app.App
	validate *validator.Validate
}

// New creates the HTTP server facade.
func New(application *app.App) *Server {
	return &Server{
		app:      application,
		validate: validator.New(),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/preferences/{userID}", s.handleGetPreferences).Methods(http.MethodGet)
	r.HandleFunc("/preferences/{userID}", s.handleUpdatePreferences).Methods(http.MethodPatch, http.MethodPut)
	r.HandleFunc("/plans", s.handleCreatePlan).Methods(http.MethodPost)
	r.HandleFunc("/plans/{planID}", s.handleGetPlan).Methods(http.MethodGet)
	r.HandleFunc("/plans/{planID}", s.handleCancelPlan).Methods(http.MethodDelete)
	r.HandleFunc("/users/{userID}/proposal", s.handleGetProposal).Methods(http.MethodGet)
	r.HandleFunc("/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	return r
}

type planRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type bookingRequest struct {
	UserID string `json:"user_id" validate:"required"`
	PlanID string `json:"plan_id" validate:"required,uuid4"`
}

// preferencesRequest mirrors preferences.Update with validation tags; the
// domain package stays free of transport concerns.
type preferencesRequest struct {
	HomeCity           *string   `json:"home_city" validate:"omitempty,min=1"`
	DefaultCurrency    *string   `json:"default_currency" validate:"omitempty,len=3,uppercase"`
	MaxBudgetTotal     *float64  `json:"max_budget_total" validate:"omitempty,gte=0"`
	MaxBudgetPerDay    *float64  `json:"max_budget_per_day" validate:"omitempty,gte=0"`
	Interests          *[]string `json:"interests"`
	TravelStyle        *string   `json:"travel_style" validate:"omitempty,oneof=relaxed packed balanced"`
	PreferredAirlines  *[]string `json:"preferred_airlines"`
	PreferredHotelType *[]string `json:"preferred_hotel_types" validate:"omitempty,dive,oneof=budget midrange luxury"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Health())
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	writeJSON(w, http.StatusOK, s.app.GetPreferences(userID))
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var req preferencesRequest
	if !s.decode(w, r, &req) {
		return
	}

	prefs, err := s.app.UpdatePreferences(userID, preferences.Update{
		HomeCity:           req.HomeCity,
		DefaultCurrency:    req.DefaultCurrency,
		MaxBudgetTotal:     req.MaxBudgetTotal,
		MaxBudgetPerDay:    req.MaxBudgetPerDay,
		Interests:          req.Interests,
		TravelStyle:        req.TravelStyle,
		PreferredAirlines:  req.PreferredAirlines,
		PreferredHotelType: req.PreferredHotelType,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !s.decode(w, r, &req) {
		return
	}

	plan, err := s.app.PlanVacation(r.Context(), req.UserID, req.Message)
	if err != nil {
		var clarification *trip.ClarificationError
		if errors.As(err, &clarification) {
			writeJSON(w, http.StatusOK, map[string]any{
				"needs_clarification": true,
				"question":            clarification.Question,
			})
			return
		}
		s.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.app.GetPlan(mux.Vars(r)["planID"])
	if err != nil {
		s.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCancelPlan(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}
	if err := s.app.CancelPlan(mux.Vars(r)["planID"], userID); err != nil {
		s.mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.app.ProposedPlan(mux.Vars(r)["userID"])
	if !ok {
		writeError(w, http.StatusNotFound, "no live proposal for this user")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !s.decode(w, r, &req) {
		return
	}

	bk, err := s.app.ConfirmBooking(req.PlanID, req.UserID)
	if err != nil {
		s.mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bk)
}

// decode unmarshals and validates a JSON request body, writing a 400 and
// returning false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// mapError translates the error taxonomy onto HTTP status codes so a
// caller can tell transient failures, user mistakes, and terminal state
// conflicts apart.
func (s *Server) mapError(w http.ResponseWriter, err error) {
	var validation *trip.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "validation_failed",
			"violations": validation.Violations,
		})
	case errors.Is(err, trip.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, trip.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
