package app

import (
	"context"
	"fmt"

	"ai-vacation-planner/internal/booking"
	"ai-vacation-planner/internal/calendar"
	"ai-vacation-planner/internal/config"
	"ai-vacation-planner/internal/llm"
	"ai-vacation-planner/internal/metrics"
	"ai-vacation-planner/internal/planner"
	"ai-vacation-planner/internal/preferences"
	"ai-vacation-planner/internal/registry"
	"ai-vacation-planner/internal/search"
	"ai-vacation-planner/internal/trip"
)

// App holds the application's dependencies and exposes the core
// operations consumed by the HTTP server and the Telegram bot.
type App struct {
	cfg          *config.Config
	reasoner     llm.Reasoner
	prefs        *preferences.Store
	oracle       *calendar.Oracle
	catalog      *search.Catalog
	registry     *registry.Registry
	confirmer    *booking.Confirmer
	assembler    *planner.Assembler
	metricsStore *metrics.Store
}

// New wires an App from a configured reasoner and fresh in-memory state.
func New(cfg *config.Config, reasoner llm.Reasoner) *App {
	prefs := preferences.NewStore()
	oracle := calendar.NewOracle()
	catalog := search.NewCatalog()
	reg := registry.New()
	metricsStore := metrics.NewStore()

	return &App{
		cfg:          cfg,
		reasoner:     reasoner,
		prefs:        prefs,
		oracle:       oracle,
		catalog:      catalog,
		registry:     reg,
		confirmer:    booking.NewConfirmer(reg),
		assembler:    planner.NewAssembler(reasoner, prefs, oracle, catalog, reg, metricsStore, cfg),
		metricsStore: metricsStore,
	}
}

// Metrics exposes the usage metrics store.
func (a *App) Metrics() *metrics.Store {
	return a.metricsStore
}

// PlanVacation runs the agent loop for one natural-language request. On
// success the returned plan is already registered as the user's live
// proposal.
func (a *App) PlanVacation(ctx context.Context, userID, message string) (*trip.VacationPlan, error) {
	return a.assembler.Assemble(ctx, userID, message, nil)
}

// ConfirmBooking books the referenced proposal for the approving user.
func (a *App) ConfirmBooking(planID, userID string) (trip.Booking, error) {
	return a.confirmer.Confirm(planID, userID)
}

// CancelPlan expires the referenced proposal. Like confirmation, a plan
// owned by someone else is reported as not found.
func (a *App) CancelPlan(planID, userID string) error {
	plan, err := a.registry.Get(planID)
	if err != nil {
		return err
	}
	if plan.UserID != userID {
		return fmt.Errorf("cancel %s: plan belongs to another user: %w", planID, trip.ErrNotFound)
	}
	return a.registry.Cancel(planID)
}

// GetPlan returns a plan by id.
func (a *App) GetPlan(planID string) (trip.VacationPlan, error) {
	return a.registry.Get(planID)
}

// ProposedPlan returns the user's live proposal, if any.
func (a *App) ProposedPlan(userID string) (trip.VacationPlan, bool) {
	return a.registry.GetProposed(userID)
}

// GetPreferences returns the user's preference record, creating defaults
// on first read.
func (a *App) GetPreferences(userID string) trip.Preferences {
	return a.prefs.Get(userID)
}

// UpdatePreferences applies a partial update and returns the full record.
func (a *App) UpdatePreferences(userID string, update preferences.Update) (trip.Preferences, error) {
	return a.prefs.Apply(userID, update)
}

// HealthStatus reports the reasoning backend configuration. Purely
// observational: no state is touched.
type HealthStatus struct {
	Status             string `json:"status"`
	ReasonerConfigured bool   `json:"reasoner_configured"`
	Backend            string `json:"backend"`
	Model              string `json:"model"`
	ReasonerExecutions int    `json:"reasoner_executions"`
}

// Health reports whether a reasoning backend is wired and which model it
// is configured with.
func (a *App) Health() HealthStatus {
	status := HealthStatus{
		Status:             "ok",
		Backend:            a.cfg.ReasonerBackend,
		ReasonerExecutions: a.metricsStore.Count(),
	}
	if a.reasoner != nil {
		status.ReasonerConfigured = true
		status.Model = a.reasoner.Model()
	} else {
		status.Status = "degraded"
	}
	return status
}
