package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-vacation-planner/internal/calendar"
	"ai-vacation-planner/internal/config"
	"ai-vacation-planner/internal/llm"
	"ai-vacation-planner/internal/metrics"
	"ai-vacation-planner/internal/preferences"
	"ai-vacation-planner/internal/registry"
	"ai-vacation-planner/internal/search"
	"ai-vacation-planner/internal/trip"
)

const systemPrompt = `You are a vacation planning assistant that proposes itineraries; you do NOT perform real-world bookings.

You have exactly these tools available: get_preferences, check_availability, search_flights, search_hotels, finalize_plan. Never invent other tools.

For a normal planning request:
1. Call get_preferences once at the beginning.
2. If the user did not give exact dates, call check_availability once to pick a free date range.
3. Call search_flights once to pick a flight, and search_hotels once to pick a hotel.
4. Call finalize_plan exactly once with the complete day-by-day itinerary. The first day carries the flight segment, every day carries its share of the hotel cost, and activities should reflect the user's interests. Dates must be contiguous and every cost accurate.

If information is missing (no destination, no duration or dates), call no tools and reply with a short follow-up question instead.

Stay within the user's budgets. If a tool result shows the requested trip cannot fit the budget or the calendar, say so in plain text rather than forcing a plan.`

// Assembler is the agent loop: it drives the reasoning model through the
// tool set for a bounded number of rounds and independently re-validates
// the finalize candidate before anything is committed.
type Assembler struct {
	reasoner llm.Reasoner
	prefs    *preferences.Store
	oracle   *calendar.Oracle
	catalog  *search.Catalog
	registry *registry.Registry
	metrics  *metrics.Store

	maxRounds   int
	maxRepairs  int
	callTimeout time.Duration
}

// NewAssembler wires the assembler with its tool adapters and loop bounds.
func NewAssembler(
	reasoner llm.Reasoner,
	prefs *preferences.Store,
	oracle *calendar.Oracle,
	catalog *search.Catalog,
	reg *registry.Registry,
	metricsStore *metrics.Store,
	cfg *config.Config,
) *Assembler {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = config.DefaultMaxRounds
	}
	maxRepairs := cfg.MaxRepairs
	if maxRepairs < 0 {
		maxRepairs = config.DefaultMaxRepairs
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = config.DefaultCallTimeout
	}
	return &Assembler{
		reasoner:    reasoner,
		prefs:       prefs,
		oracle:      oracle,
		catalog:     catalog,
		registry:    reg,
		metrics:     metricsStore,
		maxRounds:   maxRounds,
		maxRepairs:  maxRepairs,
		callTimeout: callTimeout,
	}
}

// Assemble turns a natural-language request into a registered PROPOSED
// plan. On failure it returns one of the taxonomy errors:
// ClarificationError, ValidationError, or ErrUpstreamUnavailable. The
// registry write is the only side effect, and it happens last.
func (a *Assembler) Assemble(ctx context.Context, userID, request string, history []llm.Message) (*trip.VacationPlan, error) {
	messages := append(append([]llm.Message(nil), history...), llm.Message{Role: llm.RoleUser, Text: request})
	tools := toolSchema()
	repairsUsed := 0

	for round := 0; round < a.maxRounds; round++ {
		decision, err := a.reasonWithRetry(ctx, messages, tools)
		if err != nil {
			return nil, err
		}

		if decision.Call == nil {
			// The model answered in text: it needs more information
			// from the user, or concluded the request cannot be met.
			return nil, &trip.ClarificationError{Question: decision.Text}
		}

		if decision.Call.Name == toolFinalizePlan {
			var cand planCandidate
			violations := []string{}
			if err := decodeArgs(decision.Call.Args, &cand); err != nil {
				violations = append(violations, fmt.Sprintf("finalize_plan arguments are malformed: %v", err))
			}

			prefs := a.prefs.Get(userID)
			if len(violations) == 0 {
				violations = validateCandidate(cand, prefs)
			}
			if len(violations) == 0 {
				// Re-check availability straight against the oracle; the
				// model's own claims about the calendar are not trusted.
				rng := trip.DateRange{Start: cand.Days[0].Date, End: cand.Days[len(cand.Days)-1].Date}
				if !a.oracle.IsFree(userID, rng) {
					violations = append(violations, fmt.Sprintf(
						"the user is not free between %s and %s; call check_availability and pick a free range", rng.Start, rng.End))
				}
			}

			if len(violations) == 0 {
				// Registry insertion is the sole commit point; a cancelled
				// request must not leave a proposal behind.
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				plan := buildPlan(userID, cand, prefs)
				planID := a.registry.Propose(plan)
				committed, err := a.registry.Get(planID)
				if err != nil {
					return nil, fmt.Errorf("failed to read back proposed plan: %w", err)
				}
				log.Printf("Proposed plan %s for user %s: %s, %d days, %.2f %s",
					committed.ID, userID, committed.Destination, len(committed.Days), committed.TotalCost, committed.Currency)
				return &committed, nil
			}

			if repairsUsed < a.maxRepairs {
				repairsUsed++
				log.Printf("Plan candidate for user %s rejected, starting repair round: %s", userID, strings.Join(violations, "; "))
				messages = append(messages,
					llm.Message{Role: llm.RoleModel, Call: decision.Call},
					llm.Message{Role: llm.RoleTool, Result: &llm.ToolResult{
						Name: toolFinalizePlan,
						Err:  "plan rejected: " + strings.Join(violations, "; ") + ". Fix these problems and call finalize_plan again.",
					}},
				)
				continue
			}
			return nil, &trip.ValidationError{Violations: violations}
		}

		result := a.executeTool(userID, decision.Call)
		messages = append(messages,
			llm.Message{Role: llm.RoleModel, Call: decision.Call},
			llm.Message{Role: llm.RoleTool, Result: &result},
		)
	}

	return nil, &trip.ClarificationError{
		Question: "I could not settle on a complete plan. Could you restate the destination, dates, and budget?",
	}
}

// reasonWithRetry bounds each reasoner call with a timeout and allows one
// retry on transient failure before surfacing ErrUpstreamUnavailable.
func (a *Assembler) reasonWithRetry(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Decision, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
		start := time.Now()
		decision, err := a.reasoner.Reason(callCtx, systemPrompt, messages, tools)
		cancel()

		if err == nil {
			a.metrics.Record(metrics.MapUsage("vacation-planner", decision.Usage, time.Since(start)))
			return decision, nil
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return llm.Decision{}, ctx.Err()
		}
		lastErr = err
		log.Printf("Reasoner call failed (attempt %d): %v", attempt+1, err)
	}
	return llm.Decision{}, fmt.Errorf("%w: %v", trip.ErrUpstreamUnavailable, lastErr)
}
