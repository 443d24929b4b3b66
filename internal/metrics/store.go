package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-vacation-planner/internal/shared"
)

// ExecutionMetric records metadata for a single reasoner execution.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Store keeps execution metrics in memory. Metrics are observational only
// and do not survive a restart.
type Store struct {
	mu      sync.Mutex
	records []ExecutionMetric
}

// NewStore creates an empty metrics store.
func NewStore() *Store {
	return &Store{}
}

// Record saves a metric.
func (s *Store) Record(m ExecutionMetric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, m)
}

// RecordMeta records a metric directly from shared.AgentMeta.
func (s *Store) RecordMeta(meta shared.AgentMeta) {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return
	}
	s.Record(MapUsage(meta.AgentName, meta.Usage, meta.Latency))
}

// MapUsage converts token usage into an ExecutionMetric.
func MapUsage(agentName string, usage shared.TokenUsage, latency time.Duration) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
	}
}

// Count returns the number of recorded executions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecutions int
}

// GetDailyUsage aggregates usage for the last N days, oldest first.
func (s *Store) GetDailyUsage(days int) []DailyUsage {
	since := time.Now().UTC().AddDate(0, 0, -days)

	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[string]*DailyUsage)
	for _, m := range s.records {
		if m.Timestamp.Before(since) {
			continue
		}
		key := m.Timestamp.Format("2006-01-02")
		du, ok := byDay[key]
		if !ok {
			du = &DailyUsage{Date: key}
			byDay[key] = du
		}
		du.TotalPrompt += m.PromptTokens
		du.TotalCompletion += m.CompletionTokens
		du.TotalExecutions++
	}

	out := make([]DailyUsage, 0, len(byDay))
	for _, du := range byDay {
		out = append(out, *du)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Summary renders a short usage report for the admin command.
func (s *Store) Summary(days int) string {
	usage := s.GetDailyUsage(days)
	if len(usage) == 0 {
		return fmt.Sprintf("No reasoner executions recorded in the last %d days.", days)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reasoner usage, last %d days:\n", days)
	for _, du := range usage {
		fmt.Fprintf(&b, "%s: %d runs, %d prompt / %d completion tokens\n",
			du.Date, du.TotalExecutions, du.TotalPrompt, du.TotalCompletion)
	}
	return b.String()
}
