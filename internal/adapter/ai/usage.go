package ai

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/usecase"
)

// LogMeter writes one structured log line per AI call.
type LogMeter struct {
	logger logrus.FieldLogger
}

func NewLogMeter(logger logrus.FieldLogger) *LogMeter { return &LogMeter{logger: logger} }

func (m *LogMeter) RecordUsage(_ context.Context, u entity.AIUsage) {
	m.logger.WithFields(logrus.Fields{
		"operation":         u.Operation,
		"provider":          u.Provider,
		"model":             u.Model,
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
		"total_tokens":      u.TotalTokens,
		"cost":              u.Cost,
		"duration_ms":       u.Duration.Milliseconds(),
		"session_id":        u.SessionID,
	}).Info("ai usage")
}

// OperationTotals aggregates the usage of one operation.
type OperationTotals struct {
	Operation        entity.AIOperation `json:"operation"`
	Calls            int64              `json:"calls"`
	PromptTokens     int64              `json:"prompt_tokens"`
	CompletionTokens int64              `json:"completion_tokens"`
	Cost             float64            `json:"cost"`
}

// Tracker keeps running totals per operation and forwards every record to next.
type Tracker struct {
	mu     sync.Mutex
	totals map[entity.AIOperation]*OperationTotals
	next   usecase.UsageRecorder
}

// NewTracker returns a Tracker; next may be nil.
func NewTracker(next usecase.UsageRecorder) *Tracker {
	if next == nil {
		next = usecase.NopUsageRecorder{}
	}
	return &Tracker{totals: make(map[entity.AIOperation]*OperationTotals), next: next}
}

func (t *Tracker) RecordUsage(ctx context.Context, u entity.AIUsage) {
	t.mu.Lock()
	tot, ok := t.totals[u.Operation]
	if !ok {
		tot = &OperationTotals{Operation: u.Operation}
		t.totals[u.Operation] = tot
	}
	tot.Calls++
	tot.PromptTokens += int64(u.PromptTokens)
	tot.CompletionTokens += int64(u.CompletionTokens)
	tot.Cost += u.Cost
	t.mu.Unlock()

	t.next.RecordUsage(ctx, u)
}

// Snapshot returns the totals sorted by operation name.
func (t *Tracker) Snapshot() []OperationTotals {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OperationTotals, 0, len(t.totals))
	for _, tot := range t.totals {
		out = append(out, *tot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}
