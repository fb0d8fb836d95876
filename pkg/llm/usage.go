package llm

import "sync"

// UsageStats is a point-in-time copy of cumulative usage totals. Later
// queries do not mutate a previously returned snapshot.
type UsageStats struct {
	TokensUsed    int     `json:"tokens_used"`
	RequestsCount int     `json:"requests_count"`
	Cost          float64 `json:"cost"`
}

// TokenRates holds a model's pricing in dollars per million tokens.
type TokenRates struct {
	Input  float64
	Output float64
}

// DefaultModel is the model queried when none is configured.
const DefaultModel = "claude-3-opus-20240229"

// ModelPricings maps model identifiers to their per-million-token rates.
var ModelPricings = map[string]TokenRates{
	"claude-3-opus-20240229":     {Input: 15, Output: 75},
	"claude-3-5-sonnet-20241022": {Input: 3, Output: 15},
	"claude-3-5-haiku-20241022":  {Input: 0.25, Output: 1.25},
}

// ratesFor returns the pricing for a model, falling back to the default
// model's rates for unknown identifiers.
func ratesFor(model string) TokenRates {
	if rates, ok := ModelPricings[model]; ok {
		return rates
	}
	return ModelPricings[DefaultModel]
}

// usageTracker accumulates token counts, request counts, and derived cost
// across completed queries. All counters reset together.
type usageTracker struct {
	mu       sync.Mutex
	tokens   int
	requests int
	cost     float64
}

// record adds one completed query's token counts at the given rates.
func (u *usageTracker) record(usage Usage, rates TokenRates) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tokens += usage.InputTokens + usage.OutputTokens
	u.requests++
	u.cost += float64(usage.InputTokens)/1_000_000*rates.Input +
		float64(usage.OutputTokens)/1_000_000*rates.Output
}

// snapshot returns a copy of the current totals.
func (u *usageTracker) snapshot() UsageStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UsageStats{
		TokensUsed:    u.tokens,
		RequestsCount: u.requests,
		Cost:          u.cost,
	}
}

// reset zeroes all counters atomically relative to concurrent snapshots.
func (u *usageTracker) reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tokens = 0
	u.requests = 0
	u.cost = 0
}
