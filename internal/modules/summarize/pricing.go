package summarize

import "github.com/paperlens/core/internal/modules/provider"

// modelPricing holds USD per million tokens.
type modelPricing struct {
	Input  float64
	Output float64
}

var pricing = map[string]modelPricing{
	"claude-sonnet-4-20250514":  {Input: 3, Output: 15},
	"claude-opus-4-20250514":    {Input: 15, Output: 75},
	"claude-3-5-haiku-20241022": {Input: 0.8, Output: 4},
	"gpt-4o":                    {Input: 2.5, Output: 10},
	"gpt-4o-mini":               {Input: 0.15, Output: 0.6},
	"gpt-4-turbo":               {Input: 10, Output: 30},
	"o1":                        {Input: 15, Output: 60},
	"o1-mini":                   {Input: 3, Output: 12},
}

// Cost is the estimated spend for one generation, in USD.
type Cost struct {
	InputUSD  float64 `json:"inputUsd"`
	OutputUSD float64 `json:"outputUsd"`
	TotalUSD  float64 `json:"totalUsd"`
}

// EstimateCost prices the reported token usage against the per-model
// rate table. Returns nil when usage is absent or the model is unknown.
func EstimateCost(modelID string, usage *provider.Usage) *Cost {
	if usage == nil {
		return nil
	}
	rates, ok := pricing[modelID]
	if !ok {
		return nil
	}
	in := float64(usage.InputTokens) / 1_000_000 * rates.Input
	out := float64(usage.OutputTokens) / 1_000_000 * rates.Output
	return &Cost{InputUSD: in, OutputUSD: out, TotalUSD: in + out}
}
