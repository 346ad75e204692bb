package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlens/core/internal/modules/provider"
)

func TestEstimateCostKnownModel(t *testing.T) {
	cost := EstimateCost("gpt-4o", &provider.Usage{InputTokens: 1000, OutputTokens: 2000})
	require.NotNil(t, cost)
	assert.InDelta(t, 0.0025, cost.InputUSD, 1e-9)
	assert.InDelta(t, 0.02, cost.OutputUSD, 1e-9)
	assert.InDelta(t, 0.0225, cost.TotalUSD, 1e-9)
}

func TestEstimateCostMillionTokens(t *testing.T) {
	cost := EstimateCost("claude-sonnet-4-20250514", &provider.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
	require.NotNil(t, cost)
	assert.InDelta(t, 3.0, cost.InputUSD, 1e-9)
	assert.InDelta(t, 15.0, cost.OutputUSD, 1e-9)
}

func TestEstimateCostUnknownModel(t *testing.T) {
	assert.Nil(t, EstimateCost("some-local-model", &provider.Usage{InputTokens: 10}))
}

func TestEstimateCostNoUsage(t *testing.T) {
	assert.Nil(t, EstimateCost("gpt-4o", nil))
}
