package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/looplj/ai-gateway-agent/gateway/provider"
)

func within(t *testing.T, got, want, tolerance float64) {
	t.Helper()
	assert.InDelta(t, want, got, tolerance)
}

func TestEstimateCostGPT4(t *testing.T) {
	within(t, EstimateCost(provider.OpenAI, "gpt-4", 1000), 0.03, 0.001)
}

func TestEstimateCostClaudeOpus(t *testing.T) {
	within(t, EstimateCost(provider.Anthropic, "claude-3-opus", 1000), 0.015, 0.001)
}

func TestEstimateCostGPT35(t *testing.T) {
	within(t, EstimateCost(provider.OpenAI, "gpt-3.5-turbo", 1000), 0.0005, 0.0001)
}

func TestEstimateCostGPT4oBeatsGenericGPT4(t *testing.T) {
	within(t, EstimateCost(provider.OpenAI, "gpt-4o-mini", 1000), 0.005, 0.0001)
}

func TestEstimateCostGPT4TurboBeatsGenericGPT4(t *testing.T) {
	within(t, EstimateCost(provider.OpenAI, "gpt-4-turbo-2024-04-09", 1000), 0.01, 0.0001)
}

func TestEstimateCostAzureFlatRate(t *testing.T) {
	within(t, EstimateCost(provider.Azure, "gpt-4", 1000), 0.01, 0.0001)
}

func TestEstimateCostUnknownModelDefault(t *testing.T) {
	within(t, EstimateCost(provider.OpenAI, "some-future-model", 1000), 0.01, 0.0001)
}

func TestEstimateTokens(t *testing.T) {
	sys := "be nice"
	req := &provider.Request{
		Messages: []provider.Message{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi there"},
		},
		System: &sys,
	}

	// chars: user(4)+hello(5) + assistant(9)+hi there(8) + be nice(7) = 33
	// ceil(33/4) = 9
	assert.EqualValues(t, 9, EstimateTokens(req))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "0.030000", FormatCost(0.03))
}
