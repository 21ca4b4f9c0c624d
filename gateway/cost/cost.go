// Package cost estimates token usage and a rough per-request dollar cost
// from the canonical request model.
package cost

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/looplj/ai-gateway-agent/gateway/provider"
)

// EstimateTokens approximates token count at roughly 4 characters per
// token, counting each message's role and content plus the system
// prompt.
func EstimateTokens(req *provider.Request) uint32 {
	var totalChars int

	for _, m := range req.Messages {
		totalChars += len(m.Content) + len(m.Role)
	}

	if req.System != nil {
		totalChars += len(*req.System)
	}

	return uint32(math.Ceil(float64(totalChars) / 4.0))
}

// costTable is a rough, ordered substring match over model names;
// more specific names (gpt-4o, gpt-4-turbo) must be checked before the
// generic "gpt-4" entry they would otherwise also match.
type costRow struct {
	provider provider.Provider
	contains string
	perK     float64
}

var costTable = []costRow{
	{provider.OpenAI, "gpt-4o", 0.005},
	{provider.OpenAI, "gpt-4-turbo", 0.01},
	{provider.OpenAI, "gpt-4", 0.03},
	{provider.OpenAI, "gpt-3.5", 0.0005},
	{provider.Anthropic, "opus", 0.015},
	{provider.Anthropic, "sonnet", 0.003},
	{provider.Anthropic, "haiku", 0.00025},
}

const defaultCostPer1K = 0.01

// EstimateCost returns a rough dollar estimate for tokens under the given
// provider and model, using simplified per-1K-token input pricing. Azure
// and any unrecognized provider/model pairing fall back to a flat
// GPT-4-class default.
func EstimateCost(p provider.Provider, model string, tokens uint32) float64 {
	perK := defaultCostPer1K

	if p != provider.Azure && model != "" {
		for _, row := range costTable {
			if row.provider == p && strings.Contains(model, row.contains) {
				perK = row.perK
				break
			}
		}
	}

	cost := decimal.NewFromFloat(float64(tokens)).
		Div(decimal.NewFromInt(1000)).
		Mul(decimal.NewFromFloat(perK))

	result, _ := cost.Float64()

	return result
}

// FormatCost renders a cost value the way the cost headers expect:
// fixed at 6 decimal places.
func FormatCost(cost float64) string {
	return decimal.NewFromFloat(cost).StringFixed(6)
}
