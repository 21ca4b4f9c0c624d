// Package config defines the AI Gateway agent's runtime policy and its
// wire representation, as delivered by an on_configure event.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PIIAction names what happens when PII is detected in request content.
type PIIAction int

const (
	PIIActionLog PIIAction = iota
	PIIActionBlock
	PIIActionRedact
)

func (a PIIAction) String() string {
	switch a {
	case PIIActionBlock:
		return "block"
	case PIIActionRedact:
		return "redact"
	default:
		return "log"
	}
}

// ParsePIIAction parses a case-insensitive action name. Unrecognized
// input is an error; callers that must never fail should fall back to
// PIIActionLog, matching the wire-config parsing behavior below.
func ParsePIIAction(s string) (PIIAction, error) {
	switch strings.ToLower(s) {
	case "block":
		return PIIActionBlock, nil
	case "redact":
		return PIIActionRedact, nil
	case "log":
		return PIIActionLog, nil
	default:
		return 0, fmt.Errorf("invalid PII action: %s", s)
	}
}

// Config is the resolved runtime policy the pipeline operates under.
type Config struct {
	PromptInjectionEnabled    bool
	PIIDetectionEnabled       bool
	PIIAction                 PIIAction
	JailbreakDetectionEnabled bool
	SchemaValidationEnabled   bool
	MaxTokensPerRequest       *uint32
	AddCostHeaders            bool
	AllowedModels             []string
	BlockMode                 bool
	FailOpen                  bool
	RateLimitRequests         uint32
	RateLimitTokens           uint32
}

// Default is the policy applied when no configuration has been received
// yet, and the fallback applied when a received configuration fails to
// parse: every detector enabled except schema validation, block mode on,
// fail-open off.
func Default() Config {
	return Config{
		PromptInjectionEnabled:    true,
		PIIDetectionEnabled:       true,
		PIIAction:                 PIIActionLog,
		JailbreakDetectionEnabled: true,
		SchemaValidationEnabled:   false,
		AddCostHeaders:            true,
		BlockMode:                 true,
		FailOpen:                  false,
	}
}

// JSON is the kebab-case wire shape delivered in a configure event body.
// Pointer fields distinguish "absent" (apply the documented default)
// from an explicit false/zero.
type JSON struct {
	PromptInjectionEnabled    *bool    `json:"prompt-injection-enabled"`
	PIIDetectionEnabled       *bool    `json:"pii-detection-enabled"`
	PIIAction                 string   `json:"pii-action"`
	JailbreakDetectionEnabled *bool    `json:"jailbreak-detection-enabled"`
	SchemaValidationEnabled   bool     `json:"schema-validation-enabled"`
	MaxTokensPerRequest       *uint32  `json:"max-tokens-per-request"`
	AddCostHeaders            *bool    `json:"add-cost-headers"`
	AllowedModels             []string `json:"allowed-models"`
	BlockMode                 *bool    `json:"block-mode"`
	FailOpen                  bool     `json:"fail-open"`
	RateLimitRequests         uint32   `json:"rate-limit-requests"`
	RateLimitTokens           uint32   `json:"rate-limit-tokens"`
}

// ToConfig resolves the wire shape's pointer-defaulted fields and
// converts the PII action string, falling back to PIIActionLog on an
// unrecognized value rather than failing the whole configuration.
func (j JSON) ToConfig() Config {
	action, err := ParsePIIAction(j.PIIAction)
	if err != nil {
		action = PIIActionLog
	}

	return Config{
		PromptInjectionEnabled:    boolOr(j.PromptInjectionEnabled, true),
		PIIDetectionEnabled:       boolOr(j.PIIDetectionEnabled, true),
		PIIAction:                 action,
		JailbreakDetectionEnabled: boolOr(j.JailbreakDetectionEnabled, true),
		SchemaValidationEnabled:   j.SchemaValidationEnabled,
		MaxTokensPerRequest:       j.MaxTokensPerRequest,
		AddCostHeaders:            boolOr(j.AddCostHeaders, true),
		AllowedModels:             j.AllowedModels,
		BlockMode:                 boolOr(j.BlockMode, true),
		FailOpen:                  j.FailOpen,
		RateLimitRequests:         j.RateLimitRequests,
		RateLimitTokens:           j.RateLimitTokens,
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}

	return *p
}

// Parse decodes a configure event body. A malformed body falls back to
// Default() rather than erroring, since a misconfigured agent should stay
// safe rather than refuse to start; the error is still returned so the
// caller can log it.
func Parse(body []byte) (Config, error) {
	var wire JSON
	if err := json.Unmarshal(body, &wire); err != nil {
		return Default(), fmt.Errorf("parse gateway config: %w", err)
	}

	if wire.PIIAction == "" {
		wire.PIIAction = "log"
	}

	return wire.ToConfig(), nil
}
