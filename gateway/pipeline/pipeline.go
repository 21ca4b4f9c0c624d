// Package pipeline orchestrates the ordered inspection checks over a
// parsed request and produces the verdict handed back to the collaborator.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/looplj/ai-gateway-agent/gateway/config"
	"github.com/looplj/ai-gateway-agent/gateway/cost"
	"github.com/looplj/ai-gateway-agent/gateway/detect"
	"github.com/looplj/ai-gateway-agent/gateway/protocol"
	"github.com/looplj/ai-gateway-agent/gateway/provider"
	"github.com/looplj/ai-gateway-agent/gateway/ratelimit"
	"github.com/looplj/ai-gateway-agent/gateway/schema"
	"github.com/looplj/ai-gateway-agent/internal/log"
)

// requestState accumulates the body chunks of one in-flight request,
// keyed by correlation ID between the headers and body-chunk events.
type requestState struct {
	provider provider.Provider
	chunks   [][]byte
	clientID string
}

// Orchestrator holds the live policy, the rate limiter, and the three
// always-compiled detectors, and tracks in-flight per-correlation state.
type Orchestrator struct {
	cfg     atomic.Pointer[config.Config]
	limiter atomic.Pointer[ratelimit.RateLimiter]

	promptInjection *detect.PromptInjection
	jailbreak       *detect.Jailbreak
	pii             *detect.PII

	mu       sync.Mutex
	requests map[string]*requestState
}

// New builds an Orchestrator under the given initial policy.
func New(cfg config.Config) *Orchestrator {
	o := &Orchestrator{
		promptInjection: detect.NewPromptInjection(),
		jailbreak:       detect.NewJailbreak(),
		pii:             detect.NewPII(),
		requests:        make(map[string]*requestState),
	}

	o.cfg.Store(&cfg)
	o.limiter.Store(ratelimit.New(rateLimitConfig(cfg)))

	return o
}

func rateLimitConfig(cfg config.Config) ratelimit.Config {
	return ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitRequests,
		TokensPerMinute:   cfg.RateLimitTokens,
	}
}

// Reconfigure replaces the live policy and rate limiter wholesale; every
// client's rate-limit window is reset by the replacement.
func (o *Orchestrator) Reconfigure(cfg config.Config) {
	o.cfg.Store(&cfg)
	o.limiter.Store(ratelimit.New(rateLimitConfig(cfg)))
}

func (o *Orchestrator) config() config.Config {
	return *o.cfg.Load()
}

// OnConfigure parses a configure-event payload and applies it, falling
// back to the documented defaults on a malformed body.
func (o *Orchestrator) OnConfigure(event protocol.ConfigureEvent) protocol.Response {
	cfg, err := config.Parse(event.Config)
	if err != nil {
		log.Warn(nil, "failed to parse gateway config, using defaults", log.String("agent_id", event.AgentID), log.Cause(err))
	}

	o.Reconfigure(cfg)

	return protocol.Allow()
}

// OnHeaders opens per-correlation state for a request, detecting its
// provider from the request path and headers.
func (o *Orchestrator) OnHeaders(event protocol.RequestHeadersEvent) protocol.Response {
	prov := provider.DetectProvider(event.URI, event.Headers)

	o.mu.Lock()
	o.requests[event.CorrelationID] = &requestState{provider: prov, clientID: event.ClientIP}
	o.mu.Unlock()

	return protocol.Allow()
}

// OnBodyChunk accumulates one body segment and, on the final chunk,
// extracts the request state and runs the full inspection pipeline.
func (o *Orchestrator) OnBodyChunk(event protocol.RequestBodyChunkEvent) protocol.Response {
	o.mu.Lock()

	state, ok := o.requests[event.CorrelationID]
	if !ok {
		o.mu.Unlock()
		return protocol.Allow()
	}

	state.chunks = append(state.chunks, event.Data)

	if !event.IsLast {
		o.mu.Unlock()
		return protocol.Allow()
	}

	delete(o.requests, event.CorrelationID)
	o.mu.Unlock()

	return o.processBody(state)
}

func (o *Orchestrator) processBody(state *requestState) protocol.Response {
	cfg := o.config()

	var body strings.Builder
	for _, chunk := range state.chunks {
		body.Write(chunk)
	}

	bodyStr := body.String()
	if !isValidUTF8(bodyStr) {
		log.Warn(nil, "invalid UTF-8 in request body")

		if cfg.FailOpen {
			return protocol.Allow().WithAudit(protocol.AuditMetadata{
				Tags:        []string{"ai-gateway", "error"},
				ReasonCodes: []string{"INVALID_UTF8"},
			})
		}

		return protocol.Blocked(400, "Invalid request body").WithAudit(protocol.AuditMetadata{
			Tags:        []string{"ai-gateway", "blocked"},
			ReasonCodes: []string{"INVALID_UTF8"},
		})
	}

	if cfg.SchemaValidationEnabled {
		result := schema.Validate(state.provider, bodyStr)
		if !result.Valid {
			errorsStr := strings.Join(result.Errors, "; ")
			log.Warn(nil, "schema validation failed", log.String("errors", errorsStr))

			if cfg.BlockMode {
				return protocol.Blocked(400, "Schema validation failed").
					AddResponseHeader("X-AI-Gateway-Schema-Valid", "false").
					AddResponseHeader("X-AI-Gateway-Schema-Errors", errorsStr).
					WithAudit(protocol.AuditMetadata{
						Tags:        []string{"ai-gateway", "blocked", "schema-invalid"},
						ReasonCodes: []string{"SCHEMA_VALIDATION_FAILED"},
					})
			}
		}
	}

	req, ok := provider.Parse(state.provider, bodyStr)
	if !ok {
		log.Debug(nil, "not a recognized AI request format")
		return protocol.Allow().WithAudit(protocol.AuditMetadata{Tags: []string{"ai-gateway"}})
	}

	return o.checkRequest(cfg, req, state.provider, bodyStr, state.clientID)
}

func isValidUTF8(s string) bool {
	return strings.ToValidUTF8(s, "") == s
}

// checkRequest runs the ordered policy checks over a parsed request and
// produces the final verdict.
func (o *Orchestrator) checkRequest(cfg config.Config, req *provider.Request, prov provider.Provider, body, clientIP string) protocol.Response {
	response := protocol.Allow()

	blocked := false
	blockReason := ""
	tags := []string{"ai-gateway"}
	var reasonCodes []string

	response = response.AddRequestHeader("X-AI-Gateway-Provider", prov.String())
	tags = append(tags, "provider:"+prov.String())

	if req.Model != nil {
		response = response.AddRequestHeader("X-AI-Gateway-Model", *req.Model)
		tags = append(tags, "model:"+*req.Model)
	}

	if cfg.SchemaValidationEnabled {
		result := schema.Validate(prov, body)
		response = response.AddRequestHeader("X-AI-Gateway-Schema-Valid", strconv.FormatBool(result.Valid))

		if result.Valid {
			tags = append(tags, "schema-valid")
		}
	}

	if len(cfg.AllowedModels) > 0 && req.Model != nil {
		if !modelAllowed(*req.Model, cfg.AllowedModels) {
			blocked = true
			blockReason = "model-not-allowed"
			reasonCodes = append(reasonCodes, "MODEL_NOT_ALLOWED")
			log.Info(nil, "model not in allowlist", log.String("model", *req.Model))
		}
	}

	if cfg.MaxTokensPerRequest != nil && req.MaxTokens != nil && *req.MaxTokens > *cfg.MaxTokensPerRequest {
		blocked = true
		blockReason = "token-limit-exceeded"
		reasonCodes = append(reasonCodes, "TOKEN_LIMIT_EXCEEDED")
	}

	estimatedTokens := cost.EstimateTokens(req)
	response = response.AddRequestHeader("X-AI-Gateway-Tokens-Estimated", strconv.FormatUint(uint64(estimatedTokens), 10))

	if cfg.AddCostHeaders {
		model := ""
		if req.Model != nil {
			model = *req.Model
		}

		estimated := cost.EstimateCost(prov, model, estimatedTokens)
		response = response.AddRequestHeader("X-AI-Gateway-Cost-Estimated", cost.FormatCost(estimated))
	}

	if cfg.RateLimitRequests > 0 || cfg.RateLimitTokens > 0 {
		rateResult := o.limiter.Load().CheckAndRecord(clientIP, estimatedTokens)

		if cfg.RateLimitRequests > 0 {
			response = response.
				AddResponseHeader("X-RateLimit-Limit-Requests", strconv.FormatUint(uint64(rateResult.RequestLimit), 10)).
				AddResponseHeader("X-RateLimit-Remaining-Requests", strconv.FormatUint(uint64(saturatingSub(rateResult.RequestLimit, rateResult.RequestCount)), 10))
		}

		if cfg.RateLimitTokens > 0 {
			response = response.
				AddResponseHeader("X-RateLimit-Limit-Tokens", strconv.FormatUint(uint64(rateResult.TokenLimit), 10)).
				AddResponseHeader("X-RateLimit-Remaining-Tokens", strconv.FormatUint(uint64(saturatingSub(rateResult.TokenLimit, rateResult.TokenCount)), 10))
		}

		response = response.AddResponseHeader("X-RateLimit-Reset", strconv.FormatUint(rateResult.ResetSeconds, 10))

		if !rateResult.Allowed {
			limitType := "unknown"

			switch rateResult.ExceededLimit {
			case ratelimit.ExceededRequests:
				limitType = "requests"
			case ratelimit.ExceededTokens:
				limitType = "tokens"
			}

			log.Warn(nil, "rate limit exceeded", log.String("client_ip", clientIP), log.String("limit_type", limitType))

			tags = append(tags, "rate-limited")
			reasonCodes = append(reasonCodes, "RATE_LIMIT_EXCEEDED")

			blockedBody := "Too Many Requests"
			response.Allow = false
			response.Block = &protocol.Block{Status: 429, Body: &blockedBody}

			return response.
				AddResponseHeader("X-RateLimit-Remaining-Requests", "0").
				AddResponseHeader("Retry-After", strconv.FormatUint(rateResult.ResetSeconds, 10)).
				WithAudit(protocol.AuditMetadata{Tags: tags, ReasonCodes: reasonCodes})
		}
	}

	allContent := req.AllContent()

	if cfg.PromptInjectionEnabled && !blocked {
		if detection, ok := o.promptInjection.DetectAny(allContent); ok {
			log.Warn(nil, "prompt injection detected", log.String("detection", detection))
			tags = append(tags, "detected:prompt-injection")
			reasonCodes = append(reasonCodes, "PROMPT_INJECTION")

			if cfg.BlockMode {
				blocked = true
				blockReason = detection
			}
		}
	}

	if cfg.JailbreakDetectionEnabled && !blocked {
		if detection, ok := o.jailbreak.DetectAny(allContent); ok {
			log.Warn(nil, "jailbreak attempt detected", log.String("detection", detection))
			tags = append(tags, "detected:jailbreak")
			reasonCodes = append(reasonCodes, "JAILBREAK_ATTEMPT")

			if cfg.BlockMode {
				blocked = true
				blockReason = detection
			}
		}
	}

	if cfg.PIIDetectionEnabled {
		var piiTypes []detect.PIIType

		seen := make(map[detect.PIIType]bool)

		for _, content := range allContent {
			for _, t := range o.pii.DetectTypes(content) {
				if !seen[t] {
					seen[t] = true
					piiTypes = append(piiTypes, t)
				}
			}
		}

		if len(piiTypes) > 0 {
			names := make([]string, len(piiTypes))
			for i, t := range piiTypes {
				names[i] = t.String()
			}

			piiStr := strings.Join(names, ",")

			log.Warn(nil, "PII detected", log.String("types", piiStr))
			response = response.AddRequestHeader("X-AI-Gateway-PII-Detected", piiStr)
			tags = append(tags, "pii:"+piiStr)
			reasonCodes = append(reasonCodes, "PII_DETECTED")

			if cfg.PIIAction == config.PIIActionBlock && cfg.BlockMode {
				blocked = true
				blockReason = fmt.Sprintf("pii-detected:%s", piiStr)
			}
		}
	}

	if blocked {
		tags = append(tags, "blocked")
		log.Info(nil, "request blocked", log.String("reason", blockReason))

		blockedBody := "Forbidden"
		response.Allow = false
		response.Block = &protocol.Block{Status: 403, Body: &blockedBody}

		return response.
			AddResponseHeader("X-AI-Gateway-Blocked", "true").
			AddResponseHeader("X-AI-Gateway-Blocked-Reason", blockReason).
			WithAudit(protocol.AuditMetadata{Tags: tags, ReasonCodes: reasonCodes})
	}

	return response.WithAudit(protocol.AuditMetadata{Tags: tags, ReasonCodes: reasonCodes})
}

func modelAllowed(model string, allowed []string) bool {
	for _, a := range allowed {
		if strings.Contains(model, a) || strings.Contains(a, model) {
			return true
		}
	}

	return false
}

func saturatingSub(a, b uint32) uint32 {
	if b >= a {
		return 0
	}

	return a - b
}
