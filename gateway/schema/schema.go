// Package schema validates request bodies against the Draft-07 JSON
// Schemas for the OpenAI chat, OpenAI legacy completion, and Anthropic
// messages request shapes.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/looplj/ai-gateway-agent/gateway/provider"
)

// Result is the outcome of validating one request body.
type Result struct {
	Valid  bool
	Errors []string
}

func invalid(errs ...string) Result { return Result{Valid: false, Errors: errs} }

var (
	openAIChatResolved        = sync.OnceValues(func() (*jsonschema.Resolved, error) { return compile(openAIChatSchema) })
	openAICompletionResolved  = sync.OnceValues(func() (*jsonschema.Resolved, error) { return compile(openAICompletionSchema) })
	anthropicMessagesResolved = sync.OnceValues(func() (*jsonschema.Resolved, error) { return compile(anthropicMessagesSchema) })
)

func compile(raw string) (*jsonschema.Resolved, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}

	return s.Resolve(nil)
}

func validateWith(resolved *jsonschema.Resolved, resolveErr error, body string) Result {
	if resolveErr != nil {
		return invalid(fmt.Sprintf("schema compile error: %s", resolveErr))
	}

	var instance any
	if err := json.Unmarshal([]byte(body), &instance); err != nil {
		return invalid(fmt.Sprintf("Invalid JSON: %s", err))
	}

	if err := resolved.Validate(instance); err != nil {
		return invalid(formatValidationError(err)...)
	}

	return Result{Valid: true}
}

// formatValidationError returns one entry per non-empty line of the
// validator's error text, or the whole text if it has no such line. No
// instance pointer is added here; an entry carries a location only if the
// library's own message does.
func formatValidationError(err error) []string {
	lines := strings.Split(err.Error(), "\n")
	errs := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			errs = append(errs, line)
		}
	}

	if len(errs) == 0 {
		errs = append(errs, err.Error())
	}

	return errs
}

// ValidateOpenAIChat validates body against the OpenAI chat-completion schema.
func ValidateOpenAIChat(body string) Result {
	resolved, err := openAIChatResolved()
	return validateWith(resolved, err, body)
}

// ValidateOpenAICompletion validates body against the OpenAI legacy
// completion schema.
func ValidateOpenAICompletion(body string) Result {
	resolved, err := openAICompletionResolved()
	return validateWith(resolved, err, body)
}

// ValidateAnthropicMessages validates body against the Anthropic messages schema.
func ValidateAnthropicMessages(body string) Result {
	resolved, err := anthropicMessagesResolved()
	return validateWith(resolved, err, body)
}

// Validate auto-detects the request shape for the given provider and
// validates against the matching schema. For Unknown, a request with a
// "messages" field and a "max_tokens" field whose model does not start
// with "gpt" is treated as Anthropic-shaped; otherwise OpenAI chat is
// tried, falling back to the legacy completion shape when "prompt" is
// present.
func Validate(p provider.Provider, body string) Result {
	var value map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &value); err != nil {
		return invalid(fmt.Sprintf("Invalid JSON: %s", err))
	}

	_, hasMessages := value["messages"]
	_, hasPrompt := value["prompt"]

	switch p {
	case provider.OpenAI, provider.Azure:
		switch {
		case hasMessages:
			return ValidateOpenAIChat(body)
		case hasPrompt:
			return ValidateOpenAICompletion(body)
		default:
			return invalid("Missing required field: 'messages' or 'prompt'")
		}
	case provider.Anthropic:
		return ValidateAnthropicMessages(body)
	default:
		switch {
		case hasMessages:
			if looksAnthropic(value) {
				return ValidateAnthropicMessages(body)
			}

			return ValidateOpenAIChat(body)
		case hasPrompt:
			return ValidateOpenAICompletion(body)
		default:
			return invalid("Unable to determine request format")
		}
	}
}

func looksAnthropic(value map[string]json.RawMessage) bool {
	if _, hasMaxTokens := value["max_tokens"]; !hasMaxTokens {
		return false
	}

	var model string
	if raw, ok := value["model"]; ok {
		_ = json.Unmarshal(raw, &model)
	}

	return !strings.HasPrefix(model, "gpt")
}
