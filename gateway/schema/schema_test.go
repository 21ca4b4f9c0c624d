package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplj/ai-gateway-agent/gateway/provider"
)

func TestValidateOpenAIChatValid(t *testing.T) {
	body := `{"model": "gpt-4", "messages": [{"role": "user", "content": "Hello"}]}`
	result := ValidateOpenAIChat(body)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestValidateOpenAIChatMissingModel(t *testing.T) {
	body := `{"messages": [{"role": "user", "content": "Hello"}]}`
	result := ValidateOpenAIChat(body)
	require.False(t, result.Valid)
	assert.Contains(t, strings.Join(result.Errors, "\n"), "model")
}

func TestValidateOpenAIChatMissingMessages(t *testing.T) {
	body := `{"model": "gpt-4"}`
	result := ValidateOpenAIChat(body)
	assert.False(t, result.Valid)
}

func TestValidateOpenAIChatEmptyMessages(t *testing.T) {
	body := `{"model": "gpt-4", "messages": []}`
	result := ValidateOpenAIChat(body)
	assert.False(t, result.Valid)
}

func TestValidateOpenAIChatInvalidRole(t *testing.T) {
	body := `{"model": "gpt-4", "messages": [{"role": "invalid_role", "content": "Hello"}]}`
	result := ValidateOpenAIChat(body)
	assert.False(t, result.Valid)
}

func TestValidateOpenAIChatInvalidTemperature(t *testing.T) {
	body := `{"model": "gpt-4", "messages": [{"role": "user", "content": "Hi"}], "temperature": 5.0}`
	result := ValidateOpenAIChat(body)
	assert.False(t, result.Valid)
}

func TestValidateOpenAICompletionValid(t *testing.T) {
	body := `{"model": "gpt-3.5-turbo-instruct", "prompt": "Hello, world"}`
	result := ValidateOpenAICompletion(body)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestValidateAnthropicMessagesValid(t *testing.T) {
	body := `{"model": "claude-3-opus-20240229", "max_tokens": 1024, "messages": [{"role": "user", "content": "Hello"}]}`
	result := ValidateAnthropicMessages(body)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestValidateAnthropicMissingMaxTokens(t *testing.T) {
	body := `{"model": "claude-3-opus-20240229", "messages": [{"role": "user", "content": "Hello"}]}`
	result := ValidateAnthropicMessages(body)
	assert.False(t, result.Valid)
}

func TestValidateAnthropicInvalidRole(t *testing.T) {
	body := `{"model": "claude-3-opus-20240229", "max_tokens": 1024, "messages": [{"role": "system", "content": "Hello"}]}`
	result := ValidateAnthropicMessages(body)
	assert.False(t, result.Valid)
}

func TestValidateAnthropicWithSystem(t *testing.T) {
	body := `{"model": "claude-3-opus-20240229", "max_tokens": 1024, "system": "You are a helpful assistant", "messages": [{"role": "user", "content": "Hello"}]}`
	result := ValidateAnthropicMessages(body)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestValidateInvalidJSON(t *testing.T) {
	result := ValidateOpenAIChat("not valid json")
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "Invalid JSON")
}

func TestValidateAutoDetect(t *testing.T) {
	openaiChat := `{"model": "gpt-4", "messages": [{"role": "user", "content": "Hi"}]}`
	result := Validate(provider.Unknown, openaiChat)
	assert.True(t, result.Valid, "errors: %v", result.Errors)

	anthropic := `{"model": "claude-3-opus", "max_tokens": 100, "messages": [{"role": "user", "content": "Hi"}]}`
	result = Validate(provider.Anthropic, anthropic)
	assert.True(t, result.Valid, "errors: %v", result.Errors)

	anthropicUnknown := `{"model": "claude-3-opus", "max_tokens": 100, "messages": [{"role": "user", "content": "Hi"}]}`
	result = Validate(provider.Unknown, anthropicUnknown)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestValidateMissingBothFields(t *testing.T) {
	result := Validate(provider.OpenAI, `{"model": "gpt-4"}`)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "messages")
}
