package provider

import (
	"encoding/json"
	"strings"
)

type anthropicRequest struct {
	Model     *string            `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens *uint32            `json:"max_tokens"`
	System    json.RawMessage    `json:"system"`
	Prompt    *string            `json:"prompt"`
}

type anthropicMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type anthropicContentBlock struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// anthropicText resolves a field that may be a plain string or an array of
// typed content blocks (Anthropic's system prompt and message content both
// take this shape). Only blocks with type "text" contribute.
func anthropicText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var blocks []anthropicContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	texts := make([]string, 0, len(blocks))

	for _, b := range blocks {
		if b.Type == "text" && b.Text != nil {
			texts = append(texts, *b.Text)
		}
	}

	return flattenTextParts(texts)
}

// ParseAnthropic decodes an Anthropic messages-API or legacy-completion body
// into the canonical form. The legacy shape is split on the "\n\n"
// separator, recognizing "Human:"/"Assistant:" prefixed segments; if no
// structured turn is found the whole prompt becomes one user message.
func ParseAnthropic(body string) (*Request, bool) {
	var parsed anthropicRequest
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, false
	}

	var (
		messages []Message
		system   *string
	)

	if len(parsed.System) > 0 {
		s := anthropicText(parsed.System)
		system = &s
	}

	for _, msg := range parsed.Messages {
		messages = append(messages, Message{Role: msg.Role, Content: anthropicText(msg.Content)})
	}

	if parsed.Prompt != nil {
		legacy := parseLegacyAnthropicPrompt(*parsed.Prompt)
		if len(legacy) == 0 {
			legacy = []Message{{Role: "user", Content: *parsed.Prompt}}
		}

		messages = append(messages, legacy...)
	}

	if len(messages) == 0 {
		return nil, false
	}

	return &Request{
		Provider:  Anthropic,
		Model:     parsed.Model,
		Messages:  messages,
		MaxTokens: parsed.MaxTokens,
		System:    system,
	}, true
}

func parseLegacyAnthropicPrompt(prompt string) []Message {
	var messages []Message

	for _, part := range strings.Split(prompt, "\n\n") {
		part = strings.TrimSpace(part)

		switch {
		case strings.HasPrefix(part, "Human:"):
			content := strings.TrimSpace(strings.TrimPrefix(part, "Human:"))
			if content != "" {
				messages = append(messages, Message{Role: "user", Content: content})
			}
		case strings.HasPrefix(part, "Assistant:"):
			content := strings.TrimSpace(strings.TrimPrefix(part, "Assistant:"))
			if content != "" {
				messages = append(messages, Message{Role: "assistant", Content: content})
			}
		}
	}

	return messages
}
