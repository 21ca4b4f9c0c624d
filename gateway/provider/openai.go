package provider

import "encoding/json"

type openAIChatRequest struct {
	Model     *string          `json:"model"`
	Messages  []openAIMessage  `json:"messages"`
	MaxTokens *uint32          `json:"max_tokens"`
	Prompt    *string          `json:"prompt"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type openAIContentPart struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// openAIContentText resolves an OpenAI message's content field, which may be a plain
// string or an array of typed content parts (vision models). Only parts
// with type "text" contribute, joined by a single space.
func openAIContentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var parts []openAIContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}

	texts := make([]string, 0, len(parts))

	for _, p := range parts {
		if p.Type == "text" && p.Text != nil {
			texts = append(texts, *p.Text)
		}
	}

	return flattenTextParts(texts)
}

// ParseOpenAI decodes an OpenAI chat-completion or legacy-completion body
// into the canonical form. Returns false if no messages could be extracted
// from either shape.
func ParseOpenAI(body string) (*Request, bool) {
	var parsed openAIChatRequest
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, false
	}

	var (
		messages []Message
		system   *string
	)

	for _, msg := range parsed.Messages {
		content := openAIContentText(msg.Content)
		if msg.Role == "system" {
			s := content
			system = &s
		}

		messages = append(messages, Message{Role: msg.Role, Content: content})
	}

	if parsed.Prompt != nil {
		messages = append(messages, Message{Role: "user", Content: *parsed.Prompt})
	}

	if len(messages) == 0 {
		return nil, false
	}

	return &Request{
		Provider:  OpenAI,
		Model:     parsed.Model,
		Messages:  messages,
		MaxTokens: parsed.MaxTokens,
		System:    system,
	}, true
}
