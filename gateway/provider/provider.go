// Package provider detects which generative-AI API an intercepted request
// targets and decodes its vendor-specific JSON body into the canonical
// conversation representation the rest of the pipeline operates on.
package provider

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// Provider is a tagged variant over the four vendors this agent recognizes.
type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
	Azure     Provider = "azure"
	Unknown   Provider = "unknown"
)

// String returns the stable lowercase form used in headers and audit tags.
func (p Provider) String() string {
	if p == "" {
		return string(Unknown)
	}

	return string(p)
}

// Message is one turn of the canonical conversation.
type Message struct {
	Role    string
	Content string
}

// Request is the canonical, provider-agnostic conversation the policy
// pipeline operates on. Vendor idiosyncrasies never leak past Parse.
type Request struct {
	Provider   Provider
	Model      *string
	Messages   []Message
	MaxTokens  *uint32
	System     *string
}

// AllContent returns exactly the message contents in order, followed by the
// system prompt when present. Detectors scan precisely these strings.
func (r *Request) AllContent() []string {
	content := make([]string, 0, len(r.Messages)+1)
	for _, m := range r.Messages {
		content = append(content, m.Content)
	}

	if r.System != nil {
		content = append(content, *r.System)
	}

	return content
}

// DetectProvider implements the path/header priority table: Azure
// deployment paths first, then the OpenAI-shaped endpoints (with an
// Anthropic-header tie-break that can only ever fire for an already
// Anthropic-shaped path, per the note below), then the Anthropic-shaped
// endpoints, else Unknown.
func DetectProvider(path string, headers http.Header) Provider {
	if strings.Contains(path, "/openai/deployments/") {
		return Azure
	}

	if strings.HasPrefix(path, "/v1/chat/completions") ||
		strings.HasPrefix(path, "/v1/completions") ||
		strings.HasPrefix(path, "/v1/embeddings") {
		// The Anthropic-header tie-break only applies when the path is ALSO
		// Anthropic-shaped, which these paths never are: it exists to mirror
		// an upstream heuristic exactly, not to actually redirect here.
		if headers.Get("anthropic-version") != "" || headers.Get("x-api-key") != "" {
			if strings.HasPrefix(path, "/v1/messages") || strings.HasPrefix(path, "/v1/complete") {
				return Anthropic
			}
		}

		if auth := headers.Get("Authorization"); strings.HasPrefix(auth, "Bearer sk-") {
			return OpenAI
		}

		return OpenAI
	}

	if strings.HasPrefix(path, "/v1/messages") || strings.HasPrefix(path, "/v1/complete") {
		return Anthropic
	}

	return Unknown
}

// Parse dispatches to the provider-specific decoder. Unknown tries OpenAI
// shape first, then Anthropic shape. The boolean result is false on no
// structural match; that is never fatal to the caller.
func Parse(p Provider, body string) (*Request, bool) {
	switch p {
	case OpenAI, Azure:
		return ParseOpenAI(body)
	case Anthropic:
		return ParseAnthropic(body)
	default:
		if req, ok := ParseOpenAI(body); ok {
			return req, true
		}

		return ParseAnthropic(body)
	}
}

// flattenTextParts joins already-extracted text parts with a single space,
// dropping empty strings. Callers select the parts whose "type" is "text".
func flattenTextParts(texts []string) string {
	return strings.Join(lo.Compact(texts), " ")
}
