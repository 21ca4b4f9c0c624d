package detect

import "regexp"

// injectionPatterns are the case-insensitive signals of an attempt to
// override or extract the system prompt, grouped by technique.
var injectionPatterns = []string{
	// Direct instruction override
	`(?i)ignore\s+(all\s+)?previous\s+instructions?`,
	`(?i)ignore\s+(all\s+)?prior\s+instructions?`,
	`(?i)disregard\s+(all\s+)?previous`,
	`(?i)forget\s+(all\s+)?(your\s+)?instructions?`,
	`(?i)override\s+(your\s+)?instructions?`,
	// New instruction injection
	`(?i)new\s+instructions?:`,
	`(?i)updated\s+instructions?:`,
	`(?i)system\s+prompt:`,
	`(?i)\[system\]`,
	`(?i)<system>`,
	// Role manipulation
	`(?i)you\s+are\s+now\s+a`,
	`(?i)act\s+as\s+if\s+you`,
	`(?i)pretend\s+(to\s+be|you\s+are)`,
	`(?i)roleplay\s+as`,
	`(?i)simulate\s+being`,
	// Prompt extraction
	`(?i)reveal\s+(your\s+)?system\s+prompt`,
	`(?i)show\s+(me\s+)?(your\s+)?instructions`,
	`(?i)what\s+(are|is)\s+(your\s+)?system\s+prompt`,
	`(?i)print\s+(your\s+)?initial\s+prompt`,
	// Context manipulation
	`(?i)end\s+of\s+system\s+prompt`,
	`(?i)</?(system|instructions?)>`,
	`(?i)\[/?INST\]`,
	`(?i)<<SYS>>`,
}

// PromptInjection recognizes attempts to override, extract, or redefine
// the system prompt via the conversation content.
type PromptInjection struct {
	patterns []*regexp.Regexp
}

// NewPromptInjection compiles the detector's patterns once for reuse.
func NewPromptInjection() *PromptInjection {
	return &PromptInjection{patterns: compilePatterns(injectionPatterns)}
}

// Detect reports "prompt-injection" if any pattern matches text.
func (d *PromptInjection) Detect(text string) (string, bool) {
	return matchAny(d.patterns, text, "prompt-injection")
}

// DetectAny scans texts in order and returns the first detection.
func (d *PromptInjection) DetectAny(texts []string) (string, bool) {
	return detectAny(d, texts)
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}

	return compiled
}

func matchAny(patterns []*regexp.Regexp, text, label string) (string, bool) {
	for _, p := range patterns {
		if p.MatchString(text) {
			return label, true
		}
	}

	return "", false
}

type detector interface {
	Detect(text string) (string, bool)
}

func detectAny(d detector, texts []string) (string, bool) {
	for _, text := range texts {
		if label, ok := d.Detect(text); ok {
			return label, true
		}
	}

	return "", false
}
