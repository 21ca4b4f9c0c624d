package detect

import "regexp"

// jailbreakPatterns are the case-insensitive signals of an attempt to
// bypass safety behavior, grouped by technique.
var jailbreakPatterns = []string{
	// DAN and variants
	`(?i)\bDAN\b`,
	`(?i)do\s+anything\s+now`,
	`(?i)STAN`,
	`(?i)DUDE`,
	// Explicit jailbreak
	`(?i)jailbreak`,
	`(?i)jail\s*break`,
	`(?i)unlock\s+your\s+(full\s+)?potential`,
	// Developer/debug mode
	`(?i)developer\s+mode`,
	`(?i)debug\s+mode`,
	`(?i)maintenance\s+mode`,
	`(?i)sudo\s+mode`,
	`(?i)god\s+mode`,
	`(?i)admin\s+mode`,
	// Bypass attempts
	`(?i)bypass\s+(your\s+)?programming`,
	`(?i)bypass\s+(your\s+)?restrictions`,
	`(?i)bypass\s+(your\s+)?filters`,
	`(?i)bypass\s+(your\s+)?safety`,
	`(?i)bypass\s+(your\s+)?guidelines`,
	`(?i)circumvent\s+(your\s+)?rules`,
	// Ethics bypass
	`(?i)ignore\s+(your\s+)?ethical`,
	`(?i)ignore\s+(your\s+)?moral`,
	`(?i)ignore\s+(your\s+)?safety`,
	`(?i)without\s+(any\s+)?restrictions`,
	`(?i)no\s+limitations`,
	`(?i)unrestricted\s+mode`,
	// Hypothetical framing
	`(?i)hypothetically\s+speaking`,
	`(?i)in\s+a\s+hypothetical\s+scenario`,
	`(?i)for\s+educational\s+purposes\s+only`,
	`(?i)for\s+research\s+purposes`,
	`(?i)purely\s+academic`,
	`(?i)in\s+fiction`,
	`(?i)in\s+a\s+novel`,
	`(?i)in\s+a\s+movie`,
	// Persona forcing
	`(?i)evil\s+(twin|version|mode)`,
	`(?i)dark\s+mode`,
	`(?i)uncensored\s+(version|mode)`,
	`(?i)unfiltered\s+(version|mode)`,
	// Token manipulation
	`(?i)\[jailbreak\]`,
	`(?i)\[unlock\]`,
	`(?i)\[unrestricted\]`,
	"(?i)```jailbreak",
}

// Jailbreak recognizes attempts to bypass safety behavior through
// persona forcing, mode-switching framing, or explicit keywords.
type Jailbreak struct {
	patterns []*regexp.Regexp
}

// NewJailbreak compiles the detector's patterns once for reuse.
func NewJailbreak() *Jailbreak {
	return &Jailbreak{patterns: compilePatterns(jailbreakPatterns)}
}

// Detect reports "jailbreak-attempt" if any pattern matches text.
func (d *Jailbreak) Detect(text string) (string, bool) {
	return matchAny(d.patterns, text, "jailbreak-attempt")
}

// DetectAny scans texts in order and returns the first detection.
func (d *Jailbreak) DetectAny(texts []string) (string, bool) {
	return detectAny(d, texts)
}
