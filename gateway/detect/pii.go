// Package detect scans canonical request content for personally
// identifiable information, prompt injection, and jailbreak attempts.
package detect

import (
	"regexp"
	"sort"
	"strings"
)

// PIIType is a tagged variant over the kinds of PII this detector
// recognizes. The numeric order is also the tie-break order used when
// deduping DetectTypes results.
type PIIType uint8

const (
	Email PIIType = iota
	SSN
	PhoneNumber
	CreditCard
	IPAddress
)

func (t PIIType) String() string {
	switch t {
	case Email:
		return "email"
	case SSN:
		return "ssn"
	case PhoneNumber:
		return "phone"
	case CreditCard:
		return "credit-card"
	case IPAddress:
		return "ip-address"
	default:
		return "unknown"
	}
}

func (t PIIType) redaction() string {
	switch t {
	case Email:
		return "[EMAIL REDACTED]"
	case SSN:
		return "[SSN REDACTED]"
	case PhoneNumber:
		return "[PHONE REDACTED]"
	case CreditCard:
		return "[CARD REDACTED]"
	case IPAddress:
		return "[IP REDACTED]"
	default:
		return "[REDACTED]"
	}
}

// Match is one PII occurrence found in text.
type Match struct {
	Type    PIIType
	Start   int
	End     int
	Matched string
}

// PII detects email addresses, SSNs, phone numbers, credit card numbers,
// and public IPv4 addresses. No Luhn check is performed on credit card
// candidates; this is a deliberate simplification.
type PII struct {
	email      *regexp.Regexp
	ssn        *regexp.Regexp
	phone      *regexp.Regexp
	creditCard *regexp.Regexp
	ip         *regexp.Regexp
}

// NewPII compiles the PII detector's patterns once for reuse.
func NewPII() *PII {
	return &PII{
		email:      regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		ssn:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		phone:      regexp.MustCompile(`\b(?:\+1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		creditCard: regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`),
		ip:         regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`),
	}
}

// Detect returns every PII match in text, in detector order (email, ssn,
// phone, credit-card, ip-address) and then stably sorted by start offset
// so ties preserve that detector order.
func (d *PII) Detect(text string) []Match {
	var matches []Match

	for _, loc := range d.email.FindAllStringIndex(text, -1) {
		matches = append(matches, Match{Type: Email, Start: loc[0], End: loc[1], Matched: text[loc[0]:loc[1]]})
	}

	for _, loc := range d.ssn.FindAllStringIndex(text, -1) {
		matches = append(matches, Match{Type: SSN, Start: loc[0], End: loc[1], Matched: text[loc[0]:loc[1]]})
	}

	for _, loc := range d.phone.FindAllStringIndex(text, -1) {
		matches = append(matches, Match{Type: PhoneNumber, Start: loc[0], End: loc[1], Matched: text[loc[0]:loc[1]]})
	}

	for _, loc := range d.creditCard.FindAllStringIndex(text, -1) {
		matches = append(matches, Match{Type: CreditCard, Start: loc[0], End: loc[1], Matched: text[loc[0]:loc[1]]})
	}

	for _, loc := range d.ip.FindAllStringIndex(text, -1) {
		ip := text[loc[0]:loc[1]]
		if strings.HasPrefix(ip, "127.") || strings.HasPrefix(ip, "10.") ||
			strings.HasPrefix(ip, "192.168.") || strings.HasPrefix(ip, "0.") {
			continue
		}

		matches = append(matches, Match{Type: IPAddress, Start: loc[0], End: loc[1], Matched: ip})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })

	return matches
}

// HasPII reports whether text contains an email, SSN, phone number, or
// credit card. It deliberately omits the IP check, mirroring the upstream
// quick-check used ahead of the full Detect pass.
func (d *PII) HasPII(text string) bool {
	return d.email.MatchString(text) || d.ssn.MatchString(text) ||
		d.phone.MatchString(text) || d.creditCard.MatchString(text)
}

// Redact replaces every detected PII span with its type's placeholder,
// preserving everything between matches unchanged.
func (d *PII) Redact(text string) string {
	matches := d.Detect(text)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder

	b.Grow(len(text))

	lastEnd := 0
	for _, m := range matches {
		b.WriteString(text[lastEnd:m.Start])
		b.WriteString(m.Type.redaction())
		lastEnd = m.End
	}

	b.WriteString(text[lastEnd:])

	return b.String()
}

// DetectTypes returns the distinct PII types found in text, ordered and
// deduplicated by the PIIType enum order.
func (d *PII) DetectTypes(text string) []PIIType {
	matches := d.Detect(text)

	seen := make(map[PIIType]bool, len(matches))
	types := make([]PIIType, 0, len(matches))

	for _, m := range matches {
		if !seen[m.Type] {
			seen[m.Type] = true
			types = append(types, m.Type)
		}
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}
