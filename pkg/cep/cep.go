// Package cep normalizes Brazilian postal codes and matches them against
// inclusive ranges.
package cep

import (
	"fmt"
	"strings"
)

const (
	// Length is the canonical number of digits in a postal code.
	Length = 8
	// minDigits is the shortest prefix accepted from user input.
	minDigits = 5
)

// Normalize strips every non-digit and pads or truncates the result to eight
// digits. Inputs with fewer than five digits are rejected.
func Normalize(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(Length)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < minDigits {
		return "", false
	}
	if len(digits) > Length {
		return digits[:Length], true
	}
	return digits + strings.Repeat("0", Length-len(digits)), true
}

// Format renders a normalized code as 01310-100. Anything else is returned unchanged.
func Format(code string) string {
	if len(code) != Length {
		return code
	}
	return code[:5] + "-" + code[5:]
}

// Range is an inclusive span of normalized codes.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewRange normalizes both bounds and rejects ranges whose end precedes the start.
func NewRange(start, end string) (Range, error) {
	s, ok := Normalize(start)
	if !ok {
		return Range{}, fmt.Errorf("invalid range start %q", start)
	}
	e, ok := Normalize(end)
	if !ok {
		return Range{}, fmt.Errorf("invalid range end %q", end)
	}
	if e < s {
		return Range{}, fmt.Errorf("range end %s precedes start %s", Format(e), Format(s))
	}
	return Range{Start: s, End: e}, nil
}

// Contains compares equal-length digit strings lexicographically, which is
// the same as numeric order.
func (r Range) Contains(code string) bool {
	if len(code) != Length {
		return false
	}
	return r.Start <= code && code <= r.End
}

// MatchAny normalizes raw and reports whether it falls inside any range.
// Malformed input never matches.
func MatchAny(raw string, ranges []Range) bool {
	code, ok := Normalize(raw)
	if !ok {
		return false
	}
	for _, r := range ranges {
		if r.Contains(code) {
			return true
		}
	}
	return false
}
