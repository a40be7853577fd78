package redirect

import (
	"strings"

	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// EncodingAnalysis reports what bounded iterative percent-decoding of a
// string exposes. The heuristics engine delegates its double-encoding check
// here so both components agree on one decode routine.
type EncodingAnalysis struct {
	// Decoded is the string after bounded decoding.
	Decoded string

	// Rounds is how many decode rounds changed the string.
	Rounds int

	// HitBound is set when another round would still have changed it.
	HitBound bool

	// Meaningful is set when decoding changed the string beyond letter case.
	Meaningful bool
}

// AnalyzeEncoding runs the simulator's decode routine over s.
func AnalyzeEncoding(s string) EncodingAnalysis {
	decoded, rounds, hitBound := urlinfo.DecodeBounded(s, urlinfo.MaxDecodeRounds)
	return EncodingAnalysis{
		Decoded:    decoded,
		Rounds:     rounds,
		HitBound:   hitBound,
		Meaningful: rounds > 0 && !strings.EqualFold(decoded, s),
	}
}

// DoubleEncoded reports whether s was percent-encoded at least twice with a
// meaningful payload change, the pattern used to sneak URLs past naive
// single-pass decoders.
func DoubleEncoded(s string) (EncodingAnalysis, bool) {
	a := AnalyzeEncoding(s)
	return a, a.Meaningful && (a.Rounds >= 2 || a.HitBound)
}
