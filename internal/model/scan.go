package model

import "time"

// Verdict is the final classification of a URL.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictMalicious  Verdict = "MALICIOUS"
)

// ScanResult is the canonical engine output for a single URL.
// Example:
//
//	{
//	  "id": "2b1f6a2e-...",
//	  "url": "http://paypa1-secure.tk/login",
//	  "normalized_url": "http://paypa1-secure.tk/login",
//	  "score": 86,
//	  "verdict": "MALICIOUS",
//	  "ml_probability": 0.91,
//	  "signals": [
//	    {"kind":"brand_mismatch","weight":35,"severity":"critical","explanation":"..."},
//	    {"kind":"suspicious_tld","weight":25,"severity":"high","explanation":"..."}
//	  ]
//	}
type ScanResult struct {
	// ID is a unique identifier for this analysis, set by the engine.
	ID string `json:"id"`

	// URL is the raw input string as received.
	URL string `json:"url"`

	// NormalizedURL is the parsed, normalized form, empty when parsing failed.
	NormalizedURL string `json:"normalized_url,omitempty"`

	// Score is the aggregate risk score, clamped to [0, 100].
	Score int `json:"score"`

	// Verdict is derived from Score via fixed thresholds; it is a pure
	// function of Score, no hidden state.
	Verdict Verdict `json:"verdict"`

	// Signals are ordered by severity then weight, descending. Never empty
	// for any input: a passed-all-checks signal is synthesized when no risk
	// signal fired.
	Signals []Signal `json:"signals"`

	// MLProbability is the classifier's phishing probability in [0, 1].
	MLProbability float64 `json:"ml_probability"`

	// Timestamp is when the analysis ran.
	Timestamp time.Time `json:"timestamp"`
}

// RiskSignals reports whether any signal other than the synthesized
// all-checks-passed marker is present.
func (r *ScanResult) RiskSignals() bool {
	for _, s := range r.Signals {
		if s.Kind != KindAllChecksPassed {
			return true
		}
	}
	return false
}
