package model

// SignalKind is the closed set of risk/safety indicator categories the engine
// can emit. The orchestrator aggregates over these exhaustively, so new kinds
// must be added here rather than invented ad hoc by scorers.
type SignalKind string

const (
	KindSuspiciousTLD        SignalKind = "suspicious_tld"
	KindIPAddressHost        SignalKind = "ip_address_host"
	KindExcessiveSubdomains  SignalKind = "excessive_subdomains"
	KindUserInfoInURL        SignalKind = "userinfo_in_url"
	KindExcessiveLength      SignalKind = "excessive_length"
	KindSuspiciousKeyword    SignalKind = "suspicious_keyword"
	KindPunycodeHost         SignalKind = "punycode_host"
	KindMixedScriptHost      SignalKind = "mixed_script_host"
	KindBase64Path           SignalKind = "base64_path"
	KindDoubleEncoding       SignalKind = "double_encoding"
	KindSuspiciousEncoding   SignalKind = "suspicious_encoding"
	KindBrandMismatch        SignalKind = "brand_mismatch"
	KindShortenerUsed        SignalKind = "shortener_used"
	KindEmbeddedRedirectURL  SignalKind = "embedded_redirect_url"
	KindTrackingRedirect     SignalKind = "tracking_redirect_param"
	KindMaxRedirectDepth     SignalKind = "max_redirect_depth_exceeded"
	KindMLHighProbability    SignalKind = "ml_high_probability"
	KindMalformedURL         SignalKind = "malformed_url"
	KindAllChecksPassed      SignalKind = "all_checks_passed"
)

// Severity is a human-level bucket for a signal.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities for sorting; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Signal is one explainable contributor to the risk score. Signals are
// produced once per analysis and never mutated afterwards.
type Signal struct {
	// Kind identifies the category of the indicator.
	Kind SignalKind `json:"kind"`

	// Weight is the signed contribution to the aggregate score.
	Weight int `json:"weight"`

	// Severity is the human-level bucket for this signal.
	Severity Severity `json:"severity"`

	// Explanation is a short human-readable rationale.
	Explanation string `json:"explanation"`

	// Counterfactual states what would remove or reduce the signal.
	Counterfactual string `json:"counterfactual,omitempty"`
}
