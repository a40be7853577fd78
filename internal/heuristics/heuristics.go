// Package heuristics runs a battery of independent syntactic and lexical
// checks over a parsed URL. Each rule is a pure predicate producing at most
// one signal; rules never short-circuit each other and the rule set is fixed
// at construction.
package heuristics

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
	"github.com/mehrguard/mehrguard/internal/redirect"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// Config carries the rule tunables. Weights are fixed constants per rule,
// enumerated here rather than scattered through the checks.
type Config struct {
	MaxSubdomains int
	MaxURLLength  int

	// SuspiciousKeywords is matched against the decoded path and query of
	// URLs whose host is not a known-legitimate brand domain.
	SuspiciousKeywords []string

	SubdomainWeight   int
	UserInfoWeight    int
	LengthWeight      int
	KeywordWeight     int
	IPHostWeight      int
	PunycodeWeight    int
	MixedScriptWeight int
	Base64PathWeight  int
	DoubleEncWeight   int
}

// DefaultConfig returns the default rule weights and thresholds.
func DefaultConfig() Config {
	return Config{
		MaxSubdomains: 3,
		MaxURLLength:  100,
		SuspiciousKeywords: []string{
			"verify", "secure", "login", "signin", "account", "update",
			"confirm", "banking", "password", "wallet", "billing", "invoice",
			"suspend", "unlock",
		},
		SubdomainWeight:   10,
		UserInfoWeight:    15,
		LengthWeight:      8,
		KeywordWeight:     10,
		IPHostWeight:      20,
		PunycodeWeight:    12,
		MixedScriptWeight: 30,
		Base64PathWeight:  10,
		DoubleEncWeight:   15,
	}
}

type rule struct {
	name  string
	check func(u *urlinfo.URL) *model.Signal
}

// Engine evaluates the fixed rule battery. Stateless between calls.
type Engine struct {
	cfg    Config
	kb     *knowledge.Base
	rules  []rule
	logger logging.Logger
}

// New builds the engine and enumerates its rule set. The set never changes
// after construction.
func New(cfg Config, kb *knowledge.Base, logger logging.Logger) (*Engine, error) {
	if kb == nil {
		return nil, fmt.Errorf("heuristics: nil knowledge base")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	e := &Engine{
		cfg:    cfg,
		kb:     kb,
		logger: logger.With(logging.Field{Key: "component", Value: "heuristics"}),
	}
	e.rules = []rule{
		{"ip-literal-host", e.checkIPHost},
		{"excessive-subdomains", e.checkSubdomains},
		{"userinfo-in-authority", e.checkUserInfo},
		{"excessive-length", e.checkLength},
		{"suspicious-keywords", e.checkKeywords},
		{"punycode-host", e.checkPunycode},
		{"mixed-script-host", e.checkMixedScript},
		{"base64-path-segment", e.checkBase64Path},
		{"double-encoding", e.checkDoubleEncoding},
	}
	return e, nil
}

func (e *Engine) Name() string { return "heuristics" }

// Score runs every rule; rules are independent and all of them always run.
func (e *Engine) Score(u *urlinfo.URL) []model.Signal {
	var out []model.Signal
	for _, r := range e.rules {
		if sig := r.check(u); sig != nil {
			out = append(out, *sig)
		}
	}
	return out
}

func (e *Engine) checkIPHost(u *urlinfo.URL) *model.Signal {
	if !u.IsIP() {
		return nil
	}
	family := "IPv4"
	if u.IsIPv6 {
		family = "IPv6"
	}
	return &model.Signal{
		Kind:     model.KindIPAddressHost,
		Weight:   e.cfg.IPHostWeight,
		Severity: model.SeverityHigh,
		Explanation: fmt.Sprintf("host is a literal %s address (%s); legitimate services are addressed by name",
			family, u.Host),
		Counterfactual: "the same page served from a registered domain name would not carry this signal",
	}
}

func (e *Engine) checkSubdomains(u *urlinfo.URL) *model.Signal {
	n := u.SubdomainCount()
	if n <= e.cfg.MaxSubdomains {
		return nil
	}
	return &model.Signal{
		Kind:     model.KindExcessiveSubdomains,
		Weight:   e.cfg.SubdomainWeight,
		Severity: model.SeverityMedium,
		Explanation: fmt.Sprintf("host nests %d subdomain levels, a common way to push a trusted name into view",
			n),
		Counterfactual: fmt.Sprintf("at most %d subdomain levels would pass this check", e.cfg.MaxSubdomains),
	}
}

func (e *Engine) checkUserInfo(u *urlinfo.URL) *model.Signal {
	if !u.HasUserInfo {
		return nil
	}
	return &model.Signal{
		Kind:     model.KindUserInfoInURL,
		Weight:   e.cfg.UserInfoWeight,
		Severity: model.SeverityHigh,
		Explanation: "authority contains a userinfo component (user@host); browsers show the part before @ " +
			"while connecting to the host after it",
		Counterfactual: "removing the @ and everything before it would remove this signal",
	}
}

func (e *Engine) checkLength(u *urlinfo.URL) *model.Signal {
	if len(u.Raw) <= e.cfg.MaxURLLength {
		return nil
	}
	return &model.Signal{
		Kind:     model.KindExcessiveLength,
		Weight:   e.cfg.LengthWeight,
		Severity: model.SeverityLow,
		Explanation: fmt.Sprintf("URL is %d characters long; very long URLs are used to hide the real destination",
			len(u.Raw)),
		Counterfactual: fmt.Sprintf("a URL of at most %d characters would pass this check", e.cfg.MaxURLLength),
	}
}

func (e *Engine) checkKeywords(u *urlinfo.URL) *model.Signal {
	// Keywords on a brand's own domain are business as usual; only flag
	// them on hosts the brand database does not vouch for.
	if _, ok := e.kb.LegitimateBrand(u.RegistrableDomain); ok {
		return nil
	}
	haystack := strings.ToLower(u.DecodedPath + "?" + u.DecodedQuery)
	var hits []string
	for _, kw := range e.cfg.SuspiciousKeywords {
		if strings.Contains(haystack, kw) {
			hits = append(hits, kw)
		}
	}
	if len(hits) == 0 {
		return nil
	}
	return &model.Signal{
		Kind:     model.KindSuspiciousKeyword,
		Weight:   e.cfg.KeywordWeight,
		Severity: model.SeverityMedium,
		Explanation: fmt.Sprintf("path or query uses credential-bait wording (%s) on a host no known brand operates",
			strings.Join(hits, ", ")),
		Counterfactual: "the same wording on the impersonated brand's own domain would not be flagged",
	}
}

func (e *Engine) checkPunycode(u *urlinfo.URL) *model.Signal {
	if !strings.Contains(u.Host, "xn--") {
		return nil
	}
	return &model.Signal{
		Kind:     model.KindPunycodeHost,
		Weight:   e.cfg.PunycodeWeight,
		Severity: model.SeverityMedium,
		Explanation: fmt.Sprintf("host uses punycode (%s), which can render as a lookalike of another domain",
			u.ASCIIHost),
		Counterfactual: "an all-ASCII hostname would not carry this signal",
	}
}

// checkMixedScript flags a host label that mixes Latin with Cyrillic or Greek
// code points, the classic homograph construction. The check runs per label
// on the punycode-decoded host.
func (e *Engine) checkMixedScript(u *urlinfo.URL) *model.Signal {
	if u.IsIP() {
		return nil
	}
	for _, label := range strings.Split(u.UnicodeHost, ".") {
		var latin, cyrillic, greek bool
		for _, r := range label {
			switch {
			case unicode.Is(unicode.Latin, r):
				latin = true
			case unicode.Is(unicode.Cyrillic, r):
				cyrillic = true
			case unicode.Is(unicode.Greek, r):
				greek = true
			}
		}
		mixed := 0
		for _, present := range []bool{latin, cyrillic, greek} {
			if present {
				mixed++
			}
		}
		if mixed > 1 {
			return &model.Signal{
				Kind:     model.KindMixedScriptHost,
				Weight:   e.cfg.MixedScriptWeight,
				Severity: model.SeverityCritical,
				Explanation: fmt.Sprintf("host label %q mixes writing scripts; visually identical letters from "+
					"different alphabets are a homograph attack", label),
				Counterfactual: "spelling the label in a single script would remove this signal",
			}
		}
	}
	return nil
}

var base64SegmentRe = regexp.MustCompile(`^[A-Za-z0-9+/_-]{12,}={0,2}$`)

func (e *Engine) checkBase64Path(u *urlinfo.URL) *model.Signal {
	for _, seg := range u.PathSegments() {
		if !base64SegmentRe.MatchString(seg) {
			continue
		}
		// Plain lowercase words land in the base64 alphabet too; require the
		// case/digit mix real payloads have.
		if !strings.ContainsAny(seg, "0123456789") &&
			strings.ToLower(seg) == seg {
			continue
		}
		if !decodesAsBase64(seg) {
			continue
		}
		return &model.Signal{
			Kind:     model.KindBase64Path,
			Weight:   e.cfg.Base64PathWeight,
			Severity: model.SeverityMedium,
			Explanation: fmt.Sprintf("path segment %q looks like a base64 payload, often used to smuggle a "+
				"target or victim identifier", truncate(seg, 40)),
			Counterfactual: "plain-text path segments would pass this check",
		}
	}
	return nil
}

// checkDoubleEncoding delegates to the redirect simulator's decode routine so
// both components agree on what a decode round means.
func (e *Engine) checkDoubleEncoding(u *urlinfo.URL) *model.Signal {
	for _, s := range []string{u.Path, u.RawQuery} {
		if s == "" {
			continue
		}
		if a, double := redirect.DoubleEncoded(s); double {
			return &model.Signal{
				Kind:     model.KindDoubleEncoding,
				Weight:   e.cfg.DoubleEncWeight,
				Severity: model.SeverityHigh,
				Explanation: fmt.Sprintf("URL component required %d decode rounds to reveal its payload; "+
					"layered encoding defeats single-pass filters", max(a.Rounds, 2)),
				Counterfactual: "a singly-encoded URL would pass this check",
			}
		}
	}
	return nil
}

func decodesAsBase64(s string) bool {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if raw, err := enc.DecodeString(s); err == nil && len(raw) > 0 {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
