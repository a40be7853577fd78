// Package redirect statically simulates redirect chains hidden inside a URL.
// It never touches the network: shortener hosts, embedded sub-URLs in query
// parameters and path segments, tracking-redirect parameters and repeated
// percent-encoding are all detected purely from the string, with a hard
// recursion cap so adversarial input cannot blow up latency.
package redirect

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// DefaultMaxDepth is the hard cap on recursive embedded-URL descent.
const DefaultMaxDepth = 3

// trackingParams are query parameter names commonly used by open redirectors.
var trackingParams = map[string]struct{}{
	"url": {}, "redirect": {}, "next": {}, "continue": {},
	"goto": {}, "dest": {}, "destination": {}, "target": {},
	"u": {}, "link": {}, "redir": {}, "redirect_uri": {},
	"redirect_url": {}, "return": {}, "returnto": {}, "return_to": {},
	"forward": {},
}

// Config carries the simulator's tunables.
type Config struct {
	// MaxDepth is the recursion cap for embedded-URL descent. The cap is a
	// contract, not a hint: exceeding it emits a signal instead of failing.
	MaxDepth int

	ShortenerWeight     int
	EmbeddedWeightBase  int
	EmbeddedWeightPerHop int
	TrackingWeight      int
	DepthExceededWeight int
}

// DefaultConfig returns the simulator defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:             DefaultMaxDepth,
		ShortenerWeight:      10,
		EmbeddedWeightBase:   12,
		EmbeddedWeightPerHop: 4,
		TrackingWeight:       15,
		DepthExceededWeight:  20,
	}
}

// Simulator is the redirect-chain scorer. Stateless between calls; safe for
// concurrent use.
type Simulator struct {
	cfg    Config
	kb     *knowledge.Base
	logger logging.Logger
}

// NewSimulator wires the simulator to the shortener knowledge table.
func NewSimulator(cfg Config, kb *knowledge.Base, logger logging.Logger) (*Simulator, error) {
	if kb == nil {
		return nil, fmt.Errorf("redirect: nil knowledge base")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Simulator{
		cfg:    cfg,
		kb:     kb,
		logger: logger.With(logging.Field{Key: "component", Value: "redirect-simulator"}),
	}, nil
}

func (s *Simulator) Name() string { return "redirect-chain" }

// Score runs all static redirect checks over the URL.
func (s *Simulator) Score(u *urlinfo.URL) []model.Signal {
	var out []model.Signal

	if s.kb.IsShortener(u.ASCIIHost) {
		out = append(out, model.Signal{
			Kind:     model.KindShortenerUsed,
			Weight:   s.cfg.ShortenerWeight,
			Severity: model.SeverityLow,
			Explanation: fmt.Sprintf("host %q is a known URL shortener, hiding the real destination",
				u.Host),
			Counterfactual: "linking the destination URL directly would remove this signal",
		})
	}

	out = append(out, s.trackingSignals(u)...)

	exceeded := false
	s.walk(u, 1, &out, &exceeded)
	if exceeded {
		out = append(out, model.Signal{
			Kind:     model.KindMaxRedirectDepth,
			Weight:   s.cfg.DepthExceededWeight,
			Severity: model.SeverityHigh,
			Explanation: fmt.Sprintf("embedded redirect chain nests deeper than the inspection cap of %d hops",
				s.cfg.MaxDepth),
			Counterfactual: "a URL without nested redirect layers would not trip the depth cap",
		})
	}
	return out
}

// trackingSignals flags open-redirector parameter names paired with an
// absolute embedded URL.
func (s *Simulator) trackingSignals(u *urlinfo.URL) []model.Signal {
	var out []model.Signal
	for name, values := range u.Query {
		if _, ok := trackingParams[strings.ToLower(name)]; !ok {
			continue
		}
		for _, v := range values {
			if target, ok := embeddedURL(v); ok {
				out = append(out, model.Signal{
					Kind:     model.KindTrackingRedirect,
					Weight:   s.cfg.TrackingWeight,
					Severity: model.SeverityHigh,
					Explanation: fmt.Sprintf("redirect parameter %q carries an absolute URL (%s)",
						name, truncate(target, 80)),
					Counterfactual: "dropping the redirect parameter, or pointing it at a relative path, would remove this signal",
				})
				break
			}
		}
	}
	return out
}

// walk recursively descends into embedded URLs. depth is the hop number of
// any URL found at this level; the explicit counter is the termination
// contract, not the call stack.
func (s *Simulator) walk(u *urlinfo.URL, depth int, out *[]model.Signal, exceeded *bool) {
	for _, raw := range embeddedCandidates(u) {
		if depth > s.cfg.MaxDepth {
			*exceeded = true
			return
		}
		sev := model.SeverityMedium
		if depth >= 2 {
			sev = model.SeverityHigh
		}
		*out = append(*out, model.Signal{
			Kind:     model.KindEmbeddedRedirectURL,
			Weight:   s.cfg.EmbeddedWeightBase + s.cfg.EmbeddedWeightPerHop*(depth-1),
			Severity: sev,
			Explanation: fmt.Sprintf("URL embeds another URL at hop %d: %s",
				depth, truncate(raw, 80)),
			Counterfactual: "a destination reached without intermediate redirect URLs would not carry this signal",
		})
		if child, err := urlinfo.Parse(raw); err == nil {
			s.walk(child, depth+1, out, exceeded)
		}
	}
}

// embeddedCandidates collects values inside u that parse as absolute URLs:
// query values and the decoded path, percent-decoded (bounded) and, for
// query values, base64-decoded when that exposes a URL.
func embeddedCandidates(u *urlinfo.URL) []string {
	var found []string
	for _, values := range u.Query {
		for _, v := range values {
			if target, ok := embeddedURL(v); ok {
				found = append(found, target)
			} else if decoded, ok := base64URL(v); ok {
				found = append(found, decoded)
			}
		}
	}
	if target, ok := pathEmbedded(u.DecodedPath); ok {
		found = append(found, target)
	}
	return found
}

// pathEmbedded returns the first absolute URL spliced into the decoded path
// (e.g. /out/https://evil.example/x).
func pathEmbedded(path string) (string, bool) {
	lower := strings.ToLower(path)
	best := -1
	for _, prefix := range []string{"https://", "http://"} {
		if idx := strings.Index(lower, prefix); idx > 0 && (best == -1 || idx < best) {
			best = idx
		}
	}
	if best == -1 {
		return "", false
	}
	return path[best:], true
}

// embeddedURL reports whether v (after bounded percent-decoding) is an
// absolute URL, returning the decoded form.
func embeddedURL(v string) (string, bool) {
	decoded, _, _ := urlinfo.DecodeBounded(v, urlinfo.MaxDecodeRounds)
	lower := strings.ToLower(decoded)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//") {
		return decoded, true
	}
	return "", false
}

// base64URL tries to base64-decode v and reports whether the payload is an
// absolute URL.
func base64URL(v string) (string, bool) {
	if len(v) < 12 {
		return "", false
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		raw, err := enc.DecodeString(v)
		if err != nil {
			continue
		}
		decoded := string(raw)
		lower := strings.ToLower(decoded)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return decoded, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
