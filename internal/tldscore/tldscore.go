// Package tldscore scores a URL's top-level domain against the static risk
// table. The lookup prefers the longest matching suffix so multi-label TLDs
// like com.au resolve ahead of their last label.
package tldscore

import (
	"fmt"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// Scorer looks up TLD risk weights. Stateless between calls.
type Scorer struct {
	kb     *knowledge.Base
	logger logging.Logger
}

// NewScorer wires the scorer to the loaded risk table.
func NewScorer(kb *knowledge.Base, logger logging.Logger) (*Scorer, error) {
	if kb == nil {
		return nil, fmt.Errorf("tldscore: nil knowledge base")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scorer{
		kb:     kb,
		logger: logger.With(logging.Field{Key: "component", Value: "tld-scorer"}),
	}, nil
}

func (s *Scorer) Name() string { return "tld-scorer" }

// Score emits at most one suspicious-TLD signal. TLDs with a configured
// weight of zero are trusted; unknown TLDs carry the table's unknown-TLD
// weight so novel registries are never silently trusted.
func (s *Scorer) Score(u *urlinfo.URL) []model.Signal {
	if u.IsIP() {
		return nil
	}
	suffix, weight, known := s.kb.TLDWeight(u.ASCIIHost)
	if weight <= 0 {
		return nil
	}

	severity := model.SeverityLow
	switch {
	case weight >= 20:
		severity = model.SeverityHigh
	case weight >= 10:
		severity = model.SeverityMedium
	}

	explanation := fmt.Sprintf("top-level domain .%s is heavily used by phishing campaigns", suffix)
	switch {
	case suffix == "":
		explanation = "host has no recognizable top-level domain"
	case !known:
		explanation = fmt.Sprintf("top-level domain .%s is not in the known-registry table", suffix)
	}

	return []model.Signal{{
		Kind:           model.KindSuspiciousTLD,
		Weight:         weight,
		Severity:       severity,
		Explanation:    explanation,
		Counterfactual: "the same domain under a mainstream TLD such as .com would not add this risk",
	}}
}
