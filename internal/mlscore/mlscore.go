// Package mlscore applies a fixed-weight logistic regression to a feature
// vector derived from the URL. Weights are shipped as a static asset, never
// learned online; the probability is a pure function of the input string.
package mlscore

import (
	"fmt"
	"math"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// Config carries the classifier's decision tunables.
type Config struct {
	// Threshold is the probability above which a signal fires.
	Threshold float64

	// SignalWeight is the score contribution of a fired signal.
	SignalWeight int
}

// DefaultConfig returns the classifier defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:    0.7,
		SignalWeight: 25,
	}
}

// Scorer evaluates the embedded logistic model. Safe for concurrent use.
type Scorer struct {
	cfg    Config
	kb     *knowledge.Base
	logger logging.Logger
}

// NewScorer validates that the loaded model matches the feature extractor.
func NewScorer(cfg Config, kb *knowledge.Base, logger logging.Logger) (*Scorer, error) {
	if kb == nil {
		return nil, fmt.Errorf("mlscore: nil knowledge base")
	}
	if kb.Model.FeatureCount != FeatureCount {
		return nil, fmt.Errorf("mlscore: model declares %d features, extractor produces %d",
			kb.Model.FeatureCount, FeatureCount)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = 0.7
	}
	return &Scorer{
		cfg:    cfg,
		kb:     kb,
		logger: logger.With(logging.Field{Key: "component", Value: "ml-scorer"}),
	}, nil
}

func (s *Scorer) Name() string { return "ml-scorer" }

// Probability computes the phishing probability for u. Deterministic:
// identical input yields a bit-identical result.
func (s *Scorer) Probability(u *urlinfo.URL) (float64, FeatureVector) {
	f := extract(u, s.kb)
	z := s.kb.Model.Bias
	for i, w := range s.kb.Model.Weights {
		z += w * f[i]
	}
	return sigmoid(z), f
}

// Score implements the shared scorer contract, emitting a signal only above
// the threshold.
func (s *Scorer) Score(u *urlinfo.URL) []model.Signal {
	_, sig := s.Evaluate(u)
	if sig == nil {
		return nil
	}
	return []model.Signal{*sig}
}

// Evaluate returns the probability plus the threshold signal, if any.
// Severity scales with how far above the threshold the probability lands.
func (s *Scorer) Evaluate(u *urlinfo.URL) (float64, *model.Signal) {
	p, _ := s.Probability(u)
	if p <= s.cfg.Threshold {
		return p, nil
	}
	severity := model.SeverityMedium
	switch {
	case p >= 0.9:
		severity = model.SeverityCritical
	case p >= 0.8:
		severity = model.SeverityHigh
	}
	return p, &model.Signal{
		Kind:     model.KindMLHighProbability,
		Weight:   s.cfg.SignalWeight,
		Severity: severity,
		Explanation: fmt.Sprintf("lexical classifier rates this URL %.0f%% likely to be phishing (threshold %.0f%%)",
			p*100, s.cfg.Threshold*100),
		Counterfactual: "shorter, plainer URLs on mainstream TLDs score below the classifier threshold",
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
