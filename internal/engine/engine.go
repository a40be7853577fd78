// Package engine is the public entry point of the risk pipeline. It parses
// and normalizes the input, fans out to the independent scorer components,
// aggregates their signals into one clamped score and maps that to a verdict.
// Analyze never fails: malformed input is itself a verdict, not an error.
package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mehrguard/mehrguard/internal/brand"
	"github.com/mehrguard/mehrguard/internal/heuristics"
	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/mlscore"
	"github.com/mehrguard/mehrguard/internal/model"
	"github.com/mehrguard/mehrguard/internal/redirect"
	"github.com/mehrguard/mehrguard/internal/tldscore"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// Scorer is the shared contract all components answer to: a pure function
// from a parsed URL to zero or more signals. Components never observe each
// other's state; aggregation here is the only coupling point.
type Scorer interface {
	Name() string
	Score(u *urlinfo.URL) []model.Signal
}

// Config carries the aggregation policy. Thresholds and penalty weights are
// tunable policy, not hard-coded behavior.
type Config struct {
	// SuspiciousThreshold and MaliciousThreshold split the 0-100 score into
	// SAFE / SUSPICIOUS / MALICIOUS bands.
	SuspiciousThreshold int
	MaliciousThreshold  int

	// MalformedWeight is the penalty for input that cannot be parsed at all.
	// Unparseable strings in a QR-code threat model are treated as hostile.
	MalformedWeight int

	// EncodingBoundWeight is the penalty when normalization hit the decode
	// bound, meaning the string is encoded deeper than we are willing to
	// chase.
	EncodingBoundWeight int

	Heuristics heuristics.Config
	Brand      brand.Config
	Redirect   redirect.Config
	ML         mlscore.Config
}

// DefaultConfig returns the default aggregation policy.
func DefaultConfig() *Config {
	return &Config{
		SuspiciousThreshold: 30,
		MaliciousThreshold:  70,
		MalformedWeight:     100,
		EncodingBoundWeight: 15,
		Heuristics:          heuristics.DefaultConfig(),
		Brand:               brand.DefaultConfig(),
		Redirect:            redirect.DefaultConfig(),
		ML:                  mlscore.DefaultConfig(),
	}
}

// Engine owns the component scorers and the aggregation policy. All state is
// read-only after construction; Analyze is safe to call from any number of
// goroutines concurrently.
type Engine struct {
	cfg     *Config
	scorers []Scorer
	ml      *mlscore.Scorer
	logger  logging.Logger
}

// New constructs the engine and its five components against a loaded
// knowledge base.
func New(cfg *Config, kb *knowledge.Base, logger logging.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	l := logger.With(logging.Field{Key: "component", Value: "engine"})

	heur, err := heuristics.New(cfg.Heuristics, kb, logger)
	if err != nil {
		return nil, err
	}
	brands, err := brand.NewDetector(cfg.Brand, kb, logger)
	if err != nil {
		return nil, err
	}
	tlds, err := tldscore.NewScorer(kb, logger)
	if err != nil {
		return nil, err
	}
	redirects, err := redirect.NewSimulator(cfg.Redirect, kb, logger)
	if err != nil {
		return nil, err
	}
	ml, err := mlscore.NewScorer(cfg.ML, kb, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		scorers: []Scorer{heur, brands, tlds, redirects},
		ml:      ml,
		logger:  l,
	}, nil
}

// Analyze runs the full pipeline over one raw URL string. It never returns
// an error: malformed input yields a MALICIOUS result with a dedicated
// signal.
func (e *Engine) Analyze(raw string) *model.ScanResult {
	result := &model.ScanResult{
		ID:        uuid.NewString(),
		URL:       raw,
		Timestamp: time.Now().UTC(),
	}

	u, err := urlinfo.Parse(raw)
	if err != nil {
		result.Signals = []model.Signal{{
			Kind:     model.KindMalformedURL,
			Weight:   e.cfg.MalformedWeight,
			Severity: model.SeverityCritical,
			Explanation: "input could not be parsed as a URL; in a scanned-code threat model an " +
				"unparseable payload is itself hostile",
			Counterfactual: "a well-formed URL would be analyzed component by component instead",
		}}
		result.Score = clamp(e.cfg.MalformedWeight)
		result.Verdict = e.verdictFor(result.Score)
		e.logger.Warn("analyze: malformed input",
			logging.Field{Key: "error", Value: err.Error()})
		return result
	}
	result.NormalizedURL = u.Normalized

	var signals []model.Signal
	for _, s := range e.scorers {
		signals = append(signals, s.Score(u)...)
	}

	if u.HitDecodeBound {
		signals = append(signals, model.Signal{
			Kind:     model.KindSuspiciousEncoding,
			Weight:   e.cfg.EncodingBoundWeight,
			Severity: model.SeverityHigh,
			Explanation: "percent-decoding did not converge within the bounded rounds; the payload is " +
				"encoded deeper than any legitimate URL needs",
			Counterfactual: "an input that fully decodes within the bound would not carry this signal",
		})
	}

	prob, mlSignal := e.ml.Evaluate(u)
	result.MLProbability = prob
	if mlSignal != nil {
		signals = append(signals, *mlSignal)
	}

	total := 0
	for _, s := range signals {
		total += s.Weight
	}
	result.Score = clamp(total)
	result.Verdict = e.verdictFor(result.Score)

	if len(signals) == 0 {
		signals = []model.Signal{{
			Kind:           model.KindAllChecksPassed,
			Weight:         0,
			Severity:       model.SeverityLow,
			Explanation:    "no heuristic, brand, TLD, redirect or classifier check raised a concern",
			Counterfactual: "",
		}}
	}
	sortSignals(signals)
	result.Signals = signals

	e.logger.Debug("analyze: done",
		logging.Field{Key: "score", Value: result.Score},
		logging.Field{Key: "verdict", Value: string(result.Verdict)},
		logging.Field{Key: "signals", Value: len(result.Signals)})
	return result
}

// verdictFor maps a clamped score to a verdict. Pure and total.
func (e *Engine) verdictFor(score int) model.Verdict {
	switch {
	case score >= e.cfg.MaliciousThreshold:
		return model.VerdictMalicious
	case score >= e.cfg.SuspiciousThreshold:
		return model.VerdictSuspicious
	default:
		return model.VerdictSafe
	}
}

// sortSignals orders by severity, then weight, descending; kind breaks the
// remaining ties so the presentation order is deterministic.
func sortSignals(signals []model.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Kind < b.Kind
	})
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
