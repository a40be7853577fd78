package tldscore

import (
	"testing"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	kb, err := knowledge.Load(logging.NewNopLogger())
	if err != nil {
		t.Fatalf("loading knowledge: %v", err)
	}
	s, err := NewScorer(kb, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func parse(t *testing.T, raw string) *urlinfo.URL {
	t.Helper()
	u, err := urlinfo.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return u
}

func TestScore_HighRiskTLD(t *testing.T) {
	s := newScorer(t)
	signals := s.Score(parse(t, "http://paypa1-secure.tk/login"))
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	sig := signals[0]
	if sig.Kind != model.KindSuspiciousTLD {
		t.Errorf("kind = %s, want suspicious_tld", sig.Kind)
	}
	if sig.Weight != 25 {
		t.Errorf("weight = %d, want 25 from the risk table", sig.Weight)
	}
	if sig.Severity != model.SeverityHigh {
		t.Errorf("severity = %s, want high", sig.Severity)
	}
}

func TestScore_TrustedTLDIsSilent(t *testing.T) {
	s := newScorer(t)
	for _, raw := range []string{"https://www.commbank.com.au", "https://example.com"} {
		if signals := s.Score(parse(t, raw)); len(signals) != 0 {
			t.Errorf("Score(%q): expected no signal, got %v", raw, signals)
		}
	}
}

func TestScore_UnknownTLDGetsDefaultWeight(t *testing.T) {
	s := newScorer(t)
	signals := s.Score(parse(t, "http://host.unregistered-zone/x"))
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal for unknown TLD, got %d", len(signals))
	}
	if signals[0].Weight != 5 {
		t.Errorf("weight = %d, want the configured unknown-TLD weight 5", signals[0].Weight)
	}
	if signals[0].Severity != model.SeverityLow {
		t.Errorf("severity = %s, want low", signals[0].Severity)
	}
}

func TestScore_IPHostIsSkipped(t *testing.T) {
	s := newScorer(t)
	if signals := s.Score(parse(t, "http://192.168.1.1/x")); len(signals) != 0 {
		t.Errorf("IP literal host must not produce a TLD signal, got %v", signals)
	}
}
