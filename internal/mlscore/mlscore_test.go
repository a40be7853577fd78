package mlscore

import (
	"strings"
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
	s, err := NewScorer(DefaultConfig(), kb, logging.NewNopLogger())
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

func TestNewScorer_RejectsFeatureCountMismatch(t *testing.T) {
	kb, err := knowledge.Load(logging.NewNopLogger())
	if err != nil {
		t.Fatalf("loading knowledge: %v", err)
	}
	kb.Model.FeatureCount = 10
	if _, err := NewScorer(DefaultConfig(), kb, logging.NewNopLogger()); err == nil {
		t.Fatalf("expected an error for a model/extractor feature-count mismatch")
	}
}

func TestProbability_Deterministic(t *testing.T) {
	s := newScorer(t)
	u := parse(t, "http://paypa1-secure.tk/login?a=1&b=2")
	p1, f1 := s.Probability(u)
	p2, f2 := s.Probability(u)
	if p1 != p2 {
		t.Errorf("probability not bit-identical across calls: %v vs %v", p1, p2)
	}
	if f1 != f2 {
		t.Errorf("feature vector not identical across calls")
	}
}

func TestProbability_InUnitInterval(t *testing.T) {
	s := newScorer(t)
	for _, raw := range []string{
		"https://example.com/",
		"http://paypa1-secure.tk/login",
		"http://192.168.1.1/account/verify",
		"https://bit.ly/x",
		"http://" + "a.b.c.d.e.f.g.h.example.com/" + "very-long-path-segment-with-many-dashes-and-digits-1234567890",
	} {
		p, _ := s.Probability(parse(t, raw))
		if p < 0 || p > 1 {
			t.Errorf("Probability(%q) = %v, out of [0, 1]", raw, p)
		}
	}
}

func TestEvaluate_BenignBelowThreshold(t *testing.T) {
	s := newScorer(t)
	for _, raw := range []string{
		"https://www.commbank.com.au/",
		"https://google.com/search?q=weather",
	} {
		p, sig := s.Evaluate(parse(t, raw))
		if sig != nil {
			t.Errorf("Evaluate(%q): unexpected signal at p=%.3f", raw, p)
		}
		if p >= s.cfg.Threshold {
			t.Errorf("Evaluate(%q): p=%.3f not below threshold %.2f", raw, p, s.cfg.Threshold)
		}
	}
}

func TestEvaluate_PhishyAboveThreshold(t *testing.T) {
	s := newScorer(t)

	p, sig := s.Evaluate(parse(t, "http://paypa1-secure.tk/login"))
	if sig == nil {
		t.Fatalf("expected a signal at p=%.3f", p)
	}
	if sig.Kind != model.KindMLHighProbability {
		t.Errorf("kind = %s, want ml_high_probability", sig.Kind)
	}
	if sig.Severity != model.SeverityCritical {
		t.Errorf("severity = %s at p=%.3f, want critical", sig.Severity, p)
	}

	p, sig = s.Evaluate(parse(t, "http://192.168.1.1/account/verify"))
	if sig == nil || sig.Severity != model.SeverityCritical {
		t.Fatalf("IP-host URL: expected a critical signal, got %v at p=%.3f", sig, p)
	}
}

func TestExtract_FeatureSemantics(t *testing.T) {
	s := newScorer(t)

	_, f := s.Probability(parse(t, "https://sub.example.com:8443/path?a=1&b=2"))
	if f[featHTTPS] != 1 {
		t.Errorf("https feature = %v, want 1", f[featHTTPS])
	}
	if f[featExplicitPort] != 1 {
		t.Errorf("explicit-port feature = %v, want 1", f[featExplicitPort])
	}
	if f[featQueryParams] != 0.2 {
		t.Errorf("query-params feature = %v, want 0.2 for two parameters", f[featQueryParams])
	}
	if f[featSubdomains] != 0.2 {
		t.Errorf("subdomains feature = %v, want 0.2 for one subdomain", f[featSubdomains])
	}
	if f[featIPHost] != 0 {
		t.Errorf("ip-host feature = %v, want 0", f[featIPHost])
	}

	_, f = s.Probability(parse(t, "http://user@192.168.1.1/x"))
	if f[featIPHost] != 1 {
		t.Errorf("ip-host feature = %v, want 1", f[featIPHost])
	}
	if f[featAtSymbol] != 1 {
		t.Errorf("at-symbol feature = %v, want 1", f[featAtSymbol])
	}
	if f[featHTTPS] != 0 {
		t.Errorf("https feature = %v, want 0 for http", f[featHTTPS])
	}

	_, f = s.Probability(parse(t, "http://login.paypa1.tk/"))
	if f[featSuspiciousTLD] != 1 {
		t.Errorf("suspicious-tld feature = %v, want 1 for .tk", f[featSuspiciousTLD])
	}

	_, f = s.Probability(parse(t, "https://bit.ly/abc"))
	if f[featShortener] != 1 {
		t.Errorf("shortener feature = %v, want 1 for bit.ly", f[featShortener])
	}

	// caps clamp to 1
	long := "https://example.com/" + strings.Repeat("a", 600)
	_, f = s.Probability(parse(t, long))
	if f[featURLLength] != 1 {
		t.Errorf("url-length feature = %v, want clamped 1", f[featURLLength])
	}
}

func TestEntropy(t *testing.T) {
	if e := entropy(""); e != 0 {
		t.Errorf("entropy(\"\") = %v, want 0", e)
	}
	if e := entropy("aaaa"); e != 0 {
		t.Errorf("entropy(\"aaaa\") = %v, want 0", e)
	}
	if e := entropy("ab"); e != 1 {
		t.Errorf("entropy(\"ab\") = %v, want 1", e)
	}
	if entropy("abcdefgh") <= entropy("aabbccdd") {
		t.Errorf("more distinct characters must not lower entropy")
	}
}
