package engine

import (
	"math/rand"
	"net/url"
	"reflect"
	"testing"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	kb, err := knowledge.Load(logging.NewNopLogger())
	if err != nil {
		t.Fatalf("loading knowledge: %v", err)
	}
	e, err := New(nil, kb, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func hasKind(signals []model.Signal, kind model.SignalKind) bool {
	for _, s := range signals {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

func TestAnalyze_LegitimateBrandLoginIsSafe(t *testing.T) {
	e := newEngine(t)
	res := e.Analyze("https://paypal.com/login")
	if res.Verdict != model.VerdictSafe {
		t.Errorf("verdict = %s, want SAFE (score %d, signals %v)", res.Verdict, res.Score, res.Signals)
	}
	if hasKind(res.Signals, model.KindBrandMismatch) {
		t.Errorf("the brand's own domain must not be flagged as impersonation")
	}
	if hasKind(res.Signals, model.KindSuspiciousKeyword) {
		t.Errorf("login wording on the brand's own domain must not be flagged")
	}
}

func TestAnalyze_TyposquatOnRiskyTLDIsMalicious(t *testing.T) {
	e := newEngine(t)
	res := e.Analyze("http://paypa1-secure.tk/login")
	if res.Verdict != model.VerdictMalicious {
		t.Errorf("verdict = %s, want MALICIOUS (score %d)", res.Verdict, res.Score)
	}
	if res.Score < 70 {
		t.Errorf("score = %d, want >= 70", res.Score)
	}
	for _, kind := range []model.SignalKind{
		model.KindBrandMismatch,
		model.KindSuspiciousTLD,
		model.KindSuspiciousKeyword,
		model.KindMLHighProbability,
	} {
		if !hasKind(res.Signals, kind) {
			t.Errorf("missing expected signal %s in %v", kind, res.Signals)
		}
	}
}

func TestAnalyze_IPLiteralHost(t *testing.T) {
	e := newEngine(t)
	res := e.Analyze("http://192.168.1.1/account/verify")
	if !hasKind(res.Signals, model.KindIPAddressHost) {
		t.Errorf("missing ip_address_host signal in %v", res.Signals)
	}
	if res.Verdict == model.VerdictSafe {
		t.Errorf("verdict = SAFE at score %d, want at least SUSPICIOUS", res.Score)
	}
}

func TestAnalyze_CleanBankingDomainIsSafe(t *testing.T) {
	e := newEngine(t)
	res := e.Analyze("https://www.commbank.com.au/")
	if res.Verdict != model.VerdictSafe {
		t.Errorf("verdict = %s, want SAFE (score %d, signals %v)", res.Verdict, res.Score, res.Signals)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
	if len(res.Signals) != 1 || res.Signals[0].Kind != model.KindAllChecksPassed {
		t.Errorf("expected the single all-checks-passed signal, got %v", res.Signals)
	}
}

func TestAnalyze_MalformedInputIsMalicious(t *testing.T) {
	e := newEngine(t)
	for _, raw := range []string{"", "   ", "http://", "%%%not-a-url"} {
		res := e.Analyze(raw)
		if res.Verdict != model.VerdictMalicious {
			t.Errorf("Analyze(%q): verdict = %s, want MALICIOUS", raw, res.Verdict)
		}
		if res.Score != 100 {
			t.Errorf("Analyze(%q): score = %d, want 100", raw, res.Score)
		}
		if len(res.Signals) != 1 || res.Signals[0].Kind != model.KindMalformedURL {
			t.Errorf("Analyze(%q): expected the single malformed_url signal, got %v", raw, res.Signals)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	e := newEngine(t)
	a := e.Analyze("http://paypa1-secure.tk/login?next=https%3A%2F%2Fevil.example")
	b := e.Analyze("http://paypa1-secure.tk/login?next=https%3A%2F%2Fevil.example")

	if a.ID == b.ID {
		t.Errorf("scan IDs must be unique per analysis")
	}
	if a.Score != b.Score || a.Verdict != b.Verdict {
		t.Errorf("score/verdict differ across identical inputs: %d/%s vs %d/%s",
			a.Score, a.Verdict, b.Score, b.Verdict)
	}
	if a.MLProbability != b.MLProbability {
		t.Errorf("ml probability not bit-identical: %v vs %v", a.MLProbability, b.MLProbability)
	}
	if a.NormalizedURL != b.NormalizedURL {
		t.Errorf("normalized form differs: %q vs %q", a.NormalizedURL, b.NormalizedURL)
	}
	if !reflect.DeepEqual(a.Signals, b.Signals) {
		t.Errorf("signal lists differ across identical inputs")
	}
}

func TestAnalyze_SignalOrdering(t *testing.T) {
	e := newEngine(t)
	res := e.Analyze("http://user@paypa1-secure.tk/login?next=https://evil.example/x")
	for i := 1; i < len(res.Signals); i++ {
		prev, curr := res.Signals[i-1], res.Signals[i]
		if prev.Severity.Rank() < curr.Severity.Rank() {
			t.Fatalf("signals not ordered by severity: %s(%s) before %s(%s)",
				prev.Kind, prev.Severity, curr.Kind, curr.Severity)
		}
		if prev.Severity.Rank() == curr.Severity.Rank() && prev.Weight < curr.Weight {
			t.Fatalf("equal-severity signals not ordered by weight: %v before %v", prev, curr)
		}
	}
}

func TestAnalyze_DeepNestingTerminates(t *testing.T) {
	e := newEngine(t)
	inner := "http://final.example/landing"
	for i := 0; i < 8; i++ {
		inner = "http://hop.example/?q=" + url.QueryEscape(inner)
	}
	res := e.Analyze(inner)
	if !hasKind(res.Signals, model.KindMaxRedirectDepth) {
		t.Errorf("expected the depth-cap signal for deeply nested redirects, got %v", res.Signals)
	}
}

func TestAnalyze_ScoreAlwaysInRange(t *testing.T) {
	e := newEngine(t)
	rng := rand.New(rand.NewSource(42))
	chars := []rune("abcdefghijklmnopqrstuvwxyz0123456789.-/:?=&%@_~# аорсе£中文🔗")
	for i := 0; i < 10000; i++ {
		n := 1 + rng.Intn(120)
		buf := make([]rune, n)
		for j := range buf {
			buf[j] = chars[rng.Intn(len(chars))]
		}
		raw := string(buf)
		switch rng.Intn(4) {
		case 0:
			raw = "http://" + raw
		case 1:
			raw = "https://" + raw
		}

		res := e.Analyze(raw)
		if res.Score < 0 || res.Score > 100 {
			t.Fatalf("Analyze(%q): score %d out of range", raw, res.Score)
		}
		if len(res.Signals) == 0 {
			t.Fatalf("Analyze(%q): empty signal list", raw)
		}
		switch res.Verdict {
		case model.VerdictSafe, model.VerdictSuspicious, model.VerdictMalicious:
		default:
			t.Fatalf("Analyze(%q): unknown verdict %q", raw, res.Verdict)
		}
	}
}
