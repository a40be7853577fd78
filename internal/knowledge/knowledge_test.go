package knowledge

import (
	"testing"

	"github.com/mehrguard/mehrguard/internal/logging"
)

func loadBase(t *testing.T) *Base {
	t.Helper()
	b, err := Load(logging.NewNopLogger())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return b
}

func TestLoad_Succeeds(t *testing.T) {
	b := loadBase(t)
	if len(b.Brands) == 0 {
		t.Errorf("expected brands to be loaded")
	}
	if b.Model.FeatureCount != len(b.Model.Weights) {
		t.Errorf("model feature count %d does not match %d weights",
			b.Model.FeatureCount, len(b.Model.Weights))
	}
	if b.UnknownTLDWeight <= 0 {
		t.Errorf("unknown-TLD weight must be positive so novel registries are not trusted")
	}
}

func TestTLDWeight_LongestSuffixWins(t *testing.T) {
	b := loadBase(t)

	cases := []struct {
		host   string
		suffix string
		weight int
		known  bool
	}{
		{"www.commbank.com.au", "com.au", 0, true},
		{"evil.tk", "tk", 25, true},
		{"sub.deep.phish.ml", "ml", 25, true},
		{"example.com", "com", 0, true},
		{"weird.unregistered-zone", "unregistered-zone", 5, false},
	}
	for _, tc := range cases {
		suffix, weight, known := b.TLDWeight(tc.host)
		if suffix != tc.suffix || weight != tc.weight || known != tc.known {
			t.Errorf("TLDWeight(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.host, suffix, weight, known, tc.suffix, tc.weight, tc.known)
		}
	}
}

func TestLegitimateBrand(t *testing.T) {
	b := loadBase(t)

	if name, ok := b.LegitimateBrand("paypal.com"); !ok || name != "PayPal" {
		t.Errorf("LegitimateBrand(paypal.com) = (%q, %v), want (PayPal, true)", name, ok)
	}
	if _, ok := b.LegitimateBrand("paypa1-secure.tk"); ok {
		t.Errorf("decoy domain must not be legitimate")
	}
}

func TestIsShortener(t *testing.T) {
	b := loadBase(t)

	if !b.IsShortener("bit.ly") {
		t.Errorf("bit.ly should be a known shortener")
	}
	if b.IsShortener("example.com") {
		t.Errorf("example.com should not be a shortener")
	}
}
