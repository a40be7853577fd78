// Package knowledge holds the static data assets the engine scores against:
// the brand database, the TLD risk table, the URL-shortener list and the ML
// model weights. Everything is embedded at build time, parsed once at startup
// and read-only afterwards, so a loaded Base can be shared freely across
// concurrent analyses without locking.
package knowledge

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mehrguard/mehrguard/internal/logging"
)

//go:embed assets/brands.json assets/tld_risk.json assets/shorteners.json assets/model_weights.json
var assetsFS embed.FS

// ErrConfigLoad marks a missing or corrupt static asset. Fatal at startup:
// the engine refuses to produce verdicts from a partial table.
var ErrConfigLoad = errors.New("knowledge: config load failed")

// BrandEntry describes one protected brand: its canonical name, the domains
// it legitimately operates, and lexical decoys commonly used to impersonate it.
type BrandEntry struct {
	Name    string   `json:"name"`
	Domains []string `json:"domains"`
	Decoys  []string `json:"decoys,omitempty"`
}

// ModelWeights is the fixed logistic-regression model, exported by the
// training script as JSON. FeatureCount guards against a weights file that
// does not match the feature extractor.
type ModelWeights struct {
	FeatureCount int       `json:"feature_count"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// Base is the loaded, immutable knowledge base.
type Base struct {
	Brands []BrandEntry
	Model  ModelWeights

	// UnknownTLDWeight applies to TLDs absent from the risk table, so novel
	// registries are never silently trusted.
	UnknownTLDWeight int

	tldRisk      map[string]int
	legitDomains map[string]string // registrable domain -> brand name
	shorteners   map[string]struct{}
}

type tldRiskFile struct {
	UnknownWeight int            `json:"unknown_weight"`
	TLDs          map[string]int `json:"tlds"`
}

type brandsFile struct {
	Brands []BrandEntry `json:"brands"`
}

type shortenersFile struct {
	Hosts []string `json:"hosts"`
}

// Load parses the embedded assets into a Base. Any missing or malformed
// asset fails the whole load; callers must treat that as fatal.
func Load(logger logging.Logger) (*Base, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	l := logger.With(logging.Field{Key: "component", Value: "knowledge"})

	var brands brandsFile
	if err := readAsset("assets/brands.json", &brands); err != nil {
		return nil, err
	}
	if len(brands.Brands) == 0 {
		return nil, fmt.Errorf("%w: brand database is empty", ErrConfigLoad)
	}

	var tlds tldRiskFile
	if err := readAsset("assets/tld_risk.json", &tlds); err != nil {
		return nil, err
	}
	if len(tlds.TLDs) == 0 {
		return nil, fmt.Errorf("%w: tld risk table is empty", ErrConfigLoad)
	}

	var shorts shortenersFile
	if err := readAsset("assets/shorteners.json", &shorts); err != nil {
		return nil, err
	}

	var model ModelWeights
	if err := readAsset("assets/model_weights.json", &model); err != nil {
		return nil, err
	}
	if model.FeatureCount == 0 || len(model.Weights) != model.FeatureCount {
		return nil, fmt.Errorf("%w: model declares %d features but carries %d weights",
			ErrConfigLoad, model.FeatureCount, len(model.Weights))
	}

	b := &Base{
		Brands:           brands.Brands,
		Model:            model,
		UnknownTLDWeight: tlds.UnknownWeight,
		tldRisk:          make(map[string]int, len(tlds.TLDs)),
		legitDomains:     make(map[string]string),
		shorteners:       make(map[string]struct{}, len(shorts.Hosts)),
	}
	for tld, weight := range tlds.TLDs {
		b.tldRisk[strings.ToLower(strings.TrimPrefix(tld, "."))] = weight
	}
	for _, brand := range b.Brands {
		for _, d := range brand.Domains {
			b.legitDomains[strings.ToLower(d)] = brand.Name
		}
	}
	for _, h := range shorts.Hosts {
		b.shorteners[strings.ToLower(h)] = struct{}{}
	}

	l.Info("knowledge base loaded",
		logging.Field{Key: "brands", Value: len(b.Brands)},
		logging.Field{Key: "tlds", Value: len(b.tldRisk)},
		logging.Field{Key: "shorteners", Value: len(b.shorteners)},
		logging.Field{Key: "model_features", Value: model.FeatureCount})
	return b, nil
}

func readAsset(name string, v any) error {
	data, err := assetsFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrConfigLoad, name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrConfigLoad, name, err)
	}
	return nil
}

// LegitimateBrand returns the brand operating the given registrable domain,
// if any. Lookup key is the lower-cased registrable domain.
func (b *Base) LegitimateBrand(registrableDomain string) (string, bool) {
	name, ok := b.legitDomains[strings.ToLower(registrableDomain)]
	return name, ok
}

// TLDWeight looks up the risk weight for a host's TLD using the longest
// matching suffix in the table, so multi-label TLDs ("com.au") win over their
// last label. Unknown TLDs get UnknownTLDWeight.
func (b *Base) TLDWeight(host string) (suffix string, weight int, known bool) {
	host = strings.ToLower(strings.Trim(host, "."))
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", b.UnknownTLDWeight, false
	}
	// try progressively shorter suffixes, longest first
	for i := 1; i < len(labels); i++ {
		candidate := strings.Join(labels[i:], ".")
		if w, ok := b.tldRisk[candidate]; ok {
			return candidate, w, true
		}
	}
	return labels[len(labels)-1], b.UnknownTLDWeight, false
}

// IsShortener reports whether the host is a known URL-shortener service.
func (b *Base) IsShortener(host string) bool {
	_, ok := b.shorteners[strings.ToLower(host)]
	return ok
}
