// Package brand detects impersonation of known brands in a URL's host. It
// compares the registrable domain (and its hyphen tokens and subdomain
// labels) against each brand's legitimate domains and curated decoys using
// edit distance and substitution heuristics. An exact match against a
// legitimate domain is safe and produces no signal.
package brand

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// Config carries the detector's thresholds and weights.
type Config struct {
	// MaxEditDistance is the Levenshtein cutoff on the domain label.
	MaxEditDistance int

	WeightCritical int
	WeightHigh     int
	WeightMedium   int
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		MaxEditDistance: 2,
		WeightCritical:  40,
		WeightHigh:      30,
		WeightMedium:    20,
	}
}

// Detector holds the brand database and a diff engine for rendering
// counterfactuals. Safe for concurrent use.
type Detector struct {
	cfg    Config
	kb     *knowledge.Base
	dmp    *diffmatchpatch.DiffMatchPatch
	logger logging.Logger
}

// NewDetector wires the detector to the loaded brand database.
func NewDetector(cfg Config, kb *knowledge.Base, logger logging.Logger) (*Detector, error) {
	if kb == nil {
		return nil, fmt.Errorf("brand: nil knowledge base")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.MaxEditDistance <= 0 {
		cfg.MaxEditDistance = 2
	}
	return &Detector{
		cfg:    cfg,
		kb:     kb,
		dmp:    diffmatchpatch.New(),
		logger: logger.With(logging.Field{Key: "component", Value: "brand-detector"}),
	}, nil
}

func (d *Detector) Name() string { return "brand-detector" }

// match is one candidate impersonation found against a single brand.
type match struct {
	brand    string
	legit    string // the legitimate domain being impersonated
	observed string // the label/token that matched
	severity model.Severity
	reason   string
	edits    int
}

// Score compares the host against every brand and reports only the single
// most convincing match, to avoid signal inflation when a host trips several
// brands' decoy patterns.
func (d *Detector) Score(u *urlinfo.URL) []model.Signal {
	if u.IsIP() || u.RegistrableDomain == "" {
		return nil
	}

	// Exact match against a legitimate domain: safe, by definition.
	if _, ok := d.kb.LegitimateBrand(u.RegistrableDomain); ok {
		return nil
	}

	var best *match
	for i := range d.kb.Brands {
		if m := d.matchBrand(&d.kb.Brands[i], u); m != nil {
			if best == nil || m.severity.Rank() > best.severity.Rank() ||
				(m.severity.Rank() == best.severity.Rank() && m.edits < best.edits) {
				best = m
			}
		}
	}
	if best == nil {
		return nil
	}

	return []model.Signal{{
		Kind:     model.KindBrandMismatch,
		Weight:   d.weightFor(best.severity),
		Severity: best.severity,
		Explanation: fmt.Sprintf("host imitates %s (%s): %s",
			best.brand, best.legit, best.reason),
		Counterfactual: d.counterfactual(best),
	}}
}

// matchBrand checks one brand's name, domain labels and decoys against the
// URL's domain label, its hyphen tokens, and its subdomain labels.
func (d *Detector) matchBrand(b *knowledge.BrandEntry, u *urlinfo.URL) *match {
	label := u.DomainLabel()
	if label == "" {
		return nil
	}

	targets := brandTargets(b)
	tokens := append([]string{label}, strings.Split(label, "-")...)

	var best *match
	consider := func(m *match) {
		if m == nil {
			return
		}
		if best == nil || m.severity.Rank() > best.severity.Rank() ||
			(m.severity.Rank() == best.severity.Rank() && m.edits < best.edits) {
			best = m
		}
	}

	for _, target := range targets {
		for _, tok := range tokens {
			if tok == "" || tok == target.label {
				// identical token under a different registrable domain is
				// handled by the subdomain/compound cases below
				if tok == target.label && label != target.label {
					consider(&match{
						brand: b.Name, legit: target.domain, observed: label,
						severity: model.SeverityCritical, edits: 0,
						reason: fmt.Sprintf("brand name %q embedded in domain %q", tok, u.RegistrableDomain),
					})
				}
				continue
			}

			if len(tok) < 3 {
				continue
			}

			if dist := levenshtein(tok, target.label); dist > 0 && dist <= d.cfg.MaxEditDistance {
				sev := model.SeverityHigh
				if dist == 1 {
					sev = model.SeverityCritical
				}
				consider(&match{
					brand: b.Name, legit: target.domain, observed: tok,
					severity: sev, edits: dist,
					reason: fmt.Sprintf("%q is %d edit(s) away from %q", tok, dist, target.label),
				})
				continue
			}

			if undigit(tok) == target.label {
				consider(&match{
					brand: b.Name, legit: target.domain, observed: tok,
					severity: model.SeverityCritical, edits: 1,
					reason: fmt.Sprintf("%q substitutes digits for letters in %q", tok, target.label),
				})
			}
		}

		// hyphen insertion into the brand label itself
		if strings.Contains(label, "-") && strings.ReplaceAll(label, "-", "") == target.label {
			consider(&match{
				brand: b.Name, legit: target.domain, observed: label,
				severity: model.SeverityCritical, edits: 1,
				reason: fmt.Sprintf("%q is %q with hyphens inserted", label, target.label),
			})
		}
	}

	// curated decoys are exact-match lexical traps
	for _, decoy := range b.Decoys {
		decoy = strings.ToLower(decoy)
		for _, tok := range tokens {
			if tok == decoy {
				consider(&match{
					brand: b.Name, legit: primaryDomain(b), observed: tok,
					severity: model.SeverityCritical, edits: 1,
					reason: fmt.Sprintf("%q is a known decoy spelling of %s", tok, b.Name),
				})
			}
		}
	}

	// subdomain impersonation: the brand's label riding above an unrelated
	// registrable domain (secure.paypal.com.evil.ga)
	for _, sub := range subdomainLabels(u) {
		for _, target := range targets {
			if sub == target.label {
				consider(&match{
					brand: b.Name, legit: target.domain, observed: sub,
					severity: model.SeverityHigh, edits: 1,
					reason: fmt.Sprintf("brand name appears as subdomain %q of unrelated domain %q",
						sub, u.RegistrableDomain),
				})
			}
		}
	}

	return best
}

// counterfactual renders the exact edit between the observed token and the
// legitimate domain's label, diffed character by character.
func (d *Detector) counterfactual(m *match) string {
	legitLabel, _, _ := strings.Cut(m.legit, ".")
	if m.observed == legitLabel {
		return fmt.Sprintf("only %s itself legitimately operates %q", m.brand, m.legit)
	}
	diffs := d.dmp.DiffMain(m.observed, legitLabel, false)
	var edits []string
	for i := 0; i < len(diffs); i++ {
		switch diffs[i].Type {
		case diffmatchpatch.DiffDelete:
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				edits = append(edits, fmt.Sprintf("replacing %q with %q", diffs[i].Text, diffs[i+1].Text))
				i++
			} else {
				edits = append(edits, fmt.Sprintf("removing %q", diffs[i].Text))
			}
		case diffmatchpatch.DiffInsert:
			edits = append(edits, fmt.Sprintf("inserting %q", diffs[i].Text))
		}
	}
	if len(edits) == 0 {
		return fmt.Sprintf("the legitimate domain is %q", m.legit)
	}
	return fmt.Sprintf("%s in %q would yield the legitimate %q",
		strings.Join(edits, ", "), m.observed, m.legit)
}

func (d *Detector) weightFor(sev model.Severity) int {
	switch sev {
	case model.SeverityCritical:
		return d.cfg.WeightCritical
	case model.SeverityHigh:
		return d.cfg.WeightHigh
	default:
		return d.cfg.WeightMedium
	}
}

type target struct {
	label  string
	domain string
}

// brandTargets collects the comparison labels for a brand: the first label
// of each legitimate domain plus the collapsed brand name.
func brandTargets(b *knowledge.BrandEntry) []target {
	var out []target
	seen := map[string]struct{}{}
	for _, dom := range b.Domains {
		label, _, _ := strings.Cut(strings.ToLower(dom), ".")
		if len(label) < 3 {
			continue // labels like "fb" or "wa" are too short to diff against
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, target{label: label, domain: strings.ToLower(dom)})
	}
	collapsed := strings.ToLower(strings.ReplaceAll(b.Name, " ", ""))
	if len(collapsed) >= 3 {
		if _, ok := seen[collapsed]; !ok {
			out = append(out, target{label: collapsed, domain: primaryDomain(b)})
		}
	}
	return out
}

func primaryDomain(b *knowledge.BrandEntry) string {
	if len(b.Domains) > 0 {
		return strings.ToLower(b.Domains[0])
	}
	return strings.ToLower(b.Name)
}

func subdomainLabels(u *urlinfo.URL) []string {
	host := u.ASCIIHost
	if u.RegistrableDomain == "" || !strings.HasSuffix(host, u.RegistrableDomain) {
		return nil
	}
	prefix := strings.TrimSuffix(host, u.RegistrableDomain)
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return nil
	}
	return strings.Split(prefix, ".")
}

// undigit maps common digit-for-letter substitutions back to letters.
func undigit(s string) string {
	replacer := strings.NewReplacer(
		"0", "o",
		"1", "l",
		"3", "e",
		"4", "a",
		"5", "s",
		"7", "t",
		"8", "b",
	)
	return replacer.Replace(s)
}

// levenshtein computes edit distance with the standard two-row DP.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
