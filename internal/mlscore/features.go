package mlscore

import (
	"math"
	"strings"

	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/urlinfo"
)

// FeatureCount is the fixed length of the feature vector. The embedded model
// weights must declare the same count or loading fails at startup.
const FeatureCount = 15

// FeatureVector is the fixed-length, deterministically derived input to the
// logistic model. Recomputed per analysis; identical input always yields a
// bit-identical vector.
type FeatureVector [FeatureCount]float64

// Feature indices, matching the exported model weights in order.
const (
	featURLLength = iota
	featHostLength
	featPathLength
	featSubdomains
	featHTTPS
	featIPHost
	featHostEntropy
	featPathEntropy
	featQueryParams
	featAtSymbol
	featDots
	featDashes
	featExplicitPort
	featShortener
	featSuspiciousTLD
)

// extract derives the feature vector from a parsed URL. Normalization caps
// mirror the training script: every feature lands in [0, 1].
func extract(u *urlinfo.URL, kb *knowledge.Base) FeatureVector {
	var f FeatureVector

	f[featURLLength] = capRatio(float64(len(u.Raw)), 500)
	f[featHostLength] = capRatio(float64(len(u.Host)), 100)
	f[featPathLength] = capRatio(float64(len(u.Path)), 200)

	dots := strings.Count(u.Host, ".")
	subs := dots - 1
	if subs < 0 {
		subs = 0
	}
	f[featSubdomains] = capRatio(float64(subs), 5)

	if u.Scheme == "https" {
		f[featHTTPS] = 1
	}
	if u.IsIP() {
		f[featIPHost] = 1
	}

	f[featHostEntropy] = capRatio(entropy(u.Host), 5)
	f[featPathEntropy] = capRatio(entropy(u.Path), 5)

	params := 0
	for _, vs := range u.Query {
		params += len(vs)
	}
	f[featQueryParams] = capRatio(float64(params), 10)

	if u.HasUserInfo || strings.Contains(u.Raw, "@") {
		f[featAtSymbol] = 1
	}

	f[featDots] = capRatio(float64(strings.Count(u.Raw, ".")), 10)
	f[featDashes] = capRatio(float64(strings.Count(u.Raw, "-")), 10)

	if u.Port != "" {
		f[featExplicitPort] = 1
	}
	if kb.IsShortener(u.ASCIIHost) {
		f[featShortener] = 1
	}
	if _, weight, known := kb.TLDWeight(u.ASCIIHost); !u.IsIP() && known && weight >= 15 {
		f[featSuspiciousTLD] = 1
	}

	return f
}

func capRatio(v, max float64) float64 {
	r := v / max
	if r > 1 {
		return 1
	}
	return r
}

// entropy is the Shannon entropy of s in bits per character.
func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}
	e := 0.0
	for _, count := range freq {
		p := float64(count) / float64(total)
		e -= p * math.Log2(p)
	}
	return e
}
