// Package urlinfo parses and normalizes raw URL strings into the immutable
// value type the scorer packages operate on. Parsing is pure: no I/O, no
// network, and bounded work on adversarial input.
package urlinfo

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/unicode/norm"
)

// MaxDecodeRounds bounds iterative percent-decoding during normalization.
// Three rounds is enough to expose double and triple encoding without
// unbounded work.
const MaxDecodeRounds = 3

// ErrMalformedURL is returned when no host-like component can be extracted.
var ErrMalformedURL = errors.New("urlinfo: malformed url")

// URL is the parsed, normalized form of one input string. Immutable once
// constructed.
type URL struct {
	// Raw is the input string exactly as received.
	Raw string

	// Normalized is the rebuilt canonical form: lower-cased host, default
	// ports stripped, fragment dropped.
	Normalized string

	Scheme string

	// Host is the lower-cased, NFKC-normalized hostname without port.
	Host string

	// ASCIIHost is the punycode (xn--) form of Host.
	ASCIIHost string

	// UnicodeHost is Host with punycode labels decoded, used for homograph
	// analysis.
	UnicodeHost string

	Port string
	Path string

	RawQuery string
	Query    url.Values

	// HasUserInfo records a userinfo component in the authority
	// (http://user@host), a classic obfuscation trick.
	HasUserInfo bool

	// IsIPv4 / IsIPv6 record a literal IP address host.
	IsIPv4 bool
	IsIPv6 bool

	// DecodedPath and DecodedQuery are the bounded percent-decoded forms
	// used by the analyzers; DecodeRounds is how many rounds changed
	// something, and HitDecodeBound is set when a further round would still
	// have changed the string.
	DecodedPath    string
	DecodedQuery   string
	DecodeRounds   int
	HitDecodeBound bool

	// RegistrableDomain is the eTLD+1 (e.g. "paypal.com"); empty for IP
	// literal hosts and hosts that are themselves a public suffix.
	RegistrableDomain string

	// PublicSuffix is the effective TLD ("com", "com.au", ...).
	PublicSuffix string
}

// Parse builds a URL from a raw string. A missing scheme defaults to http.
// It fails with ErrMalformedURL only when no host can be extracted at all;
// everything else is best-effort and recorded on the value.
func Parse(raw string) (*URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedURL)
	}

	withScheme := trimmed
	if !strings.Contains(trimmed, "://") {
		withScheme = "http://" + trimmed
	}

	parsed, err := url.Parse(withScheme)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host component", ErrMalformedURL)
	}

	u := &URL{
		Raw:         raw,
		Scheme:      strings.ToLower(parsed.Scheme),
		Port:        parsed.Port(),
		Path:        parsed.Path,
		RawQuery:    parsed.RawQuery,
		Query:       parsed.Query(),
		HasUserInfo: parsed.User != nil,
	}

	// NFKC before anything else so visually-identical code points collapse
	// ahead of homograph analysis.
	host := norm.NFKC.String(strings.ToLower(parsed.Hostname()))
	u.Host = host

	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		if ip.To4() != nil {
			u.IsIPv4 = true
		} else {
			u.IsIPv6 = true
		}
	}

	if ascii, err := idna.ToASCII(host); err == nil {
		u.ASCIIHost = ascii
	} else {
		u.ASCIIHost = host
	}
	if uni, err := idna.ToUnicode(host); err == nil {
		u.UnicodeHost = uni
	} else {
		u.UnicodeHost = host
	}

	if !u.IsIP() {
		u.PublicSuffix, _ = publicsuffix.PublicSuffix(u.ASCIIHost)
		if etld1, err := publicsuffix.EffectiveTLDPlusOne(u.ASCIIHost); err == nil {
			u.RegistrableDomain = etld1
		}
	}

	u.DecodedPath, u.DecodeRounds, u.HitDecodeBound = DecodeBounded(parsed.Path, MaxDecodeRounds)
	dq, qRounds, qHit := DecodeBounded(parsed.RawQuery, MaxDecodeRounds)
	u.DecodedQuery = dq
	if qRounds > u.DecodeRounds {
		u.DecodeRounds = qRounds
	}
	u.HitDecodeBound = u.HitDecodeBound || qHit

	u.Normalized = rebuild(parsed, host, u.Scheme)
	return u, nil
}

// rebuild produces the canonical string form: fragment dropped, host lowered,
// default ports stripped, trailing path slash trimmed.
func rebuild(parsed *url.URL, host, scheme string) string {
	clone := *parsed
	clone.Fragment = ""
	clone.Scheme = scheme

	hostPort := host
	if p := parsed.Port(); p != "" {
		if !((scheme == "http" && p == "80") || (scheme == "https" && p == "443")) {
			hostPort = net.JoinHostPort(host, p)
		}
	} else if strings.Contains(host, ":") {
		// bare IPv6 literal needs brackets back
		hostPort = "[" + host + "]"
	}
	clone.Host = hostPort
	clone.Path = strings.TrimRight(clone.Path, "/")
	return clone.String()
}

// DecodeBounded percent-decodes s repeatedly until it stops changing or max
// rounds have run. It reports the decoded string, how many rounds changed
// something, and whether a further round would still have changed the string.
func DecodeBounded(s string, max int) (decoded string, rounds int, hitBound bool) {
	decoded = s
	for i := 0; i < max; i++ {
		next, err := url.QueryUnescape(decoded)
		if err != nil || next == decoded {
			return decoded, rounds, false
		}
		decoded = next
		rounds++
	}
	if next, err := url.QueryUnescape(decoded); err == nil && next != decoded {
		hitBound = true
	}
	return decoded, rounds, hitBound
}

// IsIP reports whether the host is a literal IPv4 or IPv6 address.
func (u *URL) IsIP() bool { return u.IsIPv4 || u.IsIPv6 }

// HostLabels returns the dot-separated labels of the normalized host.
func (u *URL) HostLabels() []string {
	if u.Host == "" || u.IsIP() {
		return nil
	}
	return strings.Split(u.Host, ".")
}

// SubdomainCount returns how many labels sit above the registrable domain.
// For hosts without a known registrable domain it falls back to a dot count.
func (u *URL) SubdomainCount() int {
	if u.IsIP() {
		return 0
	}
	labels := len(u.HostLabels())
	if u.RegistrableDomain != "" {
		base := len(strings.Split(u.RegistrableDomain, "."))
		if labels > base {
			return labels - base
		}
		return 0
	}
	if labels > 2 {
		return labels - 2
	}
	return 0
}

// DomainLabel returns the label immediately under the public suffix
// ("paypal" for paypal.com), the unit brand comparison works on.
func (u *URL) DomainLabel() string {
	if u.RegistrableDomain == "" {
		return ""
	}
	label, _, _ := strings.Cut(u.RegistrableDomain, ".")
	return label
}

// PathSegments returns the non-empty, decoded path segments.
func (u *URL) PathSegments() []string {
	var segs []string
	for _, s := range strings.Split(u.DecodedPath, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
