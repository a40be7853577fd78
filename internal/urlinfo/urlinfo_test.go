package urlinfo

import (
	"errors"
	"testing"
)

func TestParse_DefaultsSchemeToHTTP(t *testing.T) {
	u, err := Parse("example.com/path")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Errorf("expected scheme http, got %q", u.Scheme)
	}
	if u.Host != "example.com" {
		t.Errorf("expected host example.com, got %q", u.Host)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{"", "   ", "http://", "://nohost", "%zz"}
	for _, raw := range cases {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformedURL) {
			t.Errorf("Parse(%q): expected ErrMalformedURL, got %v", raw, err)
		}
	}
}

func TestParse_LowercasesAndStripsDefaultPort(t *testing.T) {
	u, err := Parse("HTTPS://WWW.Example.COM:443/Login/")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if u.Host != "www.example.com" {
		t.Errorf("expected lowered host, got %q", u.Host)
	}
	if u.Port != "443" {
		t.Errorf("expected recorded port 443, got %q", u.Port)
	}
	if got, want := u.Normalized, "https://www.example.com/Login"; got != want {
		t.Errorf("normalized = %q, want %q", got, want)
	}
}

func TestParse_KeepsNonDefaultPort(t *testing.T) {
	u, err := Parse("http://example.com:8443/x")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got, want := u.Normalized, "http://example.com:8443/x"; got != want {
		t.Errorf("normalized = %q, want %q", got, want)
	}
}

func TestParse_IPLiterals(t *testing.T) {
	u, err := Parse("http://192.168.1.1/account/verify")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !u.IsIPv4 || u.IsIPv6 {
		t.Errorf("expected IPv4 literal, got IsIPv4=%v IsIPv6=%v", u.IsIPv4, u.IsIPv6)
	}
	if u.RegistrableDomain != "" {
		t.Errorf("IP host must have no registrable domain, got %q", u.RegistrableDomain)
	}

	u6, err := Parse("http://[2001:db8::1]/x")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !u6.IsIPv6 {
		t.Errorf("expected IPv6 literal")
	}
}

func TestParse_RegistrableDomainAndSuffix(t *testing.T) {
	u, err := Parse("https://www.commbank.com.au")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if u.RegistrableDomain != "commbank.com.au" {
		t.Errorf("registrable = %q, want commbank.com.au", u.RegistrableDomain)
	}
	if u.PublicSuffix != "com.au" {
		t.Errorf("suffix = %q, want com.au", u.PublicSuffix)
	}
	if u.DomainLabel() != "commbank" {
		t.Errorf("domain label = %q, want commbank", u.DomainLabel())
	}
	if u.SubdomainCount() != 1 {
		t.Errorf("subdomains = %d, want 1", u.SubdomainCount())
	}
}

func TestParse_NormalizationIdempotent(t *testing.T) {
	cases := []string{
		"HTTP://Example.COM:80/a/b/",
		"https://www.commbank.com.au",
		"http://paypa1-secure.tk/login?next=x",
	}
	for _, raw := range cases {
		first, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		second, err := Parse(first.Normalized)
		if err != nil {
			t.Fatalf("Parse(normalized %q): %v", first.Normalized, err)
		}
		if first.Normalized != second.Normalized {
			t.Errorf("normalization not idempotent: %q -> %q", first.Normalized, second.Normalized)
		}
	}
}

func TestDecodeBounded(t *testing.T) {
	cases := []struct {
		in       string
		want     string
		rounds   int
		hitBound bool
	}{
		{"plain", "plain", 0, false},
		{"a%20b", "a b", 1, false},
		{"a%2520b", "a b", 2, false},
		{"a%252520b", "a b", 3, false},
		{"a%25252520b", "a%20b", 3, true},
	}
	for _, tc := range cases {
		got, rounds, hit := DecodeBounded(tc.in, MaxDecodeRounds)
		if got != tc.want || rounds != tc.rounds || hit != tc.hitBound {
			t.Errorf("DecodeBounded(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.in, got, rounds, hit, tc.want, tc.rounds, tc.hitBound)
		}
	}
}

func TestParse_UserInfo(t *testing.T) {
	u, err := Parse("http://paypal.com@evil.example/login")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !u.HasUserInfo {
		t.Errorf("expected userinfo to be detected")
	}
	if u.Host != "evil.example" {
		t.Errorf("host = %q, want evil.example", u.Host)
	}
}

func TestParse_PunycodeHost(t *testing.T) {
	u, err := Parse("http://xn--pple-43d.com/")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if u.UnicodeHost == u.ASCIIHost {
		t.Errorf("expected punycode to decode to a distinct unicode host, got %q", u.UnicodeHost)
	}
}
