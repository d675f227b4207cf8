package util

import (
	"net/http"
	"net/url"
	"testing"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) *url.URL {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proxy, err := fn(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return proxy
}

func TestNewProxyFuncSchemeSelection(t *testing.T) {
	fn := NewProxyFunc("http://proxy.internal:3128", "http://secure.internal:3128", "")

	if got := proxyFor(t, fn, "http://example.com/page"); got == nil || got.Host != "proxy.internal:3128" {
		t.Errorf("http request got proxy %v, want proxy.internal:3128", got)
	}
	if got := proxyFor(t, fn, "https://example.com/page"); got == nil || got.Host != "secure.internal:3128" {
		t.Errorf("https request got proxy %v, want secure.internal:3128", got)
	}
}

func TestNewProxyFuncNoProxyBypass(t *testing.T) {
	fn := NewProxyFunc("http://proxy.internal:3128", "", "localhost, .corp.example.com, nist.gov")

	tests := []struct {
		url    string
		bypass bool
	}{
		{"http://localhost:8080/health", true},
		{"http://wiki.corp.example.com/page", true},
		{"http://nist.gov/units", true},
		{"http://www.nist.gov/units", true},
		{"http://example.com/page", false},
		{"http://notnist.gov/units", false},
	}

	for _, tt := range tests {
		proxy := proxyFor(t, fn, tt.url)
		if tt.bypass && proxy != nil {
			t.Errorf("%s: expected direct connection, got proxy %v", tt.url, proxy)
		}
		if !tt.bypass && proxy == nil {
			t.Errorf("%s: expected proxy, got direct connection", tt.url)
		}
	}
}
