package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds a Transport proxy function from explicit settings.
// With no explicit proxies it defers to the standard environment
// variables. noProxy is a comma-separated list of hosts and host
// suffixes that bypass the proxy entirely.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := splitNoProxy(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if hostBypassed(req.URL.Hostname(), bypass) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func splitNoProxy(noProxy string) []string {
	var out []string
	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.TrimSpace(strings.ToLower(entry))
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func hostBypassed(host string, bypass []string) bool {
	host = strings.ToLower(host)
	for _, entry := range bypass {
		if entry == "*" || host == entry {
			return true
		}
		if strings.HasPrefix(entry, ".") && strings.HasSuffix(host, entry) {
			return true
		}
		if strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
