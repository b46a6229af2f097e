package networking

import (
	"net/http"
	"net/url"
	"strings"

	"hlsgate/models"

	"go.uber.org/zap"
)

// noProxyRules holds NO_PROXY entries: exact hosts, ".suffix" domains or "*"
type noProxyRules []string

func parseNoProxy(value string) noProxyRules {
	var rules noProxyRules
	for _, entry := range strings.Split(value, ",") {
		if entry = strings.ToLower(strings.TrimSpace(entry)); entry != "" {
			rules = append(rules, entry)
		}
	}
	return rules
}

func (rules noProxyRules) bypass(host string) bool {
	host = strings.ToLower(host)
	for _, rule := range rules {
		if rule == "*" || rule == host {
			return true
		}
		if strings.HasPrefix(rule, ".") && strings.HasSuffix(host, rule) {
			return true
		}
	}
	return false
}

// originProxy builds the transport proxy func for an origin.
// returns nil when the origin names no usable proxy
func originProxy(cfg *models.OriginConfig) func(*http.Request) (*url.URL, error) {
	httpProxy := parseProxyURL(cfg.HTTPProxy)
	httpsProxy := parseProxyURL(cfg.HTTPSProxy)
	if httpProxy == nil && httpsProxy == nil {
		return nil
	}
	rules := parseNoProxy(cfg.NoProxy)
	return func(req *http.Request) (*url.URL, error) {
		if rules.bypass(req.URL.Hostname()) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != nil {
			return httpsProxy, nil
		}
		if httpProxy != nil {
			return httpProxy, nil
		}
		return httpsProxy, nil
	}
}

func parseProxyURL(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	proxyURL, err := url.Parse(raw)
	if err != nil || proxyURL.Host == "" {
		zap.S().Warnf("ignoring invalid proxy url %q", raw)
		return nil
	}
	return proxyURL
}
