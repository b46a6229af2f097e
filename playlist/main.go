// Package playlist rewrites HLS manifests so that every segment and child
// manifest is fetched back through the proxy.
package playlist

import (
	"net/url"
	"strings"

	"hlsgate/enums"
)

const (
	ContentType      = "application/vnd.apple.mpegurl"
	DefaultProxyPath = "/proxy"
)

type Rewriter struct {
	proxyPath string
}

func NewRewriter(proxyPath string) *Rewriter {
	if proxyPath == "" {
		proxyPath = DefaultProxyPath
	}
	return &Rewriter{proxyPath: proxyPath}
}

// Rewrite drops #EXT-X-KEY directives and points segment and manifest
// references at the proxy, carrying kid when set. All other lines are
// kept verbatim and in order.
func Rewrite(manifest string, fetchURL string, kid string) string {
	return NewRewriter(DefaultProxyPath).Rewrite(manifest, fetchURL, kid)
}

func (r *Rewriter) Rewrite(manifest string, fetchURL string, kid string) string {
	base, err := url.Parse(fetchURL)
	if err != nil {
		base = nil
	}
	lines := strings.Split(manifest, "\n")
	output := make([]string, 0, len(lines))
	for _, line := range lines {
		content, ending := splitLineEnding(line)
		switch ClassifyLine(content) {
		case enums.LineKindKeyDirective:
			continue
		case enums.LineKindSegment, enums.LineKindManifest:
			resolved := resolveReference(base, fetchURL, strings.TrimSpace(content))
			output = append(output, r.ProxyURL(resolved, kid)+ending)
		default:
			output = append(output, line)
		}
	}
	return strings.Join(output, "\n")
}

// ProxyURL builds the proxy-relative URL for an absolute origin URL.
func (r *Rewriter) ProxyURL(target string, kid string) string {
	var sb strings.Builder
	sb.WriteString(r.proxyPath)
	sb.WriteString("?url=")
	sb.WriteString(url.QueryEscape(target))
	if kid != "" {
		sb.WriteString("&kid=")
		sb.WriteString(url.QueryEscape(kid))
	}
	return sb.String()
}

func splitLineEnding(line string) (string, string) {
	if trimmed, ok := strings.CutSuffix(line, "\r"); ok {
		return trimmed, "\r"
	}
	return line, ""
}

// absolute references are returned untouched, relative ones are resolved
// against the manifest's own URL. Without an absolute fetch URL the
// reference is appended to everything up to its last "/", or used as-is
// when there is none.
func resolveReference(base *url.URL, fetchURL string, ref string) string {
	refURL, err := url.Parse(ref)
	if err == nil && refURL.IsAbs() {
		return ref
	}
	if err != nil || base == nil || !base.IsAbs() {
		return fetchURL[:strings.LastIndex(fetchURL, "/")+1] + ref
	}
	return base.ResolveReference(refURL).String()
}
