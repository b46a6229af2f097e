package networking

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"hlsgate/models"
	"hlsgate/util"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

var (
	defaultClient     *http.Client
	defaultClientOnce sync.Once
)

// GetDefaultHTTPClient is the shared client for the key-exchange service.
// requests are bounded by their context, the client timeout is a backstop
func GetDefaultHTTPClient() *http.Client {
	defaultClientOnce.Do(func() {
		defaultClient = &http.Client{
			Transport: newTransport(0),
			Timeout:   60 * time.Second,
		}
	})
	return defaultClient
}

// newTransport returns a transport tuned for many small requests to few
// hosts. headerTimeout of zero leaves the wait for response headers to the
// request context
func newTransport(headerTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: headerTimeout,
	}
}

// OriginClients hands out one HTTP client per origin host,
// applying the host's proxy, header and cookie settings.
type OriginClients struct {
	timeout   time.Duration
	userAgent string
	fallback  *models.OriginConfig
	origins   map[string]*models.OriginConfig

	mu      sync.Mutex
	clients map[string]*http.Client
}

func NewOriginClients(
	env *models.EnvConfig,
	origins map[string]*models.OriginConfig,
) *OriginClients {
	if origins == nil {
		origins = make(map[string]*models.OriginConfig)
	}
	return &OriginClients{
		timeout:   env.OriginTimeout,
		userAgent: env.UserAgent,
		fallback: &models.OriginConfig{
			HTTPProxy:  env.HTTPProxy,
			HTTPSProxy: env.HTTPSProxy,
			NoProxy:    env.NoProxy,
		},
		origins: origins,
		clients: make(map[string]*http.Client),
	}
}

func (c *OriginClients) configFor(host string) *models.OriginConfig {
	if cfg, ok := c.origins[host]; ok {
		return cfg
	}
	return c.fallback
}

func (c *OriginClients) clientFor(host string) *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[host]; ok {
		return client
	}
	client := c.newClient(c.configFor(host))
	c.clients[host] = client
	return client
}

func (c *OriginClients) newClient(cfg *models.OriginConfig) *http.Client {
	transport := newTransport(c.timeout)
	if proxy := originProxy(cfg); proxy != nil {
		transport.Proxy = proxy
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		zap.S().Warnf("failed to create cookie jar: %v", err)
	} else {
		client.Jar = jar
	}
	return client
}

// Get issues a GET to an origin with the origin's headers and cookies.
// The caller owns the response body.
func (c *OriginClients) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", parsedURL.Scheme)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	host := parsedURL.Hostname()
	cfg := c.configFor(host)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}
	if cfg.Cookies != "" {
		cookies, err := util.ParseCookieFile(cfg.Cookies)
		if err != nil {
			zap.S().Warnf("failed to load cookies for %s: %v", host, err)
		}
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}
	}
	return c.clientFor(host).Do(req)
}
