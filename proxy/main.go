// Package proxy fetches origin resources and turns them into client
// responses: manifests are rewritten, segments with a cached key are
// decrypted, everything else passes through.
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hlsgate/enums"
	"hlsgate/models"
	"hlsgate/playlist"
	"hlsgate/util"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	SegmentContentType     = "video/mp2t"
	DefaultContentType     = "application/octet-stream"
	defaultTimeout         = 15 * time.Second
	defaultMaxBodySize     = 256 * 1024 * 1024
	manifestContentPattern = "mpegurl"
)

// KeyReader is the read side of the key store.
type KeyReader interface {
	Has(kid string) bool
	Get(kid string) (models.DerivedKey, error)
}

// Origin fetches a resource from an origin server.
type Origin interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

type Options struct {
	Timeout     time.Duration
	MaxBodySize int64
	Rewriter    *playlist.Rewriter
}

type Gateway struct {
	keys        KeyReader
	origin      Origin
	rewriter    *playlist.Rewriter
	timeout     time.Duration
	maxBodySize int64
}

func NewGateway(keys KeyReader, origin Origin, opts *Options) *Gateway {
	if opts == nil {
		opts = &Options{}
	}
	gateway := &Gateway{
		keys:        keys,
		origin:      origin,
		rewriter:    opts.Rewriter,
		timeout:     opts.Timeout,
		maxBodySize: opts.MaxBodySize,
	}
	if gateway.rewriter == nil {
		gateway.rewriter = playlist.NewRewriter(playlist.DefaultProxyPath)
	}
	if gateway.timeout <= 0 {
		gateway.timeout = defaultTimeout
	}
	if gateway.maxBodySize <= 0 {
		gateway.maxBodySize = defaultMaxBodySize
	}
	return gateway
}

// Handle fetches target and prepares the response for the client.
// Only origin failures are returned as errors; decryption problems
// degrade to serving the original bytes.
func (g *Gateway) Handle(
	ctx context.Context,
	target string,
	kid string,
) (*models.ProxyResponse, error) {
	body, contentType, err := g.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	switch {
	case isManifest(target, contentType):
		return g.handleManifest(body, target, kid), nil
	case kid != "" && playlist.IsSegmentURL(target):
		if response := g.handleSegment(body, kid); response != nil {
			return response, nil
		}
	}

	if contentType == "" {
		contentType = DefaultContentType
	}
	return &models.ProxyResponse{
		ContentType: contentType,
		Kind:        enums.ContentKindPassthrough,
		Body:        body,
	}, nil
}

func (g *Gateway) handleManifest(body []byte, target string, kid string) *models.ProxyResponse {
	manifest := string(body)
	if zap.L().Core().Enabled(zapcore.DebugLevel) {
		if info, err := playlist.Inspect(manifest); err == nil {
			zap.S().Debugf("rewriting %s: %s", target, info)
		} else {
			zap.S().Debugf("rewriting %s: %v", target, err)
		}
	}
	return &models.ProxyResponse{
		ContentType: playlist.ContentType,
		Kind:        enums.ContentKindManifest,
		Body:        []byte(g.rewriter.Rewrite(manifest, target, kid)),
	}
}

// returns nil when no key is cached for kid
func (g *Gateway) handleSegment(body []byte, kid string) *models.ProxyResponse {
	if !g.keys.Has(kid) {
		zap.S().Debugf("no key cached for kid %s, serving segment as-is", kid)
		return nil
	}
	key, err := g.keys.Get(kid)
	if err != nil {
		return nil
	}
	response := &models.ProxyResponse{
		ContentType: SegmentContentType,
		Kind:        enums.ContentKindSegment,
		Body:        body,
	}
	if util.IsClearSegment(body) {
		return response
	}
	decrypted, err := util.DecryptSegment(body, key)
	if err != nil {
		zap.S().Debugf("serving segment undecrypted (kid %s): %v", kid, err)
		return response
	}
	response.Body = decrypted
	response.Decrypted = true
	return response
}

func (g *Gateway) fetch(ctx context.Context, target string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.origin.Get(ctx, target)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", util.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: origin returned status code %d", util.ErrFetch, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBodySize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to read body: %w", util.ErrFetch, err)
	}
	if int64(len(body)) > g.maxBodySize {
		return nil, "", fmt.Errorf(
			"%w: %w (%s)",
			util.ErrFetch, util.ErrBodyTooLarge,
			humanize.IBytes(uint64(g.maxBodySize)),
		)
	}
	zap.S().Debugf(
		"fetched %s (%s) in %s",
		target, humanize.IBytes(uint64(len(body))), time.Since(start),
	)
	return body, resp.Header.Get("Content-Type"), nil
}

func isManifest(target string, contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), manifestContentPattern) ||
		playlist.IsManifestURL(target)
}
