package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/metrics"
	"github.com/bnema/guac-console/internal/ports"
	"github.com/jonboulle/clockwork"
)

const defaultMaxResponseBytes = 32 << 20

// ErrResponseTooLarge is returned instead of a truncated body.
var ErrResponseTooLarge = errors.New("response body exceeds limit")

type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	Credentials ports.CredentialProvider
	// Cache may be nil, in which case cached descriptors always go to the network.
	Cache   ports.ResponseCache
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Metrics *metrics.Metrics
	// MaxResponseBytes bounds a response body; zero means 32 MiB.
	MaxResponseBytes int64
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base url is required")
	}
	if c.Credentials == nil {
		return errors.New("credential provider is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New(nil)
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	return nil
}

// Client executes request descriptors against the remote API with credentials
// attached, consulting and populating the response cache.
type Client struct {
	cfg  Config
	base *url.URL
}

var _ ports.Requester = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, base: base}, nil
}

func (c *Client) Request(ctx context.Context, d domain.RequestDescriptor) (domain.Response, error) {
	if err := validateDescriptor(d); err != nil {
		return domain.Response{}, err
	}

	log := c.cfg.Logger.With("method", d.Method, "path", d.Path)

	var key string
	var generation uint64
	if d.Cached() && c.cfg.Cache != nil {
		key = CacheKey(d)
		generation = c.cfg.Cache.Generation(d.Cache)
		if cached, ok := c.cfg.Cache.Get(d.Cache, key); ok {
			log.Debug("cache hit", "namespace", d.Cache)
			c.cfg.Metrics.RequestsTotal.WithLabelValues(d.Method, metrics.ResultCacheHit).Inc()
			return cached, nil
		}
		log.Debug("cache miss", "namespace", d.Cache)
	}

	resp, err := c.dispatchWithReauth(ctx, log, d)
	c.cfg.Metrics.RequestsTotal.WithLabelValues(d.Method, resultLabel(err)).Inc()
	if err != nil {
		return domain.Response{}, err
	}

	if key != "" && !c.cfg.Cache.PutIfGeneration(d.Cache, key, generation, resp) {
		log.Debug("namespace invalidated while in flight, response not cached", "namespace", d.Cache)
	}

	return resp, nil
}

func (c *Client) dispatchWithReauth(ctx context.Context, log *slog.Logger, d domain.RequestDescriptor) (domain.Response, error) {
	resp, err := c.dispatch(ctx, d)
	if err != nil {
		return domain.Response{}, err
	}
	if !isAuthExpiry(resp.StatusCode) {
		return checkStatus(resp)
	}

	log.Warn("credentials rejected, reauthenticating", "status", resp.StatusCode)
	if err := c.cfg.Credentials.Reauthenticate(ctx); err != nil {
		c.cfg.Metrics.ReauthenticationsTotal.WithLabelValues(metrics.ResultError).Inc()
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.Response{}, fmt.Errorf("reauthenticate: %w", err)
		}
		return domain.Response{}, fmt.Errorf("%w: reauthenticate: %w", domain.ErrUnauthenticated, err)
	}
	c.cfg.Metrics.ReauthenticationsTotal.WithLabelValues(metrics.ResultOK).Inc()

	retry, err := c.dispatch(ctx, d)
	if err != nil {
		return domain.Response{}, err
	}
	if isAuthExpiry(retry.StatusCode) {
		return domain.Response{}, fmt.Errorf("%w: credentials rejected after reauthentication (status %d)", domain.ErrUnauthenticated, retry.StatusCode)
	}
	return checkStatus(retry)
}

func (c *Client) dispatch(ctx context.Context, d domain.RequestDescriptor) (domain.Response, error) {
	endpoint, err := c.resolve(d)
	if err != nil {
		return domain.Response{}, err
	}

	var body io.Reader
	if d.Body != nil {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, endpoint, body)
	if err != nil {
		return domain.Response{}, fmt.Errorf("create request: %w", err)
	}
	if d.ContentType != "" {
		req.Header.Set("Content-Type", d.ContentType)
	}
	req.Header.Set("User-Agent", "guacc")

	if err := c.cfg.Credentials.AttachCredentials(ctx, req); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.Response{}, err
		}
		return domain.Response{}, fmt.Errorf("%w: attach credentials: %w", domain.ErrUnauthenticated, err)
	}

	start := c.cfg.Clock.Now()
	httpResp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %s %s: %w", domain.ErrUnreachable, d.Method, d.Path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	limit := c.cfg.MaxResponseBytes
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, limit+1))
	c.cfg.Metrics.RequestDuration.WithLabelValues(d.Method).Observe(c.cfg.Clock.Since(start).Seconds())
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: read response: %w", domain.ErrUnreachable, err)
	}
	if int64(len(data)) > limit {
		return domain.Response{}, fmt.Errorf("%s %s: %w (%d bytes)", d.Method, d.Path, ErrResponseTooLarge, limit)
	}

	return domain.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       data,
	}, nil
}

func (c *Client) resolve(d domain.RequestDescriptor) (string, error) {
	endpoint, err := c.base.Parse(strings.TrimLeft(d.Path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse request path: %w", err)
	}
	if len(d.Params) > 0 {
		endpoint.RawQuery = d.Params.Encode()
	}
	return endpoint.String(), nil
}

// CacheKey resolves the cache key of a descriptor within its namespace.
func CacheKey(d domain.RequestDescriptor) string {
	var b strings.Builder
	if d.Partition != "" {
		b.WriteString(d.Partition)
		b.WriteByte('|')
	}
	b.WriteString(strings.ToUpper(d.Method))
	b.WriteByte(' ')
	b.WriteString(strings.TrimLeft(d.Path, "/"))
	if len(d.Params) > 0 {
		b.WriteByte('?')
		b.WriteString(d.Params.Encode())
	}
	return b.String()
}

func checkStatus(resp domain.Response) (domain.Response, error) {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.Response{}, &domain.RemoteRejectedError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

func isAuthExpiry(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func resultLabel(err error) string {
	var rejected *domain.RemoteRejectedError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, domain.ErrUnauthenticated):
		return metrics.ResultUnauthenticated
	case errors.Is(err, domain.ErrUnreachable):
		return metrics.ResultUnreachable
	case errors.As(err, &rejected):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

func validateDescriptor(d domain.RequestDescriptor) error {
	if d.Method == "" {
		return errors.New("request method is required")
	}
	if d.Path == "" {
		return errors.New("request path is required")
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}
