package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/guac-console/internal/domain"
	"github.com/bnema/guac-console/internal/ports"
	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
)

const (
	// TokenHeader carries the session token on every authenticated request.
	TokenHeader = "Guacamole-Token"

	tokensPath            = "api/tokens"
	maxTokenResponseBytes = 1 << 20
	defaultMaxTries       = 3
)

// ErrInvalidCredentials is returned when the server refuses the username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenClient talks to the token endpoint of the console API.
type TokenClient struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	// MaxTries bounds attempts when the endpoint cannot be reached. Rejections are never retried.
	MaxTries uint
	Clock    clockwork.Clock
	// BackOff overrides the retry schedule; tests use a zero backoff.
	BackOff backoff.BackOff
}

var _ ports.Authenticator = TokenClient{}

type tokenResponse struct {
	AuthToken            string   `json:"authToken"`
	Username             string   `json:"username"`
	DataSource           string   `json:"dataSource"`
	AvailableDataSources []string `json:"availableDataSources"`
}

type apiErrorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Login exchanges a username and password for a session token.
func (c TokenClient) Login(ctx context.Context, username, password, dataSource string) (domain.Session, error) {
	if username == "" {
		return domain.Session{}, errors.New("username is required")
	}

	endpoint, err := buildAPIURL(c.BaseURL, tokensPath)
	if err != nil {
		return domain.Session{}, err
	}

	values := url.Values{}
	values.Set("username", username)
	values.Set("password", password)
	if dataSource != "" {
		values.Set("dataSource", dataSource)
	}
	encoded := values.Encode()

	payload, err := backoff.Retry(ctx, func() (tokenResponse, error) {
		return c.loginOnce(ctx, endpoint, encoded)
	}, backoff.WithBackOff(c.backOff()), backoff.WithMaxTries(c.maxTries()))
	if err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		Token:                payload.AuthToken,
		Username:             payload.Username,
		DataSource:           payload.DataSource,
		AvailableDataSources: payload.AvailableDataSources,
		IssuedAt:             c.clock().Now().UTC(),
	}, nil
}

func (c TokenClient) loginOnce(ctx context.Context, endpoint string, form string) (tokenResponse, error) {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return tokenResponse{}, backoff.Permanent(fmt.Errorf("create token request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("%w: request token: %w", domain.ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return tokenResponse{}, backoff.Permanent(fmt.Errorf("%w: %s", ErrInvalidCredentials, decodeAPIError(resp)))
	case resp.StatusCode >= http.StatusInternalServerError:
		return tokenResponse{}, fmt.Errorf("request token: %s", decodeAPIError(resp))
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return tokenResponse{}, backoff.Permanent(fmt.Errorf("request token: %s", decodeAPIError(resp)))
	}

	var payload tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&payload); err != nil {
		return tokenResponse{}, backoff.Permanent(fmt.Errorf("decode token response: %w", err))
	}
	if payload.AuthToken == "" {
		return tokenResponse{}, backoff.Permanent(errors.New("token response missing authToken"))
	}

	return payload, nil
}

// Logout invalidates token on the server. An already expired token is not an error.
func (c TokenClient) Logout(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required")
	}

	endpoint, err := buildAPIURL(c.BaseURL, tokensPath+"/"+url.PathEscape(token))
	if err != nil {
		return err
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create logout request: %w", err)
	}
	httpReq.Header.Set(TokenHeader, token)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: logout: %w", domain.ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("logout: %s", decodeAPIError(resp))
	}

	return nil
}

func (c TokenClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c TokenClient) clock() clockwork.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return clockwork.NewRealClock()
}

func (c TokenClient) maxTries() uint {
	if c.MaxTries > 0 {
		return c.MaxTries
	}
	return defaultMaxTries
}

func (c TokenClient) backOff() backoff.BackOff {
	if c.BackOff != nil {
		return c.BackOff
	}
	return backoff.NewExponentialBackOff()
}

func (c TokenClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func decodeAPIError(resp *http.Response) string {
	var apiErr apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenResponseBytes)).Decode(&apiErr); err != nil || apiErr.Message == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, apiErr.Message)
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
