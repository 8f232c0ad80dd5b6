// Package executor implements the provider executors: per-backend request builders that
// produce the outbound URL, headers and body for a canonical request, and refresh OAuth
// credentials against the provider's token endpoint.
package executor

import (
	"context"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"golang.org/x/oauth2"
)

const refreshTimeout = 30 * time.Second

// baseExecutor carries the configuration shared by every variant.
type baseExecutor struct {
	cfg          *config.Config
	id           string
	format       sdktranslator.Format
	baseURLs     []string
	headers      map[string]string
	userAgent    string
	tokenURL     string
	clientID     string
	clientSecret string
	// transport replaces the proxy-aware default for upstream and token calls.
	transport http.RoundTripper
}

func newBaseExecutor(cfg *config.Config, id string, format sdktranslator.Format, defaultURLs []string, defaultTokenURL, defaultAgent string) baseExecutor {
	pc := cfg.Provider(id)
	urls := make([]string, 0, len(pc.BaseURLs))
	for _, u := range pc.BaseURLs {
		if u = strings.TrimSuffix(strings.TrimSpace(u), "/"); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 && len(pc.BaseURLs) == 0 {
		urls = append(urls, defaultURLs...)
	}
	b := baseExecutor{
		cfg:          cfg,
		id:           id,
		format:       format,
		baseURLs:     urls,
		headers:      pc.Headers,
		userAgent:    strings.TrimSpace(pc.UserAgent),
		tokenURL:     strings.TrimSpace(pc.TokenURL),
		clientID:     pc.ClientID,
		clientSecret: pc.ClientSecret,
	}
	if b.userAgent == "" {
		b.userAgent = defaultAgent
	}
	if b.tokenURL == "" {
		b.tokenURL = defaultTokenURL
	}
	return b
}

func (e *baseExecutor) Identifier() string { return e.id }

func (e *baseExecutor) Format() sdktranslator.Format { return e.format }

func (e *baseExecutor) URLCount() int { return len(e.baseURLs) }

// baseURL returns the pool entry at urlIndex, falling back to the first entry.
func (e *baseExecutor) baseURL(urlIndex int) (string, error) {
	if len(e.baseURLs) == 0 {
		return "", &cliproxyexecutor.ProviderConfigError{Provider: e.id, Reason: "empty base URL pool"}
	}
	if urlIndex < 0 || urlIndex >= len(e.baseURLs) {
		return e.baseURLs[0], nil
	}
	return e.baseURLs[urlIndex], nil
}

// httpClient returns a client over the executor's transport, or the proxy-aware default.
func (e *baseExecutor) httpClient(timeout time.Duration) *http.Client {
	if e.transport != nil {
		return &http.Client{Transport: e.transport, Timeout: timeout}
	}
	return newProxyAwareHTTPClient(e.cfg, timeout)
}

// commonHeaders builds the headers every variant sends.
func (e *baseExecutor) commonHeaders(stream bool) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	if stream {
		h.Set("Accept", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
	} else {
		h.Set("Accept", "application/json")
	}
	if e.userAgent != "" {
		h.Set("User-Agent", e.userAgent)
	}
	for k, v := range e.headers {
		h.Set(k, v)
	}
	return h
}

// RefreshCredentials exchanges the refresh token for a new access token using a
// form-encoded refresh_token grant. Fields the token endpoint does not reissue are
// carried over from creds.
func (e *baseExecutor) RefreshCredentials(ctx context.Context, creds *cliproxyexecutor.Credentials, logger *log.Entry) *cliproxyexecutor.Credentials {
	if logger == nil {
		logger = log.WithField("provider", e.id)
	}
	if !creds.Refreshable() {
		return nil
	}
	if e.tokenURL == "" {
		logger.Debug("credential refresh skipped: no token url configured")
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	conf := &oauth2.Config{
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  e.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient(refreshTimeout))

	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	tok, errToken := src.Token()
	if errToken != nil {
		logger.Warnf("credential refresh failed: %v", errToken)
		return nil
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		logger.Warn("credential refresh returned an empty access token")
		return nil
	}

	refreshed := creds.Clone()
	refreshed.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	refreshed.Expiry = tok.Expiry
	refreshed.ExpiresIn = 0
	if !tok.Expiry.IsZero() {
		refreshed.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	logger.Debugf("credential refreshed, expires in %ds", refreshed.ExpiresIn)
	return refreshed
}

// bearer returns the token sent in the Authorization header.
func bearer(creds *cliproxyexecutor.Credentials) string {
	if creds == nil {
		return ""
	}
	if key := strings.TrimSpace(creds.APIKey); key != "" {
		return key
	}
	return strings.TrimSpace(creds.AccessToken)
}
