// Package executor defines the contract every provider executor implements: building the
// outbound URL, headers and body for a backend, and refreshing the credentials used to
// reach it.
package executor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
)

// Credentials is the credential set used to reach one provider.
type Credentials struct {
	// APIKey is a static key. Executors prefer it over AccessToken when both are present.
	APIKey string
	// AccessToken is an OAuth bearer token.
	AccessToken string
	// RefreshToken allows AccessToken to be re-issued. Empty means not refreshable.
	RefreshToken string
	// ProjectID is the provider project identifier (Cloud Code backends).
	ProjectID string
	// SessionID is the provider session identifier (Cloud Code backends).
	SessionID string
	// ExpiresIn is the lifetime in seconds reported by the token endpoint.
	ExpiresIn int64
	// Expiry is the absolute expiry derived from ExpiresIn, zero when unknown.
	Expiry time.Time
}

// Clone returns a copy of c. Cloning nil yields nil.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Refreshable reports whether the set carries a refresh token.
func (c *Credentials) Refreshable() bool {
	return c != nil && c.RefreshToken != ""
}

// ProviderExecutor builds outbound requests for one backend provider.
// Implementations hold static configuration only and are safe for concurrent use.
type ProviderExecutor interface {
	// Identifier returns the provider identifier the executor was built for.
	Identifier() string
	// Format is the wire protocol the backend speaks.
	Format() sdktranslator.Format
	// URLCount returns the size of the base URL pool.
	URLCount() int
	// BuildURL returns the endpoint for model. An out-of-range urlIndex selects the first
	// base URL. An empty pool yields a *ProviderConfigError.
	BuildURL(model string, stream bool, urlIndex int) (string, error)
	// BuildHeaders returns the outbound header set.
	BuildHeaders(creds *Credentials, stream bool) http.Header
	// TransformRequest projects a canonical request body into the backend's native shape.
	TransformRequest(model string, body []byte, stream bool, creds *Credentials) ([]byte, error)
	// RefreshCredentials re-issues the access token. It returns nil when creds carry no
	// refresh token or when the refresh fails; it never returns an error.
	RefreshCredentials(ctx context.Context, creds *Credentials, logger *log.Entry) *Credentials
}

// HTTPClientProvider is implemented by executors whose backend needs its own transport.
// The service uses the returned client instead of the shared proxy-aware one.
type HTTPClientProvider interface {
	HTTPClient() *http.Client
}

// ProviderConfigError reports an executor that cannot build a request from its configuration.
type ProviderConfigError struct {
	Provider string
	Reason   string
}

func (e *ProviderConfigError) Error() string {
	return fmt.Sprintf("provider %s misconfigured: %s", e.Provider, e.Reason)
}

// StatusError represents an error that carries an HTTP-like status code.
type StatusError interface {
	error
	StatusCode() int
}

// Request is one gateway request routed to a provider.
type Request struct {
	// Model is the requested model name.
	Model string
	// Body is the inbound request body in SourceFormat.
	Body []byte
	// SourceFormat is the client protocol, detected by the routing layer.
	SourceFormat sdktranslator.Format
	// Provider is the target provider identifier.
	Provider string
	// Stream toggles streaming mode.
	Stream bool
	// Credentials overrides the stored credentials for this call when set.
	Credentials *Credentials
}

// Response is either a ready-to-send SSE stream or a JSON body.
type Response struct {
	// Headers are the content-type and cache headers for the client response.
	Headers http.Header
	// Body is the JSON body of a non-streaming response.
	Body []byte
	// Stream yields SSE-framed bytes; the protocol sentinel, if any, is the last item.
	// It is nil for non-streaming responses.
	Stream <-chan StreamChunk
	// Credentials is the refreshed credential set, nil when no refresh happened.
	Credentials *Credentials
	// Bypassed is true when the response was synthesized without a backend call.
	Bypassed bool
}

// StreamChunk is one SSE-framed unit of a streaming response.
type StreamChunk struct {
	// Payload is the framed bytes.
	Payload []byte
	// Err reports a terminal error; it is always the last item on the channel.
	Err error
}
