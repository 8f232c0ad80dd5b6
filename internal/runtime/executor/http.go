package executor

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/util"
)

type statusErr struct {
	code int
	msg  string
}

func (e statusErr) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("status %d", e.code)
}

func (e statusErr) StatusCode() int { return e.code }

// NewStatusError returns an error carrying an upstream HTTP status.
func NewStatusError(code int, msg string) error {
	return statusErr{code: code, msg: msg}
}

// newProxyAwareHTTPClient returns an HTTP client honouring the configured proxy-url.
// A zero timeout leaves the client without a deadline, which streaming calls rely on.
func newProxyAwareHTTPClient(cfg *config.Config, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if cfg == nil {
		return client
	}
	return util.SetProxy(&cfg.SDKConfig, client)
}

// NewHTTPClient is the exported form of newProxyAwareHTTPClient.
func NewHTTPClient(cfg *config.Config, timeout time.Duration) *http.Client {
	return newProxyAwareHTTPClient(cfg, timeout)
}

// DecodeResponseBody wraps body with a decoder for the given Content-Encoding.
// Unknown or empty encodings return body unchanged.
func DecodeResponseBody(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return &decodedBody{Reader: reader, closers: []io.Closer{reader, body}}, nil
	case "deflate":
		reader := flate.NewReader(body)
		return &decodedBody{Reader: reader, closers: []io.Closer{reader, body}}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(body), closers: []io.Closer{body}}, nil
	case "zstd":
		decoder, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return &decodedBody{Reader: decoder, closers: []io.Closer{zstdCloser{decoder}, body}}, nil
	default:
		log.Debugf("unknown content encoding %q, passing body through", contentEncoding)
		return body, nil
	}
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedBody) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
