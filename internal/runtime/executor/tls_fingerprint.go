package executor

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/util"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// fingerprintTransport sends https requests over HTTP/2 behind a Chrome ClientHello so the
// Anthropic edge sees the handshake of a browser-grade client. Plain http requests, and every
// request when an HTTP proxy is configured, go through the regular proxy-aware transport.
type fingerprintTransport struct {
	h2       *http2.Transport
	dialer   proxy.ContextDialer
	fallback http.RoundTripper
}

func newFingerprintTransport(cfg *config.SDKConfig) *fingerprintTransport {
	t := &fingerprintTransport{fallback: util.SetProxy(cfg, &http.Client{}).Transport}
	if t.fallback == nil {
		t.fallback = http.DefaultTransport
	}
	dialer, ok := fingerprintDialer(cfg)
	if !ok {
		return t
	}
	t.dialer = dialer
	t.h2 = &http2.Transport{DialTLSContext: t.dialTLS}
	return t
}

// fingerprintDialer returns the TCP dialer for the configured proxy-url. It reports false
// when the proxy cannot carry a raw TLS handshake.
func fingerprintDialer(cfg *config.SDKConfig) (proxy.ContextDialer, bool) {
	direct := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	if cfg == nil || strings.TrimSpace(cfg.ProxyURL) == "" {
		return direct, true
	}
	proxyURL, err := url.Parse(strings.TrimSpace(cfg.ProxyURL))
	if err != nil {
		return direct, true
	}
	switch proxyURL.Scheme {
	case "socks5", "socks5h":
		d, errDialer := proxy.FromURL(proxyURL, direct)
		if errDialer != nil {
			log.Errorf("create SOCKS5 dialer for tls fingerprint failed: %v", errDialer)
			return nil, false
		}
		cd, isContext := d.(proxy.ContextDialer)
		if !isContext {
			return nil, false
		}
		return cd, true
	case "http", "https":
		return nil, false
	default:
		return direct, true
	}
}

func (t *fingerprintTransport) dialTLS(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
	serverName := ""
	if cfg != nil {
		serverName = cfg.ServerName
	}
	if serverName == "" {
		host, _, errSplit := net.SplitHostPort(addr)
		if errSplit != nil {
			return nil, errSplit
		}
		serverName = host
	}

	conn, err := t.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	uconn := utls.UClient(conn, &utls.Config{ServerName: serverName}, utls.HelloChrome_Auto)
	if err = uconn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if proto := uconn.ConnectionState().NegotiatedProtocol; proto != http2.NextProtoTLS {
		_ = uconn.Close()
		return nil, fmt.Errorf("tls fingerprint: %s negotiated %q instead of h2", serverName, proto)
	}
	return uconn, nil
}

// RoundTrip implements http.RoundTripper.
func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.h2 == nil || req.URL.Scheme != "https" {
		return t.fallback.RoundTrip(req)
	}
	return t.h2.RoundTrip(req)
}

// CloseIdleConnections releases pooled connections of both transports.
func (t *fingerprintTransport) CloseIdleConnections() {
	if t.h2 != nil {
		t.h2.CloseIdleConnections()
	}
	if c, ok := t.fallback.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
