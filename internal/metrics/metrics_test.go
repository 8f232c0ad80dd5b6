package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "error"},
		{200, "2xx"},
		{204, "2xx"},
		{401, "4xx"},
		{429, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		if got := StatusClass(tt.code); got != tt.want {
			t.Fatalf("StatusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	reg := sdktranslator.NewRegistry()
	ObserveDrops(reg)
	UpstreamRequestsTotal.WithLabelValues("openai", "2xx").Inc()
	DroppedDeltasTotal.WithLabelValues("claude", "openai").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{
		"streambridge_upstream_requests_total",
		"streambridge_dropped_deltas_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
