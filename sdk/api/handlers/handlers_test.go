package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	"github.com/streambridge/streambridge/sdk/config"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

type fakeExecutor struct {
	resp *cliproxyexecutor.Response
	err  error
	got  cliproxyexecutor.Request
}

func (f *fakeExecutor) Execute(_ context.Context, req cliproxyexecutor.Request) (*cliproxyexecutor.Response, error) {
	f.got = req
	return f.resp, f.err
}

type statusError struct{ code int }

func (e statusError) Error() string {
	return fmt.Sprintf(`{"error":{"message":"upstream %d"}}`, e.code)
}
func (e statusError) StatusCode() int { return e.code }

func TestBuildErrorResponseBody(t *testing.T) {
	cases := []struct {
		status   int
		text     string
		wantType string
		wantCode string
	}{
		{http.StatusUnauthorized, "bad key", "authentication_error", "invalid_api_key"},
		{http.StatusTooManyRequests, "slow down", "rate_limit_error", "rate_limit_exceeded"},
		{http.StatusBadGateway, "boom", "server_error", "internal_server_error"},
		{http.StatusBadRequest, "", "invalid_request_error", ""},
	}
	for _, tc := range cases {
		body := BuildErrorResponseBody(tc.status, tc.text)
		if got := gjson.GetBytes(body, "error.type").String(); got != tc.wantType {
			t.Errorf("status %d: type = %q, want %q", tc.status, got, tc.wantType)
		}
		if got := gjson.GetBytes(body, "error.code").String(); got != tc.wantCode {
			t.Errorf("status %d: code = %q, want %q", tc.status, got, tc.wantCode)
		}
	}
	if got := BuildErrorResponseBody(http.StatusBadRequest, ""); gjson.GetBytes(got, "error.message").String() != "Bad Request" {
		t.Fatalf("empty text should default to status text, got %s", got)
	}

	raw := `{"error":{"message":"upstream said no"}}`
	if got := string(BuildErrorResponseBody(http.StatusForbidden, raw)); got != raw {
		t.Fatalf("JSON error text should pass through, got %s", got)
	}
}

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&sdktranslator.UnsupportedFormatError{Format: "bogus"}, http.StatusBadRequest},
		{&cliproxyexecutor.ProviderConfigError{Provider: "x", Reason: "no base urls"}, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", statusError{code: 429}), http.StatusTooManyRequests},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("dial tcp: refused"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := StatusFromError(tc.err); got != tc.want {
			t.Errorf("StatusFromError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func newTestRouter(h *BaseAPIHandler, format sdktranslator.Format, stream bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		body, _ := c.GetRawData()
		h.Handle(c, format, "m", body, stream)
	})
	return router
}

func TestHandleWritesJSONBody(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	exec := &fakeExecutor{resp: &cliproxyexecutor.Response{Headers: headers, Body: []byte(`{"id":"x"}`)}}
	router := newTestRouter(NewBaseAPIHandlers(&config.SDKConfig{}, exec), sdktranslator.FormatClaude, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"model":"m"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != `{"id":"x"}` {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if exec.got.SourceFormat != sdktranslator.FormatClaude || exec.got.Stream {
		t.Fatalf("unexpected request passed to executor: %+v", exec.got)
	}
}

func TestHandleStreamsFrames(t *testing.T) {
	chunks := make(chan cliproxyexecutor.StreamChunk, 3)
	chunks <- cliproxyexecutor.StreamChunk{Payload: []byte("data: {\"a\":1}\n\n")}
	chunks <- cliproxyexecutor.StreamChunk{Payload: []byte("data: [DONE]\n\n")}
	close(chunks)
	headers := http.Header{}
	headers.Set("Content-Type", "text/event-stream")
	exec := &fakeExecutor{resp: &cliproxyexecutor.Response{Headers: headers, Stream: chunks}}
	router := newTestRouter(NewBaseAPIHandlers(&config.SDKConfig{}, exec), sdktranslator.FormatOpenAI, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`)))

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}
	want := "data: {\"a\":1}\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Fatalf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestHandleStreamTerminalError(t *testing.T) {
	chunks := make(chan cliproxyexecutor.StreamChunk, 2)
	chunks <- cliproxyexecutor.StreamChunk{Payload: []byte("event: message_start\ndata: {}\n\n")}
	chunks <- cliproxyexecutor.StreamChunk{Err: errors.New("upstream reset")}
	close(chunks)
	exec := &fakeExecutor{resp: &cliproxyexecutor.Response{Headers: http.Header{}, Stream: chunks}}
	router := newTestRouter(NewBaseAPIHandlers(&config.SDKConfig{}, exec), sdktranslator.FormatClaude, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`)))

	if !strings.Contains(rec.Body.String(), "event: error\ndata: ") {
		t.Fatalf("expected claude error frame, got %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "upstream reset") {
		t.Fatalf("error message missing from %q", rec.Body.String())
	}
}

func TestHandleExecutionError(t *testing.T) {
	exec := &fakeExecutor{err: &sdktranslator.UnsupportedFormatError{Format: "bogus"}}
	router := newTestRouter(NewBaseAPIHandlers(&config.SDKConfig{}, exec), "bogus", false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if gjson.Get(rec.Body.String(), "error.type").String() != "invalid_request_error" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestStreamingKeepAliveInterval(t *testing.T) {
	if got := StreamingKeepAliveInterval(nil); got != 0 {
		t.Fatalf("nil config interval = %v", got)
	}
	cfg := &config.SDKConfig{Streaming: config.StreamingConfig{KeepAliveSeconds: 15}}
	if got := StreamingKeepAliveInterval(cfg); got.Seconds() != 15 {
		t.Fatalf("interval = %v, want 15s", got)
	}
}

func TestForwardStreamHeartbeatWhenIdle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/messages", nil)

	chunks := make(chan cliproxyexecutor.StreamChunk)
	go func() {
		chunks <- cliproxyexecutor.StreamChunk{Payload: []byte("event: message_start\ndata: {}\n\n")}
		time.Sleep(60 * time.Millisecond)
		close(chunks)
	}()

	cancelled := false
	interval := 10 * time.Millisecond
	h := NewBaseAPIHandlers(nil, nil)
	h.ForwardStream(c, rec, func() { cancelled = true }, chunks, StreamForwardOptions{
		KeepAliveInterval: &interval,
		KeepAliveFrame:    claudePingFrame,
	})

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: message_start") {
		t.Fatalf("first frame missing, body %q", body)
	}
	if !strings.Contains(body, "event: ping\n") {
		t.Fatalf("no heartbeat while idle, body %q", body)
	}
	if !cancelled {
		t.Fatal("cancel not called")
	}
}

func TestUpdateClientsConcurrentWithReads(t *testing.T) {
	h := NewBaseAPIHandlers(&config.SDKConfig{}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(seconds int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.UpdateClients(&config.SDKConfig{Streaming: config.StreamingConfig{KeepAliveSeconds: seconds}})
			}
		}(i + 1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := StreamingKeepAliveInterval(h.Config()); got < 0 {
					t.Errorf("interval = %v", got)
				}
			}
		}()
	}
	wg.Wait()

	h.UpdateClients(&config.SDKConfig{Streaming: config.StreamingConfig{KeepAliveSeconds: 3}})
	if got := StreamingKeepAliveInterval(h.Config()); got != 3*time.Second {
		t.Fatalf("interval after reload = %v, want 3s", got)
	}
}
