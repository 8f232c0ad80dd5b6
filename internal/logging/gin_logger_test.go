package logging

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

func TestGinLogrusRecoveryRepanicsErrAbortHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(GinLogrusRecovery())
	engine.GET("/abort", func(c *gin.Context) {
		panic(http.ErrAbortHandler)
	})

	req := httptest.NewRequest(http.MethodGet, "/abort", nil)
	recorder := httptest.NewRecorder()

	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatalf("expected panic, got nil")
		}
		err, ok := recovered.(error)
		if !ok {
			t.Fatalf("expected error panic, got %T", recovered)
		}
		if !errors.Is(err, http.ErrAbortHandler) {
			t.Fatalf("expected ErrAbortHandler, got %v", err)
		}
		if err != http.ErrAbortHandler {
			t.Fatalf("expected exact ErrAbortHandler sentinel, got %v", err)
		}
	}()

	engine.ServeHTTP(recorder, req)
}

func TestGinLogrusRecoveryHandlesRegularPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(GinLogrusRecovery())
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if got := gjson.Get(recorder.Body.String(), "error.type").String(); got != "server_error" {
		t.Fatalf("error.type = %q, body %s", got, recorder.Body.String())
	}
}

func TestGinLogrusLoggerAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	engine := gin.New()
	engine.Use(GinLogrusLogger())
	engine.POST("/v1/messages", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	engine.GET("/healthz", func(c *gin.Context) {
		if GetGinRequestID(c) != "" {
			t.Errorf("health check should not get a request id")
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/messages", nil))
	if len(seen) != 8 {
		t.Fatalf("request id = %q, want 8 hex chars", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.Header.Set(RequestIDHeader, "client-trace-7")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "client-trace-7" {
		t.Fatalf("inbound request id not reused, got %q", seen)
	}

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
}

func TestRoundLatency(t *testing.T) {
	if got := roundLatency(1234567 * time.Nanosecond); got != time.Millisecond {
		t.Fatalf("roundLatency(1.23ms) = %v", got)
	}
	if got := roundLatency(90*time.Second + 400*time.Millisecond); got != 90*time.Second {
		t.Fatalf("roundLatency(90.4s) = %v", got)
	}
}

func TestLogFormatter(t *testing.T) {
	entry := log.WithFields(log.Fields{"request_id": "abcd1234", "provider": "claude"})
	entry.Level = log.WarnLevel
	entry.Message = "upstream retry\n"
	out, err := (&LogFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	line := string(out)
	for _, want := range []string{"[abcd1234]", "[warn ]", "upstream retry provider=claude\n"} {
		if !strings.Contains(line, want) {
			t.Fatalf("formatted line %q missing %q", line, want)
		}
	}
}
