package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestShouldLogRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
		want bool
	}{
		{name: "nil request", req: nil, want: false},
		{name: "chat completions post", req: &http.Request{Method: http.MethodPost, URL: &url.URL{Path: "/v1/chat/completions"}}, want: true},
		{name: "gemini post", req: &http.Request{Method: http.MethodPost, URL: &url.URL{Path: "/v1beta/models/gemini:generateContent"}}, want: true},
		{name: "get is skipped", req: &http.Request{Method: http.MethodGet, URL: &url.URL{Path: "/v1/models"}}, want: false},
		{name: "metrics is skipped", req: &http.Request{Method: http.MethodPost, URL: &url.URL{Path: "/metrics"}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldLogRequest(tt.req); got != tt.want {
				t.Fatalf("shouldLogRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestLoggingRestoresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLoggingMiddleware(func() bool { return true }))
	var seen string
	router.POST("/v1/messages", func(c *gin.Context) {
		data, _ := io.ReadAll(c.Request.Body)
		seen = string(data)
		c.Status(http.StatusNoContent)
	})

	body := `{"model":"claude","messages":[]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/messages?key=secret", strings.NewReader(body)))

	if seen != body {
		t.Fatalf("handler saw %q, want %q", seen, body)
	}
}

func TestMaskedHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer sk-1234567890abcdef")
	h.Set("X-Api-Key", "sk-ant-1234567890")
	h.Set("Content-Type", "application/json")

	masked := maskedHeaders(h)
	if strings.Contains(masked["Authorization"], "1234567890abcdef") {
		t.Fatalf("authorization not masked: %q", masked["Authorization"])
	}
	if masked["X-Api-Key"] == "sk-ant-1234567890" {
		t.Fatalf("api key not masked")
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("content type altered: %q", masked["Content-Type"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keys := []string{"k1"}
	router := gin.New()
	router.Use(AuthMiddleware(func() []string { return keys }))
	router.POST("/v1/chat/completions", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		mutate func(r *http.Request)
		want   int
	}{
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer k1") }, http.StatusOK},
		{"x-api-key", func(r *http.Request) { r.Header.Set("X-Api-Key", "k1") }, http.StatusOK},
		{"goog header", func(r *http.Request) { r.Header.Set("X-Goog-Api-Key", "k1") }, http.StatusOK},
		{"query", func(r *http.Request) { r.URL.RawQuery = "key=k1" }, http.StatusOK},
		{"wrong", func(r *http.Request) { r.Header.Set("X-Api-Key", "nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader("{}"))
			tc.mutate(req)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}

	keys = nil
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader("{}")))
	if rec.Code != http.StatusOK {
		t.Fatalf("auth should be disabled without keys, got %d", rec.Code)
	}
}
