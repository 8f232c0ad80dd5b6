// Package middleware provides HTTP middleware components for the gateway server.
package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/logging"
	"github.com/streambridge/streambridge/internal/util"
)

const maxCapturedRequestBodyBytes int64 = 1 << 20 // 1 MiB

// RequestLoggingMiddleware logs the inbound request of every AI route at debug level
// while enabled reports true. Sensitive headers and query parameters are masked.
func RequestLoggingMiddleware(enabled func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled == nil || !enabled() || !shouldLogRequest(c.Request) {
			c.Next()
			return
		}

		body, err := captureRequestBody(c)
		if err != nil {
			c.Next()
			return
		}

		entry := log.WithField("request_id", logging.GetGinRequestID(c))
		entry.WithField("headers", maskedHeaders(c.Request.Header)).
			Debugf("%s %s body=%s", c.Request.Method, requestURL(c.Request), body)

		c.Next()

		entry.WithField("status", c.Writer.Status()).Debugf("%s %s completed", c.Request.Method, c.Request.URL.Path)
	}
}

func shouldLogRequest(req *http.Request) bool {
	if req == nil || req.URL == nil || req.Method != http.MethodPost {
		return false
	}
	return strings.HasPrefix(req.URL.Path, "/v1/") || strings.HasPrefix(req.URL.Path, "/v1beta/")
}

func requestURL(req *http.Request) string {
	maskedQuery := util.MaskSensitiveQuery(req.URL.RawQuery)
	if maskedQuery == "" {
		return req.URL.Path
	}
	return req.URL.Path + "?" + maskedQuery
}

// captureRequestBody reads the body for logging and restores it for the handler.
// Bodies larger than the capture limit are left unread.
func captureRequestBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil || c.Request.ContentLength > maxCapturedRequestBodyBytes {
		return nil, nil
	}
	bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCapturedRequestBodyBytes+1))
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), c.Request.Body))
	if int64(len(bodyBytes)) > maxCapturedRequestBodyBytes {
		return bodyBytes[:maxCapturedRequestBodyBytes], nil
	}
	return bodyBytes, nil
}

func maskedHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		value := strings.Join(values, ", ")
		switch http.CanonicalHeaderKey(key) {
		case "Authorization", "Proxy-Authorization":
			value = util.MaskAuthorizationHeader(value)
		case "X-Api-Key", "X-Goog-Api-Key", "Api-Key":
			value = util.HideAPIKey(value)
		}
		out[key] = value
	}
	return out
}
