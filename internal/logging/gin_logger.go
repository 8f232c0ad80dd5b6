// Package logging configures the process-wide logrus logger and provides the Gin
// middleware for request logging, request IDs and panic recovery.
package logging

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/util"
)

// aiAPIPrefixes defines path prefixes for AI API requests that should have request ID tracking.
var aiAPIPrefixes = []string{
	"/v1/chat/completions",
	"/v1/messages",
	"/v1beta/models/",
}

const skipGinLogKey = "__gin_skip_request_logging__"

// RequestIDHeader carries the request id back to the client. An inbound value is reused.
const RequestIDHeader = "X-Request-Id"

// GinLogrusLogger returns a Gin middleware that logs one entry per request through logrus.
// Requests to the model endpoints get a request ID that follows them into the service logs.
func GinLogrusLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestID string
		if isAIAPIPath(c.Request.URL.Path) {
			requestID = strings.TrimSpace(c.GetHeader(RequestIDHeader))
			if requestID == "" || len(requestID) > 64 {
				requestID = GenerateRequestID()
			}
			SetGinRequestID(c, requestID)
			c.Header(RequestIDHeader, requestID)
			c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		}

		c.Next()

		if shouldSkipGinRequestLogging(c) {
			return
		}

		target := c.Request.URL.Path
		if masked := util.MaskSensitiveQuery(c.Request.URL.RawQuery); masked != "" {
			target += "?" + masked
		}
		status := c.Writer.Status()
		fields := log.Fields{
			"status":  status,
			"latency": roundLatency(time.Since(start)).String(),
			"client":  c.ClientIP(),
		}
		if requestID != "" {
			fields["request_id"] = requestID
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields["error"] = errs
		}

		entry := log.WithFields(fields)
		msg := c.Request.Method + " " + target
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error(msg)
		case status >= http.StatusBadRequest:
			entry.Warn(msg)
		default:
			entry.Info(msg)
		}
	}
}

func roundLatency(d time.Duration) time.Duration {
	if d > time.Minute {
		return d.Truncate(time.Second)
	}
	return d.Truncate(time.Millisecond)
}

// isAIAPIPath checks if the given path is an AI API endpoint that should have request ID tracking.
func isAIAPIPath(path string) bool {
	for _, prefix := range aiAPIPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// GinLogrusRecovery recovers from handler panics, logs them with their stack and answers 500.
func GinLogrusRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
			// net/http aborts the connection for this sentinel.
			panic(http.ErrAbortHandler)
		}

		log.WithFields(log.Fields{
			"panic": recovered,
			"stack": string(debug.Stack()),
			"path":  c.Request.URL.Path,
		}).Error("recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"message": "internal server error",
			"type":    "server_error",
		}})
	})
}

// SkipGinRequestLogging marks the provided Gin context so that GinLogrusLogger
// will skip emitting a log line for the associated request.
func SkipGinRequestLogging(c *gin.Context) {
	if c == nil {
		return
	}
	c.Set(skipGinLogKey, true)
}

func shouldSkipGinRequestLogging(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, exists := c.Get(skipGinLogKey)
	if !exists {
		return false
	}
	flag, ok := val.(bool)
	return ok && flag
}
