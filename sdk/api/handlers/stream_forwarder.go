package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
)

// sseComment is the heartbeat used when no format-specific one is configured.
var sseComment = []byte(": keep-alive\n\n")

// StreamForwardOptions customizes ForwardStream for one client format.
type StreamForwardOptions struct {
	// KeepAliveInterval overrides the configured interval. Nil uses the configuration,
	// a value <= 0 disables heartbeats.
	KeepAliveInterval *time.Duration

	// WriteTerminalError renders an error after the response has been committed.
	WriteTerminalError func(err error)

	// KeepAliveFrame replaces the SSE comment heartbeat.
	KeepAliveFrame []byte
}

// ForwardStream copies framed chunks to the client until the channel closes, an error
// chunk arrives or the client goes away. Chunks are already SSE-framed and include the
// protocol sentinel. A heartbeat is written only after the stream has been idle for the
// keep-alive interval. cancel is always called before returning.
//
// Parameters:
//   - c: the gin context whose writer receives the stream
//   - flusher: flushes c.Writer after every write
//   - cancel: cancels the upstream request
//   - chunks: framed payloads, or a terminal error, from the service
//   - opts: per-format heartbeat and error rendering
func (h *BaseAPIHandler) ForwardStream(c *gin.Context, flusher http.Flusher, cancel func(), chunks <-chan cliproxyexecutor.StreamChunk, opts StreamForwardOptions) {
	if c == nil || cancel == nil {
		return
	}
	defer cancel()

	heartbeat := opts.KeepAliveFrame
	if len(heartbeat) == 0 {
		heartbeat = sseComment
	}
	interval := StreamingKeepAliveInterval(h.Config())
	if opts.KeepAliveInterval != nil {
		interval = *opts.KeepAliveInterval
	}

	var idle *time.Timer
	var idleC <-chan time.Time
	if interval > 0 {
		idle = time.NewTimer(interval)
		defer idle.Stop()
		idleC = idle.C
	}

	write := func(p []byte) bool {
		if _, err := c.Writer.Write(p); err != nil {
			return false
		}
		flusher.Flush()
		if idle != nil {
			idle.Reset(interval)
		}
		return true
	}

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case chunk, ok := <-chunks:
			switch {
			case !ok:
				flusher.Flush()
				return
			case chunk.Err != nil:
				if opts.WriteTerminalError != nil {
					opts.WriteTerminalError(chunk.Err)
				}
				flusher.Flush()
				return
			case !write(chunk.Payload):
				return
			}
		case <-idleC:
			if !write(heartbeat) {
				return
			}
		}
	}
}
