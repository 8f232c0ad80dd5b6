package cliproxy

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/api"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/logging"
	"github.com/streambridge/streambridge/internal/metrics"
	"github.com/streambridge/streambridge/internal/runtime/executor"
	"github.com/streambridge/streambridge/internal/util"
	cliproxyexecutor "github.com/streambridge/streambridge/sdk/cliproxy/executor"
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"
	"github.com/tidwall/gjson"
)

// maxScanTokenSize bounds a single upstream SSE line.
const maxScanTokenSize = 52_428_800

// Service wires configuration, executors, credentials and the translation engine into
// the gateway's request path, and runs the HTTP server around it.
type Service struct {
	cfgMu      sync.RWMutex
	cfg        *config.Config
	configPath string

	executors   *executor.Registry
	credentials *CredentialStore
	translators *sdktranslator.Registry
	classifier  Classifier
	customClass bool
	httpClient  *http.Client

	watcherFactory WatcherFactory
	watcher        *WatcherWrapper
	hooks          Hooks
	server         *api.Server
}

func (s *Service) config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Service) snapshot() (*config.Config, Classifier, *http.Client) {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg, s.classifier, s.httpClient
}

// Credentials exposes the credential store.
func (s *Service) Credentials() *CredentialStore { return s.credentials }

// Executors exposes the execution registry.
func (s *Service) Executors() *executor.Registry { return s.executors }

// Execute runs one request end to end: it converts the client body to the canonical
// request, answers bypassed requests locally, otherwise calls the provider with URL-pool
// failover and a single credential refresh, and translates the provider response back
// into the client's protocol.
//
// Parameters:
//   - ctx: bounds the provider call and, for streams, the lifetime of Response.Stream
//   - req: the client body tagged with its wire format
//
// Returns:
//   - *cliproxyexecutor.Response: a JSON body, or a Stream of SSE-framed chunks
//   - error: an unsupported format, a provider configuration error or an upstream status
func (s *Service) Execute(ctx context.Context, req cliproxyexecutor.Request) (*cliproxyexecutor.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := sdktranslator.Validate(req.SourceFormat); err != nil {
		return nil, err
	}
	cfg, classifier, client := s.snapshot()
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = gjson.GetBytes(req.Body, "model").String()
	}
	logger := logging.EntryFromContext(ctx).WithFields(log.Fields{"format": req.SourceFormat.String(), "model": model})

	canonical := s.translators.TranslateRequest(req.SourceFormat, sdktranslator.Canonical, model, req.Body, req.Stream)
	if classifier != nil {
		if reply, ok := classifier.Classify(canonical); ok {
			logger.Debug("request bypassed")
			metrics.BypassedRequestsTotal.WithLabelValues(req.SourceFormat.String()).Inc()
			return s.bypass(ctx, req, model, canonical, reply)
		}
	}

	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = cfg.ProviderForModel(model)
	}
	exec := s.executors.Get(provider)
	logger = logger.WithField("provider", provider)
	if hc, ok := exec.(cliproxyexecutor.HTTPClientProvider); ok {
		if own := hc.HTTPClient(); own != nil {
			client = own
		}
	}

	pipeline, err := s.translators.NewPipeline(exec.Format(), req.SourceFormat, model, !req.Stream)
	if err != nil {
		return nil, err
	}
	creds := req.Credentials
	if creds == nil {
		creds = s.credentials.Get(provider)
	}

	resp, refreshed, err := s.send(ctx, client, exec, model, canonical, req.Stream, creds, logger)
	if err != nil {
		return nil, err
	}
	body, err := executor.DecodeResponseBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	out := &cliproxyexecutor.Response{Credentials: refreshed}
	if req.Stream {
		out.Headers = streamHeaders()
		out.Stream = s.stream(ctx, body, pipeline, logger)
		return out, nil
	}

	defer func() {
		if errClose := body.Close(); errClose != nil {
			logger.Errorf("close response body error: %v", errClose)
		}
	}()
	out.Headers = jsonHeaders()
	out.Body, err = s.collect(ctx, body, isEventStream(resp.Header), pipeline)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// send performs the provider call. Transport errors, 429 and 5xx advance to the next base
// URL; 401 and 403 trigger one refresh and a retry on the same URL.
func (s *Service) send(ctx context.Context, client *http.Client, exec cliproxyexecutor.ProviderExecutor, model string, canonical []byte, stream bool, creds *cliproxyexecutor.Credentials, logger *log.Entry) (*http.Response, *cliproxyexecutor.Credentials, error) {
	if exec.URLCount() == 0 {
		_, err := exec.BuildURL(model, stream, 0)
		return nil, nil, err
	}
	payload, err := exec.TransformRequest(model, canonical, stream, creds)
	if err != nil {
		return nil, nil, err
	}
	if s.config().RequestLog {
		logger.Debugf("upstream payload: %s", payload)
	}

	var (
		refreshed    *cliproxyexecutor.Credentials
		triedRefresh bool
		lastErr      error
	)
	for idx := 0; idx < exec.URLCount(); idx++ {
		endpoint, errURL := exec.BuildURL(model, stream, idx)
		if errURL != nil {
			return nil, refreshed, errURL
		}
		attemptLog := logger.WithFields(log.Fields{"url": endpoint, "attempt": idx + 1})

		resp, errDo := do(ctx, client, exec, endpoint, payload, creds, stream)
		if errDo != nil {
			if ctx.Err() != nil {
				return nil, refreshed, ctx.Err()
			}
			metrics.UpstreamRequestsTotal.WithLabelValues(exec.Identifier(), metrics.StatusClass(0)).Inc()
			attemptLog.Warnf("upstream request failed: %v", errDo)
			lastErr = errDo
			continue
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(exec.Identifier(), metrics.StatusClass(resp.StatusCode)).Inc()

		switch code := resp.StatusCode; {
		case code >= http.StatusOK && code < http.StatusMultipleChoices:
			return resp, refreshed, nil
		case (code == http.StatusUnauthorized || code == http.StatusForbidden) && !triedRefresh:
			triedRefresh = true
			errStatus := upstreamError(resp)
			next := s.credentials.Refresh(ctx, exec, creds, attemptLog)
			if next == nil {
				attemptLog.Warn("upstream rejected credentials and refresh failed")
				return nil, refreshed, errStatus
			}
			refreshed, creds = next, next
			if payload, err = exec.TransformRequest(model, canonical, stream, creds); err != nil {
				return nil, refreshed, err
			}
			idx--
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			lastErr = upstreamError(resp)
			attemptLog.WithField("status", code).Warn("upstream unavailable, trying next base url")
		default:
			return nil, refreshed, upstreamError(resp)
		}
	}
	if lastErr == nil {
		lastErr = executor.NewStatusError(http.StatusBadGateway, "no upstream attempt succeeded")
	}
	return nil, refreshed, lastErr
}

func do(ctx context.Context, client *http.Client, exec cliproxyexecutor.ProviderExecutor, endpoint string, payload []byte, creds *cliproxyexecutor.Credentials, stream bool) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header = exec.BuildHeaders(creds, stream)
	return client.Do(httpReq)
}

// upstreamError drains resp and converts it into a status error carrying the body.
func upstreamError(resp *http.Response) error {
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("close response body error: %v", errClose)
		}
	}()
	var msg []byte
	if body, err := executor.DecodeResponseBody(resp.Body, resp.Header.Get("Content-Encoding")); err == nil {
		msg, _ = io.ReadAll(io.LimitReader(body, 1<<20))
	}
	text := strings.TrimSpace(string(msg))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return executor.NewStatusError(resp.StatusCode, text)
}

// stream translates an upstream SSE body on its own goroutine. Each item is one framed
// client event; the protocol sentinel follows the flush. Cancelling ctx abandons the
// stream without flushing.
func (s *Service) stream(ctx context.Context, body io.ReadCloser, pipeline *sdktranslator.Pipeline, logger *log.Entry) <-chan cliproxyexecutor.StreamChunk {
	out := make(chan cliproxyexecutor.StreamChunk)
	go func() {
		defer close(out)
		defer func() {
			if errClose := body.Close(); errClose != nil {
				logger.Errorf("close response body error: %v", errClose)
			}
		}()

		send := func(chunk cliproxyexecutor.StreamChunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}
		emit := func(events []sdktranslator.Event) bool {
			for _, ev := range events {
				frame, err := sdktranslator.EncodeSSE(pipeline.ClientFormat(), ev)
				if err != nil {
					send(cliproxyexecutor.StreamChunk{Err: err})
					return false
				}
				if !send(cliproxyexecutor.StreamChunk{Payload: frame}) {
					return false
				}
			}
			return true
		}

		scanner := bufio.NewScanner(body)
		scanner.Buffer(nil, maxScanTokenSize)
		for scanner.Scan() {
			payload := ssePayload(scanner.Bytes())
			if payload == nil {
				continue
			}
			events, err := pipeline.Push(ctx, payload)
			if err != nil {
				send(cliproxyexecutor.StreamChunk{Err: err})
				return
			}
			s.countEvents(pipeline, len(events))
			if !emit(events) {
				return
			}
		}
		if ctx.Err() != nil {
			logger.Debug("client disconnected, stream abandoned")
			return
		}
		if err := scanner.Err(); err != nil {
			send(cliproxyexecutor.StreamChunk{Err: fmt.Errorf("read upstream stream: %w", err)})
			return
		}

		events, err := pipeline.Push(ctx, nil)
		if err != nil {
			send(cliproxyexecutor.StreamChunk{Err: err})
			return
		}
		s.countEvents(pipeline, len(events))
		if !emit(events) {
			return
		}
		if sentinel := sdktranslator.Sentinel(pipeline.ClientFormat()); sentinel != nil {
			send(cliproxyexecutor.StreamChunk{Payload: sentinel})
		}
	}()
	return out
}

// collect runs a complete upstream body through the pipeline and aggregates the result.
// Upstreams that answer with an event stream despite a non-streaming request are split
// into their data payloads first.
func (s *Service) collect(ctx context.Context, body io.Reader, eventStream bool, pipeline *sdktranslator.Pipeline) ([]byte, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	payloads := [][]byte{data}
	if eventStream {
		payloads = payloads[:0]
		for _, line := range bytes.Split(data, []byte("\n")) {
			if p := ssePayload(line); p != nil {
				payloads = append(payloads, p)
			}
		}
	}
	for _, p := range payloads {
		if _, err = pipeline.Push(ctx, p); err != nil {
			return nil, err
		}
	}
	if _, err = pipeline.Push(ctx, nil); err != nil {
		return nil, err
	}
	s.countEvents(pipeline, len(pipeline.Events()))
	return pipeline.Aggregate()
}

func (s *Service) countEvents(pipeline *sdktranslator.Pipeline, n int) {
	if n == 0 {
		return
	}
	state := pipeline.ClientState()
	metrics.TranslatedEventsTotal.WithLabelValues(state.From.String(), state.To.String()).Add(float64(n))
}

// bypass answers a request with a synthetic completion routed through the same
// translation path a real provider response takes.
func (s *Service) bypass(ctx context.Context, req cliproxyexecutor.Request, model string, canonical []byte, reply string) (*cliproxyexecutor.Response, error) {
	pipeline, err := s.translators.NewPipeline(sdktranslator.Canonical, req.SourceFormat, model, !req.Stream)
	if err != nil {
		return nil, err
	}
	usage := executor.EstimateUsage(model, canonical, reply)
	completion := syntheticCompletion(model, reply, usage)

	if !req.Stream {
		body, errCollect := s.collect(ctx, bytes.NewReader(completion), false, pipeline)
		if errCollect != nil {
			return nil, errCollect
		}
		return &cliproxyexecutor.Response{Headers: jsonHeaders(), Body: body, Bypassed: true}, nil
	}

	events, err := pipeline.Push(ctx, completion)
	if err != nil {
		return nil, err
	}
	tail, err := pipeline.Push(ctx, nil)
	if err != nil {
		return nil, err
	}
	events = append(events, tail...)
	frames := make(chan cliproxyexecutor.StreamChunk, len(events)+1)
	for _, ev := range events {
		frame, errEncode := sdktranslator.EncodeSSE(req.SourceFormat, ev)
		if errEncode != nil {
			return nil, errEncode
		}
		frames <- cliproxyexecutor.StreamChunk{Payload: frame}
	}
	if sentinel := sdktranslator.Sentinel(req.SourceFormat); sentinel != nil {
		frames <- cliproxyexecutor.StreamChunk{Payload: sentinel}
	}
	close(frames)
	return &cliproxyexecutor.Response{Headers: streamHeaders(), Stream: frames, Bypassed: true}, nil
}

// ssePayload extracts the JSON payload of one upstream line. Event names, comments and
// blank lines yield nil. Lines without a field prefix are treated as raw JSON.
func ssePayload(line []byte) []byte {
	line = bytes.TrimSpace(line)
	switch {
	case len(line) == 0, line[0] == ':':
		return nil
	case bytes.HasPrefix(line, []byte("data:")):
		payload := bytes.TrimSpace(line[len("data:"):])
		if len(payload) == 0 {
			return nil
		}
		return payload
	case bytes.HasPrefix(line, []byte("event:")), bytes.HasPrefix(line, []byte("id:")), bytes.HasPrefix(line, []byte("retry:")):
		return nil
	}
	return line
}

func isEventStream(h http.Header) bool {
	return strings.HasPrefix(strings.ToLower(h.Get("Content-Type")), "text/event-stream")
}

func streamHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	return h
}

func jsonHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return h
}

// applyConfig swaps in a reloaded configuration.
func (s *Service) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	if !s.customClass {
		s.classifier = NewDefaultClassifier(cfg.Bypass)
	}
	s.httpClient = executor.NewHTTPClient(cfg, 0)
	s.cfgMu.Unlock()

	util.SetLogLevel(cfg)
	if err := logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to reconfigure log output: %v", err)
	}
	s.executors.Reload(cfg)
	s.credentials.Seed(cfg)
	s.translators.SetStrict(cfg.StrictTranslation)
	if s.server != nil {
		s.server.UpdateConfig(cfg)
	}
}
