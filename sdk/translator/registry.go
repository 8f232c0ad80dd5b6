package translator

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	dataTag    = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// DropObserver is notified whenever a malformed delta is skipped.
type DropObserver func(from, to Format, reason string)

// Registry manages translation functions across schemas.
type Registry struct {
	mu          sync.RWMutex
	requests    map[Format]map[Format]RequestConverter
	streams     map[Format]map[Format]StreamConverter
	aggregators map[Format]Aggregator
	strict      bool
	onDrop      DropObserver
}

// NewRegistry constructs an empty translator registry.
func NewRegistry() *Registry {
	return &Registry{
		requests:    make(map[Format]map[Format]RequestConverter),
		streams:     make(map[Format]map[Format]StreamConverter),
		aggregators: make(map[Format]Aggregator),
	}
}

// Register stores the request and stream converters between two formats.
// Either converter may be nil.
func (r *Registry) Register(from, to Format, request RequestConverter, stream StreamConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if request != nil {
		if _, ok := r.requests[from]; !ok {
			r.requests[from] = make(map[Format]RequestConverter)
		}
		r.requests[from][to] = request
	}
	if stream != nil {
		if _, ok := r.streams[from]; !ok {
			r.streams[from] = make(map[Format]StreamConverter)
		}
		r.streams[from][to] = stream
	}
}

// RegisterAggregator stores the non-streaming aggregator of a target format.
func (r *Registry) RegisterAggregator(to Format, fn Aggregator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregators[to] = fn
}

// SetStrict makes Translate return a MalformedDeltaError for skipped deltas.
func (r *Registry) SetStrict(strict bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strict = strict
}

// SetDropObserver installs a callback invoked for every skipped delta.
func (r *Registry) SetDropObserver(fn DropObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDrop = fn
}

// HasStreamConverter reports whether a stream converter exists for the pair.
func (r *Registry) HasStreamConverter(from, to Format) bool {
	_, err := r.streamConverter(from, to)
	return err == nil
}

func (r *Registry) streamConverter(from, to Format) (StreamConverter, error) {
	if err := Validate(to); err != nil {
		return nil, err
	}
	if err := Validate(from); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if byTarget, ok := r.streams[from]; ok {
		if fn, isOk := byTarget[to]; isOk && fn != nil {
			return fn, nil
		}
	}
	return nil, &UnsupportedFormatError{Format: to, From: from}
}

// InitState creates the translation state for one stream from `from` to `to`.
// It fails with an UnsupportedFormatError before any delta is processed when the pair
// cannot be translated.
func (r *Registry) InitState(from, to Format, model string) (*State, error) {
	if _, err := r.streamConverter(from, to); err != nil {
		return nil, err
	}
	return newState(from, to, model), nil
}

// Translate feeds one source payload through the converter of the state's format pair and
// returns the target events in wire order. A nil rawJSON flushes the stream: open blocks are
// closed and terminal framing is emitted unless it was already sent.
//
// Parameters:
//   - ctx: the request context, passed to the converter
//   - from, to: the format pair, which must match the state
//   - rawJSON: one source payload, or nil to flush
//   - state: the per-stream state created by InitState
//
// Returns:
//   - []Event: the target events, nil once the stream has been flushed
//   - error: a MalformedDeltaError in strict mode, or an UnsupportedFormatError
func (r *Registry) Translate(ctx context.Context, from, to Format, rawJSON []byte, state *State) ([]Event, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if state.From != from || state.To != to {
		return nil, fmt.Errorf("translator: state initialised for %s->%s used for %s->%s", state.From, state.To, from, to)
	}
	convert, err := r.streamConverter(from, to)
	if err != nil {
		return nil, err
	}
	if state.Flushed {
		if rawJSON != nil {
			log.Debugf("translator: %s->%s delta after flush ignored", from, to)
		}
		return nil, nil
	}

	if rawJSON == nil {
		state.Flushed = true
		if state.Terminated {
			return nil, nil
		}
		events := convert(ctx, nil, state)
		state.Terminated = true
		return events, nil
	}

	rawJSON = bytes.TrimSpace(rawJSON)
	if bytes.HasPrefix(rawJSON, dataTag) {
		rawJSON = bytes.TrimSpace(rawJSON[len(dataTag):])
	}
	if len(rawJSON) == 0 || bytes.Equal(rawJSON, doneMarker) {
		return nil, nil
	}

	dropped := state.Dropped
	events := convert(ctx, rawJSON, state)
	if state.Dropped > dropped {
		r.mu.RLock()
		onDrop, strict := r.onDrop, r.strict
		r.mu.RUnlock()
		log.Debugf("translator: %s->%s malformed delta skipped: %s", from, to, state.dropReason)
		if onDrop != nil {
			onDrop(from, to, state.dropReason)
		}
		if strict {
			return events, &MalformedDeltaError{From: from, To: to, Reason: state.dropReason}
		}
	}
	return events, nil
}

// Aggregate collapses the events a stream produced into the final non-streaming response.
// Formats without a registered aggregator treat the last event as the complete response.
func (r *Registry) Aggregate(to Format, events []Event, state *State) ([]byte, error) {
	if err := Validate(to); err != nil {
		return nil, err
	}
	r.mu.RLock()
	fn := r.aggregators[to]
	r.mu.RUnlock()
	if fn != nil {
		return fn(events, state), nil
	}
	if len(events) == 0 {
		return []byte("{}"), nil
	}
	return events[len(events)-1].Data, nil
}

// TranslateRequest converts a payload between schemas, returning the original payload
// if no converter is registered.
func (r *Registry) TranslateRequest(from, to Format, model string, rawJSON []byte, stream bool) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if byTarget, ok := r.requests[from]; ok {
		if fn, isOk := byTarget[to]; isOk && fn != nil {
			return fn(model, rawJSON, stream)
		}
	}
	return rawJSON
}

var defaultRegistry = NewRegistry()

// Default exposes the package-level registry for shared use.
func Default() *Registry {
	return defaultRegistry
}

// Register attaches converters to the default registry.
func Register(from, to Format, request RequestConverter, stream StreamConverter) {
	defaultRegistry.Register(from, to, request, stream)
}

// RegisterAggregator attaches an aggregator to the default registry.
func RegisterAggregator(to Format, fn Aggregator) {
	defaultRegistry.RegisterAggregator(to, fn)
}

// InitState is a helper on the default registry.
func InitState(from, to Format, model string) (*State, error) {
	return defaultRegistry.InitState(from, to, model)
}

// Translate is a helper on the default registry.
func Translate(ctx context.Context, from, to Format, rawJSON []byte, state *State) ([]Event, error) {
	return defaultRegistry.Translate(ctx, from, to, rawJSON, state)
}

// Aggregate is a helper on the default registry.
func Aggregate(to Format, events []Event, state *State) ([]byte, error) {
	return defaultRegistry.Aggregate(to, events, state)
}

// TranslateRequest is a helper on the default registry.
func TranslateRequest(from, to Format, model string, rawJSON []byte, stream bool) []byte {
	return defaultRegistry.TranslateRequest(from, to, model, rawJSON, stream)
}
