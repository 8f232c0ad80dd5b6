package translator

import "context"

// Pipeline chains the two hops a gateway stream goes through: the provider's native events
// are translated into canonical deltas, which are then translated into the client format.
// Hops collapse when either side already speaks the canonical format, and a single identity
// hop is used when provider and client share a format.
type Pipeline struct {
	registry *Registry
	ingest   *State
	emit     *State
	events   []Event
	collect  bool
}

// NewPipeline initialises the states of every hop between provider and client.
//
// Parameters:
//   - provider: the format the backend streams
//   - client: the format the caller expects
//   - model: the model name stamped on synthesized events
//   - collect: retain every emitted client event for Aggregate
//
// Returns:
//   - *Pipeline: the ready pipeline
//   - error: an UnsupportedFormatError when a hop has no converter
func (r *Registry) NewPipeline(provider, client Format, model string, collect bool) (*Pipeline, error) {
	p := &Pipeline{registry: r, collect: collect}
	var err error
	switch {
	case provider == client:
		p.emit, err = r.InitState(provider, client, model)
	case provider == Canonical:
		p.emit, err = r.InitState(Canonical, client, model)
	case client == Canonical:
		p.ingest, err = r.InitState(provider, Canonical, model)
	default:
		if p.ingest, err = r.InitState(provider, Canonical, model); err == nil {
			p.emit, err = r.InitState(Canonical, client, model)
		}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewPipeline is a helper on the default registry.
func NewPipeline(provider, client Format, model string, collect bool) (*Pipeline, error) {
	return defaultRegistry.NewPipeline(provider, client, model, collect)
}

// Push translates one provider payload into client events. A nil payload flushes every hop.
func (p *Pipeline) Push(ctx context.Context, rawJSON []byte) ([]Event, error) {
	var out []Event
	if p.ingest == nil {
		events, err := p.registry.Translate(ctx, p.emit.From, p.emit.To, rawJSON, p.emit)
		if err != nil {
			return nil, err
		}
		out = events
	} else {
		canonical, err := p.registry.Translate(ctx, p.ingest.From, p.ingest.To, rawJSON, p.ingest)
		if err != nil {
			return nil, err
		}
		if p.emit == nil {
			out = canonical
		} else {
			for _, ev := range canonical {
				events, errEmit := p.registry.Translate(ctx, p.emit.From, p.emit.To, ev.Data, p.emit)
				if errEmit != nil {
					return nil, errEmit
				}
				out = append(out, events...)
			}
			if rawJSON == nil {
				tail, errFlush := p.registry.Translate(ctx, p.emit.From, p.emit.To, nil, p.emit)
				if errFlush != nil {
					return nil, errFlush
				}
				out = append(out, tail...)
			}
		}
	}
	if p.collect {
		p.events = append(p.events, out...)
	}
	return out, nil
}

// ClientFormat returns the format of the events Push emits.
func (p *Pipeline) ClientFormat() Format {
	return p.clientState().To
}

// ClientState exposes the state of the hop that produces client events.
func (p *Pipeline) ClientState() *State {
	return p.clientState()
}

func (p *Pipeline) clientState() *State {
	if p.emit != nil {
		return p.emit
	}
	return p.ingest
}

// Aggregate collapses the collected client events into a non-streaming response.
func (p *Pipeline) Aggregate() ([]byte, error) {
	return p.registry.Aggregate(p.ClientFormat(), p.events, p.clientState())
}

// Events returns the collected client events.
func (p *Pipeline) Events() []Event {
	return p.events
}
