package nodeui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/warp/pkg/protocol"
)

// OptionsFetcher resolves a dynamic options source.
type OptionsFetcher interface {
	FetchOptions(ctx context.Context, req protocol.DynamicOptionsRequest) ([]protocol.Option, error)
}

// OptionsFetcherFunc adapts a function to OptionsFetcher.
type OptionsFetcherFunc func(ctx context.Context, req protocol.DynamicOptionsRequest) ([]protocol.Option, error)

func (f OptionsFetcherFunc) FetchOptions(ctx context.Context, req protocol.DynamicOptionsRequest) ([]protocol.Option, error) {
	return f(ctx, req)
}

// SaveFunc persists a submitted form for one node.
type SaveFunc func(ctx context.Context, sub Submission) error

type optionsUpdate struct {
	key     string
	options []protocol.Option
	err     error
}

// Panel is the open interface of one node.
type Panel struct {
	CellID string
	Schema protocol.Schema
	Form   *Form

	// Invalid lists field definitions that failed validation and were not rendered.
	Invalid []error

	save    SaveFunc
	updates chan optionsUpdate
	pending int
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// Pending returns the number of option fetches not yet applied.
func (p *Panel) Pending() int { return p.pending }

// Apply applies every option result that has arrived, without blocking.
// It returns the number of controls updated.
func (p *Panel) Apply() int {
	n := 0
	for p.pending > 0 {
		select {
		case u := <-p.updates:
			p.apply(u)
			n++
		default:
			return n
		}
	}
	return n
}

// Await blocks until every option fetch has been applied or ctx is done.
func (p *Panel) Await(ctx context.Context) error {
	for p.pending > 0 {
		select {
		case u := <-p.updates:
			p.apply(u)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *Panel) apply(u optionsUpdate) {
	p.pending--
	c, ok := p.Form.Control(u.key)
	if !ok {
		return
	}
	c.Loading = false
	if u.err != nil {
		p.logger.Warn("dynamic options failed", "field", u.key, "source", c.OptionsSource, "error", u.err)
		c.Options = []protocol.Option{ErrorOption}
		c.Inert = true
		c.Err = u.err.Error()
		return
	}
	c.Options = u.options
	if c.Selected() >= 0 {
		return
	}
	if len(c.Options) > 0 {
		c.Value = c.Options[0].Value
	} else {
		c.Value = nil
	}
}

// Submit saves the current form through the callback registered at Open.
func (p *Panel) Submit(ctx context.Context) error {
	if p.save == nil {
		return fmt.Errorf("panel %s: no save handler", p.CellID)
	}
	return p.save(ctx, p.Form.Submit())
}

func (p *Panel) start(ctx context.Context, fetcher OptionsFetcher, workflowID, nodeID string) {
	ctx, p.cancel = context.WithCancel(ctx)
	var sources []*Control
	for _, c := range p.Form.Controls {
		if c.Loading {
			sources = append(sources, c)
		}
	}
	p.updates = make(chan optionsUpdate, len(sources))
	if fetcher == nil {
		for _, c := range sources {
			p.pending++
			p.updates <- optionsUpdate{key: c.Key, err: ErrNoFetcher}
		}
		return
	}
	for _, c := range sources {
		p.pending++
		req := protocol.DynamicOptionsRequest{
			WorkflowID:    workflowID,
			NodeID:        nodeID,
			OptionsSource: c.OptionsSource,
		}
		go func(key string) {
			opts, err := fetcher.FetchOptions(ctx, req)
			p.updates <- optionsUpdate{key: key, options: opts, err: err}
		}(c.Key)
	}
}

func (p *Panel) stop() {
	if p.cancel != nil {
		p.cancel()
	}
}
