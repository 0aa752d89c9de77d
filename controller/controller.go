package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dkarlsson/tabview/query"
	"github.com/dkarlsson/tabview/types"
)

const DefaultDebounce = 300 * time.Millisecond

// Querier issues one paginated query. Satisfied by *client.Client.
type Querier interface {
	Query(ctx context.Context, d *types.QueryDescriptor) (*types.QueryResult, error)
}

// Snapshot is what the renderer reads: the last settled result plus whether a
// newer request is still in flight. The result is retained while Busy so the
// grid is never cleared just because a refresh is pending.
type Snapshot struct {
	Descriptor *types.QueryDescriptor
	Result     *types.QueryResult
	Busy       bool
}

// Controller owns the request lifecycle for descriptor changes: it coalesces
// rapid edits behind a debounce timer, issues at most one request per quiet
// period, and stamps every issued request with a monotonically increasing
// sequence token so a stale response can never overwrite a newer one.
type Controller struct {
	querier  Querier
	debounce time.Duration
	notify   func(err error)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   *types.QueryDescriptor // armed behind the debounce timer
	requested *types.QueryDescriptor // descriptor of the newest issued request
	settled   *types.QueryDescriptor // descriptor the visible result belongs to
	result    *types.QueryResult
	seq       uint64 // token of the newest issued request
	busy      bool
	timer     *time.Timer

	updates chan struct{}
}

type Option func(*Controller)

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithNotify installs the failure notification sink. Failures never clear the
// visible result; they are reported here and the controller settles.
func WithNotify(fn func(err error)) Option {
	return func(c *Controller) { c.notify = fn }
}

func New(querier Querier, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		querier:  querier,
		debounce: DefaultDebounce,
		notify:   func(err error) { slog.Error("query failed", "error", err) },
		ctx:      ctx,
		cancel:   cancel,
		updates:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDescriptor registers a descriptor change. A nil descriptor (no table
// selected) clears any pending timer and issues nothing. A descriptor equal
// to the newest one already pending or issued is a no-op: equal descriptors
// need no new request.
func (c *Controller) SetDescriptor(d *types.QueryDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d == nil {
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.pending = nil
		return
	}

	newest := c.pending
	if newest == nil {
		newest = c.requested
	}
	if query.DescriptorsEqual(d, newest) {
		return
	}

	// A further change restarts the quiet period.
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = d
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(d) })
}

// fire issues the request for d unless a later descriptor superseded it while
// the timer was in flight.
func (c *Controller) fire(d *types.QueryDescriptor) {
	c.mu.Lock()
	if c.pending != d {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.requested = d
	c.seq++
	seq := c.seq
	c.busy = true
	c.mu.Unlock()

	c.signal()

	go func() {
		result, err := c.querier.Query(c.ctx, d)
		c.apply(seq, d, result, err)
	}()
}

// apply installs a response under the race rule: only the response carrying
// the newest issued token may touch the visible result. Older responses are
// dropped on arrival regardless of order.
func (c *Controller) apply(seq uint64, d *types.QueryDescriptor, result *types.QueryResult, err error) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.busy = false
	if err == nil {
		c.result = result
		c.settled = d
	}
	c.mu.Unlock()

	if err != nil && c.notify != nil {
		c.notify(err)
	}
	c.signal()
}

// Snapshot returns the current visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Descriptor: c.settled, Result: c.result, Busy: c.busy}
}

// Updates signals (coalesced) whenever the snapshot may have changed.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

func (c *Controller) signal() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Close stops the debounce timer and cancels the controller's requests.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
	c.mu.Unlock()
	c.cancel()
}
