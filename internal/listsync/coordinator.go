package listsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/state"
)

// Lister fetches one page of a remote collection.
type Lister[T library.Entity] interface {
	List(ctx context.Context, params library.ListParams) (library.Page[T], error)
}

// Coordinator issues list fetches and applies their results to a page
// cache. Only the most recently issued fetch may change the cache; results
// of earlier fetches are discarded whatever order they arrive in.
type Coordinator[T library.Entity] struct {
	lister Lister[T]
	cache  *state.Store[T]
	logger *slog.Logger

	mu       sync.Mutex
	issued   uint64
	cancel   context.CancelFunc
	inflight int
	closed   bool
}

// NewCoordinator builds a coordinator writing into cache.
func NewCoordinator[T library.Entity](lister Lister[T], cache *state.Store[T], logger *slog.Logger) *Coordinator[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator[T]{lister: lister, cache: cache, logger: logger}
}

// Pending is the handle of one issued fetch.
type Pending[T library.Entity] struct {
	seq  uint64
	done chan struct{}
	snap state.Snapshot[T]
	err  error
}

// Seq returns the issuance number. Later fetches have larger numbers.
func (p *Pending[T]) Seq() uint64 { return p.seq }

// Done is closed once the fetch has settled.
func (p *Pending[T]) Done() <-chan struct{} { return p.done }

// Wait blocks until the fetch settles. A discarded result returns
// ErrSuperseded or ErrClosed. A failed fetch returns *FetchError.
func (p *Pending[T]) Wait() (state.Snapshot[T], error) {
	<-p.done
	return p.snap, p.err
}

// Start issues a fetch for q and returns immediately. Any fetch still in
// flight is cancelled and its result will be discarded.
func (c *Coordinator[T]) Start(ctx context.Context, q state.Query) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	if err := q.Validate(); err != nil {
		p.err = &FetchError{Query: q, Err: err}
		close(p.done)
		return p
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		p.err = ErrClosed
		close(p.done)
		return p
	}
	c.issued++
	p.seq = c.issued
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.inflight++
	c.mu.Unlock()

	go c.run(fetchCtx, cancel, q, p)
	return p
}

// Fetch issues a fetch for q and waits for it.
func (c *Coordinator[T]) Fetch(ctx context.Context, q state.Query) (state.Snapshot[T], error) {
	return c.Start(ctx, q).Wait()
}

func (c *Coordinator[T]) run(ctx context.Context, cancel context.CancelFunc, q state.Query, p *Pending[T]) {
	defer close(p.done)

	page, err := c.lister.List(ctx, q.Params())
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	switch {
	case c.closed:
		p.err = ErrClosed
		return
	case p.seq != c.issued:
		c.logger.Debug("discarded stale page", "seq", p.seq, "latest", c.issued, "page", q.Page)
		p.err = ErrSuperseded
		return
	}
	c.cancel = nil

	if err != nil {
		c.cache.Fail(q, err)
		c.logger.Warn("list fetch failed", "page", q.Page, "search", q.Search, "sort", q.Sort.String(), "error", err)
		p.err = &FetchError{Query: q, Err: err}
		return
	}
	c.cache.Replace(q, page)
	p.snap = c.cache.Snapshot()
}

// Loading reports whether any fetch is in flight.
func (c *Coordinator[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Close cancels the in-flight fetch. Results arriving later are discarded.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
