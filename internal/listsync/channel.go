package listsync

import (
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/five82/librarian/internal/state"
)

// DefaultDebounce is the quiet period applied to search input.
const DefaultDebounce = 300 * time.Millisecond

// QueryChannel turns raw list input into an ordered stream of committed
// queries. Search text is debounced and de-duplicated. Sort and page changes
// commit immediately. A search or sort change resets the page to 1.
type QueryChannel struct {
	mu        sync.Mutex
	current   state.Query
	debounced func(func())
	closed    bool

	out       chan state.Query
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueryChannel starts from initial. A zero Page or PageSize is replaced
// by 1 and 10.
func NewQueryChannel(initial state.Query, quiet time.Duration) *QueryChannel {
	if initial.Page < 1 {
		initial.Page = 1
	}
	if initial.PageSize < 1 {
		initial.PageSize = 10
	}
	if quiet <= 0 {
		quiet = DefaultDebounce
	}
	return &QueryChannel{
		current:   initial,
		debounced: debounce.New(quiet),
		out:       make(chan state.Query, 8),
		done:      make(chan struct{}),
	}
}

// Commits delivers committed queries in commit order. It is closed by Close.
func (c *QueryChannel) Commits() <-chan state.Query {
	return c.out
}

// Current returns the last committed query.
func (c *QueryChannel) Current() state.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Search schedules raw as the new search text. Input with a leading space is
// rejected and cancels any pending search.
func (c *QueryChannel) Search(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	search, err := state.NormalizeSearch(raw)
	if err != nil {
		c.debounced(func() {})
		return err
	}
	c.debounced(func() { c.commitSearch(search) })
	return nil
}

func (c *QueryChannel) commitSearch(search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || search == c.current.Search {
		return
	}
	next := c.current
	next.Search = search
	next.Page = 1
	c.commitLocked(next)
}

// SetSort commits a new sort order and resets the page.
func (c *QueryChannel) SetSort(sort state.SortSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if sort == c.current.Sort {
		return nil
	}
	next := c.current
	next.Sort = sort
	next.Page = 1
	c.commitLocked(next)
	return nil
}

// ToggleSort flips the direction on field, or starts ascending on a new field.
func (c *QueryChannel) ToggleSort(field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	next := c.current
	next.Sort = c.current.Sort.Toggle(field)
	next.Page = 1
	c.commitLocked(next)
	return nil
}

// SetPage commits a page change. Search and sort are kept.
func (c *QueryChannel) SetPage(page int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if page < 1 {
		return ErrPageOutOfRange
	}
	if page == c.current.Page {
		return nil
	}
	next := c.current
	next.Page = page
	c.commitLocked(next)
	return nil
}

// SetPageSize commits a new page size and resets the page.
func (c *QueryChannel) SetPageSize(size int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if size < 1 {
		return ErrPageOutOfRange
	}
	if size == c.current.PageSize {
		return nil
	}
	next := c.current
	next.PageSize = size
	next.Page = 1
	c.commitLocked(next)
	return nil
}

// Reload commits the current query again.
func (c *QueryChannel) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.commitLocked(c.current)
	return nil
}

// Close cancels any pending search and closes Commits. It is safe to call
// more than once.
func (c *QueryChannel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		c.debounced(func() {})
		close(c.out)
	})
}

func (c *QueryChannel) commitLocked(q state.Query) {
	c.current = q
	select {
	case c.out <- q:
	case <-c.done:
	}
}
