package library

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TitleResolver maps book ids to titles for views that only carry ids.
// Concurrent lookups of the same id share one request and results are
// remembered for the resolver's lifetime.
type TitleResolver struct {
	books *Resource[Book]
	group singleflight.Group

	mu     sync.RWMutex
	titles map[string]string
}

// NewTitleResolver builds a resolver backed by books.
func NewTitleResolver(books *Resource[Book]) *TitleResolver {
	return &TitleResolver{books: books, titles: make(map[string]string)}
}

// Cached returns a previously resolved title.
func (r *TitleResolver) Cached(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	title, ok := r.titles[id]
	return title, ok
}

// Title resolves id, fetching the book on first use.
func (r *TitleResolver) Title(ctx context.Context, id string) (string, error) {
	if title, ok := r.Cached(id); ok {
		return title, nil
	}
	v, err, _ := r.group.Do(id, func() (any, error) {
		book, err := r.books.Get(ctx, id)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.titles[id] = book.Title
		r.mu.Unlock()
		return book.Title, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Forget drops a cached title, e.g. after the book was edited.
func (r *TitleResolver) Forget(id string) {
	r.mu.Lock()
	delete(r.titles, id)
	r.mu.Unlock()
}
