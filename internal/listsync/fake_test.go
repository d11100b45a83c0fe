package listsync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/librarian/internal/library"
)

// fakeTopics is an in-memory topic collection. Each list call is recorded,
// and calls for a page with a gate block until the gate is closed.
type fakeTopics struct {
	mu         sync.Mutex
	calls      []library.ListParams
	totalPages int
	perPage    map[int][]library.Topic
	gates      map[int]chan struct{}
	listErr    error

	updateGate chan struct{}
	updateErr  error
	updates    []library.Fields
	createErr  error
	creates    int
	deleteErr  error
	deletes    []string
}

func newFakeTopics(totalPages int) *fakeTopics {
	f := &fakeTopics{
		totalPages: totalPages,
		perPage:    make(map[int][]library.Topic),
		gates:      make(map[int]chan struct{}),
	}
	for page := 1; page <= totalPages; page++ {
		f.perPage[page] = []library.Topic{
			{ID: fmt.Sprintf("p%d-a", page), Genre: fmt.Sprintf("Genre %d A", page)},
			{ID: fmt.Sprintf("p%d-b", page), Genre: fmt.Sprintf("Genre %d B", page)},
		}
	}
	return f
}

func (f *fakeTopics) gate(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[page] = ch
	return ch
}

func (f *fakeTopics) List(ctx context.Context, params library.ListParams) (library.Page[library.Topic], error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	gate := f.gates[params.Offset]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return library.Page[library.Topic]{}, f.listErr
	}
	items := append([]library.Topic(nil), f.perPage[params.Offset]...)
	return library.Page[library.Topic]{Data: items, Page: params.Offset, TotalPages: f.totalPages, Total: -1}, nil
}

func (f *fakeTopics) Create(ctx context.Context, fields library.Fields) (library.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return library.Topic{}, f.createErr
	}
	f.creates++
	return library.Topic{ID: fmt.Sprintf("new-%d", f.creates), Genre: fields["genre"], Description: fields["description"]}, nil
}

func (f *fakeTopics) Update(ctx context.Context, id string, fields library.Fields) (library.Topic, error) {
	f.mu.Lock()
	gate := f.updateGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields.Clone())
	if f.updateErr != nil {
		return library.Topic{}, f.updateErr
	}
	return library.Topic{ID: id, Genre: fields["genre"], Description: fields["description"], UpdatedAt: "server"}, nil
}

func (f *fakeTopics) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeTopics) Schema() []library.FieldSpec { return library.TopicSchema }

func (f *fakeTopics) listCalls() []library.ListParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]library.ListParams(nil), f.calls...)
}

func (f *fakeTopics) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func (f *fakeTopics) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

const testDebounce = 30 * time.Millisecond

func newTestList(t *testing.T, coll *fakeTopics, opts Options) *List[library.Topic] {
	t.Helper()
	if opts.PageSize == 0 {
		opts.PageSize = 10
	}
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	l := New[library.Topic](coll, opts)
	t.Cleanup(l.Close)
	return l
}

// waitView polls until cond holds for the list view.
func waitView(t *testing.T, l *List[library.Topic], cond func(View[library.Topic]) bool) View[library.Topic] {
	t.Helper()
	var last View[library.Topic]
	require.Eventually(t, func() bool {
		last = l.View()
		return cond(last)
	}, 2*time.Second, 5*time.Millisecond, "view never matched")
	return last
}

func settledOn(page int) func(View[library.Topic]) bool {
	return func(v View[library.Topic]) bool {
		return !v.Loading && v.Snapshot.HasData && v.Snapshot.CurrentPage == page
	}
}
