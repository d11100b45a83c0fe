package listsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/state"
)

// Collection is everything a List needs from a remote collection.
// *library.Resource satisfies it.
type Collection[T library.Entity] interface {
	Lister[T]
	Create(ctx context.Context, fields library.Fields) (T, error)
	Update(ctx context.Context, id string, fields library.Fields) (T, error)
	Delete(ctx context.Context, id string) error
	Schema() []library.FieldSpec
}

var (
	_ Collection[library.Book]  = (*library.Resource[library.Book])(nil)
	_ Collection[library.Topic] = (*library.Resource[library.Topic])(nil)
	_ Collection[library.User]  = (*library.Resource[library.User])(nil)
	_ Collection[library.Issue] = (*library.Resource[library.Issue])(nil)
)

// Options configure a List.
type Options struct {
	Name               string
	PageSize           int
	Sort               state.SortSpec
	Debounce           time.Duration
	DeletePolicy       DeletePolicy
	RefetchAfterCommit bool
	Logger             *slog.Logger
}

// View is a consistent copy of everything needed to render a list.
type View[T library.Entity] struct {
	Snapshot  state.Snapshot[T]
	Query     state.Query
	Loading   bool
	Edit      EditView
	CommitErr error
}

// List keeps a cached, paginated, searchable, sortable and editable view of
// one remote collection.
type List[T library.Entity] struct {
	name    string
	coll    Collection[T]
	cache   *state.Store[T]
	channel *QueryChannel
	coord   *Coordinator[T]
	edit    *EditSession[T]
	recon   *Reconciler[T]
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	changes   chan struct{}
	commitErr error
	closed    bool
}

// New starts a list over coll. Nothing is fetched until Load.
func New[T library.Entity](coll Collection[T], opts Options) *List[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Name != "" {
		logger = logger.With("list", opts.Name)
	}
	cache := &state.Store[T]{}
	ctx, cancel := context.WithCancel(context.Background())
	l := &List[T]{
		name:    opts.Name,
		coll:    coll,
		cache:   cache,
		channel: NewQueryChannel(state.Query{Page: 1, PageSize: opts.PageSize, Sort: opts.Sort}, opts.Debounce),
		coord:   NewCoordinator[T](coll, cache, logger),
		edit:    NewEditSession[T](coll.Schema()),
		recon:   NewReconciler(cache, opts.DeletePolicy, opts.RefetchAfterCommit),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		changes: make(chan struct{}, 1),
	}
	l.wg.Add(1)
	go l.loop()
	return l
}

// loop turns every committed query into exactly one fetch.
func (l *List[T]) loop() {
	defer l.wg.Done()
	for q := range l.channel.Commits() {
		pending := l.coord.Start(l.ctx, q)
		l.notify()
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			<-pending.Done()
			l.notify()
		}()
	}
}

// Changes signals that View may have changed. Signals are coalesced. The
// channel is closed by Close.
func (l *List[T]) Changes() <-chan struct{} {
	return l.changes
}

func (l *List[T]) notify() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.changes <- struct{}{}:
	default:
	}
}

// Name returns the list name.
func (l *List[T]) Name() string { return l.name }

// Schema returns the editable fields.
func (l *List[T]) Schema() []library.FieldSpec { return l.coll.Schema() }

// View returns the current state.
func (l *List[T]) View() View[T] {
	l.mu.Lock()
	commitErr := l.commitErr
	l.mu.Unlock()
	return View[T]{
		Snapshot:  l.cache.Snapshot(),
		Query:     l.channel.Current(),
		Loading:   l.coord.Loading(),
		Edit:      l.edit.View(),
		CommitErr: commitErr,
	}
}

// Load fetches the current query. It is also the retry after a failure.
func (l *List[T]) Load() error {
	return l.channel.Reload()
}

// Search schedules a debounced search.
func (l *List[T]) Search(raw string) error {
	return l.channel.Search(raw)
}

// ToggleSort flips the sort direction on field.
func (l *List[T]) ToggleSort(field string) error {
	return l.channel.ToggleSort(field)
}

// SetSort replaces the sort order.
func (l *List[T]) SetSort(sort state.SortSpec) error {
	return l.channel.SetSort(sort)
}

// SetPageSize changes the number of items per page.
func (l *List[T]) SetPageSize(size int) error {
	return l.channel.SetPageSize(size)
}

// SetPage moves to page. Pages outside 1..TotalPages are rejected and the
// current page is a no-op.
func (l *List[T]) SetPage(page int) error {
	snap := l.cache.Snapshot()
	if page < 1 {
		return fmt.Errorf("page %d: %w", page, ErrPageOutOfRange)
	}
	// TotalPages is only trusted once the current query has loaded cleanly.
	// After a failure it reads 1, and a page change is the way to retry.
	settled := snap.LastError == nil && snap.Query == l.channel.Current()
	if settled && page > snap.TotalPages {
		return fmt.Errorf("page %d of %d: %w", page, snap.TotalPages, ErrPageOutOfRange)
	}
	return l.channel.SetPage(page)
}

// NextPage moves forward one page.
func (l *List[T]) NextPage() error {
	return l.SetPage(l.channel.Current().Page + 1)
}

// PrevPage moves back one page.
func (l *List[T]) PrevPage() error {
	return l.SetPage(l.channel.Current().Page - 1)
}

// StartEdit opens an edit of the cached item with id.
func (l *List[T]) StartEdit(id string) error {
	item, ok := l.cache.Snapshot().Find(id)
	if !ok {
		return fmt.Errorf("edit %s: %w", id, ErrUnknownItem)
	}
	if err := l.edit.Start(item); err != nil {
		return err
	}
	l.notify()
	return nil
}

// StartCreate opens an empty draft for a new item.
func (l *List[T]) StartCreate() error {
	if err := l.edit.StartNew(); err != nil {
		return err
	}
	l.notify()
	return nil
}

// SetField changes one draft field.
func (l *List[T]) SetField(field, value string) error {
	err := l.edit.Set(field, value)
	l.notify()
	return err
}

// CancelEdit drops the draft.
func (l *List[T]) CancelEdit() error {
	err := l.edit.Cancel()
	l.notify()
	return err
}

// SubmitEdit commits the draft. On success the cached row is replaced by
// the server's copy (or the page is refetched for a new item).
func (l *List[T]) SubmitEdit(ctx context.Context) (T, error) {
	isNew := l.edit.View().New
	item, err := l.edit.Submit(ctx, l.commit)
	if err != nil {
		var commitErr *CommitError
		if errors.As(err, &commitErr) {
			l.logger.Warn("commit failed", "op", commitErr.Op, "id", commitErr.ID, "error", commitErr.Err)
			l.setCommitErr(err)
		}
		l.notify()
		return item, err
	}
	l.setCommitErr(nil)
	var follow Followup
	if isNew {
		l.logger.Info("item created", "id", item.EntityID())
		follow = l.recon.Created()
	} else {
		l.logger.Info("item updated", "id", item.EntityID())
		follow = l.recon.Updated(item)
	}
	l.apply(follow)
	l.notify()
	return item, nil
}

func (l *List[T]) commit(ctx context.Context, id string, fields library.Fields) (T, error) {
	if id == "" {
		return l.coll.Create(ctx, fields)
	}
	return l.coll.Update(ctx, id, fields)
}

// Create adds a new item directly, without an edit session.
func (l *List[T]) Create(ctx context.Context, fields library.Fields) (T, error) {
	item, err := l.coll.Create(ctx, fields)
	if err != nil {
		err = &CommitError{Op: "create", Err: err}
		l.logger.Warn("create failed", "error", err)
		l.setCommitErr(err)
		l.notify()
		return item, err
	}
	l.setCommitErr(nil)
	l.logger.Info("item created", "id", item.EntityID())
	l.apply(l.recon.Created())
	l.notify()
	return item, nil
}

// RequestDelete returns the gate that must be confirmed before the item
// with id is deleted. Nothing is sent until Confirm.
func (l *List[T]) RequestDelete(id string) (*Confirmation, error) {
	item, ok := l.cache.Snapshot().Find(id)
	if !ok {
		return nil, fmt.Errorf("delete %s: %w", id, ErrUnknownItem)
	}
	prompt := fmt.Sprintf("Delete %q?", item.Label())
	if l.name != "" {
		prompt = fmt.Sprintf("Delete %s %q?", l.name, item.Label())
	}
	return NewConfirmation(id, prompt, func(ctx context.Context) error {
		return l.deleteConfirmed(ctx, id)
	}), nil
}

func (l *List[T]) deleteConfirmed(ctx context.Context, id string) error {
	if err := l.coll.Delete(ctx, id); err != nil {
		commitErr := &CommitError{Op: "delete", ID: id, Err: err}
		l.logger.Warn("delete failed", "id", id, "error", err)
		l.setCommitErr(commitErr)
		l.notify()
		return commitErr
	}
	l.setCommitErr(nil)
	l.logger.Info("item deleted", "id", id)
	l.edit.Abandon(id)
	l.apply(l.recon.Deleted(id))
	l.notify()
	return nil
}

func (l *List[T]) apply(f Followup) {
	var err error
	switch {
	case f.Page > 0:
		err = l.channel.SetPage(f.Page)
	case f.Refetch:
		err = l.channel.Reload()
	}
	if err != nil && !IsQuiet(err) {
		l.logger.Warn("follow-up fetch not issued", "error", err)
	}
}

func (l *List[T]) setCommitErr(err error) {
	l.mu.Lock()
	l.commitErr = err
	l.mu.Unlock()
}

// Close stops the list. Pending searches are dropped, the in-flight fetch
// is cancelled and Changes is closed once every goroutine has exited.
func (l *List[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.channel.Close()
	l.coord.Close()
	l.cancel()
	l.wg.Wait()

	l.mu.Lock()
	close(l.changes)
	l.mu.Unlock()
}
