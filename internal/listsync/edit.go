package listsync

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/five82/librarian/internal/library"
)

// EditState is the phase of an inline edit.
type EditState int

const (
	Idle EditState = iota
	Editing
	Committing
)

func (s EditState) String() string {
	switch s {
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	default:
		return "idle"
	}
}

// CommitFunc sends a draft to the server. id is empty for new items.
type CommitFunc[T library.Entity] func(ctx context.Context, id string, fields library.Fields) (T, error)

// EditView is a copy of the session state for rendering.
type EditView struct {
	State    EditState
	TargetID string
	New      bool
	Draft    library.Fields
	Errors   library.FieldErrors
	Dirty    bool
}

// EditSession edits at most one item at a time. The draft is a copy, so
// the cached item is never touched until the server confirms a commit.
type EditSession[T library.Entity] struct {
	mu       sync.Mutex
	schema   []library.FieldSpec
	state    EditState
	targetID string
	isNew    bool
	original library.Fields
	draft    library.Fields
	errs     library.FieldErrors
}

// NewEditSession builds an idle session for items described by schema.
func NewEditSession[T library.Entity](schema []library.FieldSpec) *EditSession[T] {
	return &EditSession[T]{schema: schema}
}

// Start begins editing item. An edit already in progress is abandoned.
// Starting while a commit is in flight is rejected.
func (e *EditSession[T]) Start(item T) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Committing {
		return ErrCommitInProgress
	}
	e.begin(item.EntityID(), false, e.pick(item.Fields()))
	return nil
}

// StartNew begins a draft for an item that does not exist yet.
func (e *EditSession[T]) StartNew() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Committing {
		return ErrCommitInProgress
	}
	e.begin("", true, e.pick(nil))
	return nil
}

func (e *EditSession[T]) begin(id string, isNew bool, fields library.Fields) {
	e.state = Editing
	e.targetID = id
	e.isNew = isNew
	e.original = fields
	e.draft = fields.Clone()
	e.errs = nil
}

// pick keeps only schema fields, so the draft never carries read-only data.
func (e *EditSession[T]) pick(fields library.Fields) library.Fields {
	out := make(library.Fields, len(e.schema))
	for _, spec := range e.schema {
		out[spec.Name] = fields[spec.Name]
	}
	return out
}

// Set changes one draft field. An invalid value is stored so the user can
// keep typing, and its error is returned and recorded for that field only.
func (e *EditSession[T]) Set(field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case Idle:
		return ErrNotEditing
	case Committing:
		return ErrCommitInProgress
	}
	idx := slices.IndexFunc(e.schema, func(s library.FieldSpec) bool { return s.Name == field })
	if idx < 0 {
		return fmt.Errorf("unknown field %q", field)
	}
	e.draft[field] = value
	if verr := library.ValidateField(e.schema[idx], value); verr != nil {
		if e.errs == nil {
			e.errs = library.FieldErrors{}
		}
		e.errs[field] = verr
		return verr
	}
	delete(e.errs, field)
	return nil
}

// Cancel discards the draft without any remote call.
func (e *EditSession[T]) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Committing {
		return ErrCommitInProgress
	}
	e.reset()
	return nil
}

// Abandon cancels the edit if it targets id.
func (e *EditSession[T]) Abandon(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Editing && e.targetID == id {
		e.reset()
	}
}

func (e *EditSession[T]) reset() {
	e.state = Idle
	e.targetID = ""
	e.isNew = false
	e.original = nil
	e.draft = nil
	e.errs = nil
}

// View returns a copy of the session state.
func (e *EditSession[T]) View() EditView {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := EditView{State: e.state, TargetID: e.targetID, New: e.isNew}
	if e.draft != nil {
		v.Draft = e.draft.Clone()
		v.Dirty = !maps.Equal(e.draft, e.original)
	}
	if len(e.errs) > 0 {
		v.Errors = maps.Clone(e.errs)
	}
	return v
}

// Submit validates the draft and hands it to commit. An invalid draft stays
// in Editing and returns library.FieldErrors. A failed commit goes back to
// Editing with the draft kept and returns *CommitError. Success ends the
// session and returns the server's item.
func (e *EditSession[T]) Submit(ctx context.Context, commit CommitFunc[T]) (T, error) {
	var zero T
	e.mu.Lock()
	switch e.state {
	case Idle:
		e.mu.Unlock()
		return zero, ErrNotEditing
	case Committing:
		e.mu.Unlock()
		return zero, ErrCommitInProgress
	}
	if errs := library.Validate(e.schema, e.draft); errs != nil {
		e.errs = errs
		e.mu.Unlock()
		return zero, errs
	}
	e.state = Committing
	id, isNew, draft := e.targetID, e.isNew, e.draft.Clone()
	e.mu.Unlock()

	item, err := commit(ctx, id, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = Editing
		op := "update"
		if isNew {
			op = "create"
		}
		return zero, &CommitError{Op: op, ID: id, Err: err}
	}
	e.reset()
	return item, nil
}
