package listsync

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/state"
)

// DeletePolicy decides what happens to the current page after a delete.
type DeletePolicy int

const (
	// StepBack removes the row locally and moves to the previous page when
	// the current page becomes empty.
	StepBack DeletePolicy = iota
	// TrustLocal removes the row locally and does nothing else.
	TrustLocal
	// Refetch always reloads the current query.
	Refetch
)

func (p DeletePolicy) String() string {
	switch p {
	case TrustLocal:
		return "trust-local"
	case Refetch:
		return "refetch"
	default:
		return "step-back"
	}
}

// ParseDeletePolicy reads a policy name. Empty means StepBack.
func ParseDeletePolicy(raw string) (DeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "step-back":
		return StepBack, nil
	case "trust-local":
		return TrustLocal, nil
	case "refetch":
		return Refetch, nil
	default:
		return StepBack, fmt.Errorf("delete policy %q: want step-back, trust-local or refetch", raw)
	}
}

// Confirmation is a one-shot yes/no gate in front of a destructive call.
// The wrapped call runs at most once.
type Confirmation struct {
	ID     string
	Prompt string

	mu   sync.Mutex
	used bool
	run  func(context.Context) error
}

// NewConfirmation wraps run behind a gate.
func NewConfirmation(id, prompt string, run func(context.Context) error) *Confirmation {
	return &Confirmation{ID: id, Prompt: prompt, run: run}
}

// Confirm runs the wrapped call. Any later Confirm or Decline returns
// ErrConfirmationUsed.
func (c *Confirmation) Confirm(ctx context.Context) error {
	if err := c.consume(); err != nil {
		return err
	}
	return c.run(ctx)
}

// Decline consumes the gate without running the call.
func (c *Confirmation) Decline() error {
	return c.consume()
}

// Used reports whether the gate was answered.
func (c *Confirmation) Used() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

func (c *Confirmation) consume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used {
		return ErrConfirmationUsed
	}
	c.used = true
	return nil
}

// Followup tells the list what to fetch after a successful mutation.
type Followup struct {
	Refetch bool
	Page    int // when > 0, move to this page instead
}

// Reconciler applies confirmed server mutations to the page cache.
type Reconciler[T library.Entity] struct {
	cache              *state.Store[T]
	policy             DeletePolicy
	refetchAfterCommit bool
}

// NewReconciler builds a reconciler for cache.
func NewReconciler[T library.Entity](cache *state.Store[T], policy DeletePolicy, refetchAfterCommit bool) *Reconciler[T] {
	return &Reconciler[T]{cache: cache, policy: policy, refetchAfterCommit: refetchAfterCommit}
}

// Updated replaces the cached row with the server's copy.
func (r *Reconciler[T]) Updated(item T) Followup {
	replaced := r.cache.ReplaceItem(item)
	return Followup{Refetch: r.refetchAfterCommit || !replaced}
}

// Created always refetches, since only the server knows where the new item
// sorts.
func (r *Reconciler[T]) Created() Followup {
	return Followup{Refetch: true}
}

// Deleted removes the row and applies the delete policy.
func (r *Reconciler[T]) Deleted(id string) Followup {
	remaining, _ := r.cache.RemoveItem(id)
	switch r.policy {
	case Refetch:
		return Followup{Refetch: true}
	case StepBack:
		if remaining > 0 {
			return Followup{}
		}
		snap := r.cache.Snapshot()
		if snap.TotalPages > snap.CurrentPage {
			return Followup{Refetch: true}
		}
		if snap.CurrentPage > 1 {
			return Followup{Page: snap.CurrentPage - 1}
		}
	}
	return Followup{}
}
