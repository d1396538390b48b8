// Package resource mirrors one backend table into local, ordered view state
// and exposes its mutations. Failures never escape: every operation records
// a human-readable message instead.
package resource

import (
	"context"
	"io"
	"log"
	"slices"
	"sync"

	"github.com/tgienger/pmdash/internal/backend"
)

// Entity is a row type with a server-assigned id
type Entity interface {
	Key() string
}

// Hook synchronizes a local list of T with one table
type Hook[T Entity] struct {
	store   backend.DataStore
	table   string
	query   backend.Query
	dynamic []func() backend.Filter
	logger  *log.Logger

	// ctx ends when the owner closes the hook; every request derives from it
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	items   []T
	loading bool
	err     string
	stale   bool
}

// Option configures a Hook
type Option func(*options)

type options struct {
	filters []backend.Filter
	dynamic []func() backend.Filter
	order   *backend.Order
	limit   int
	logger  *log.Logger
}

// WithFilter restricts List to rows matching f (for example a parent reference)
func WithFilter(f backend.Filter) Option {
	return func(o *options) { o.filters = append(o.filters, f) }
}

// WithFilterFunc adds a filter computed again on every List, for bounds
// that move with time
func WithFilterFunc(f func() backend.Filter) Option {
	return func(o *options) { o.dynamic = append(o.dynamic, f) }
}

// WithOrder replaces the default created_at descending order
func WithOrder(column string, ascending bool) Option {
	return func(o *options) { o.order = &backend.Order{Column: column, Ascending: ascending} }
}

// WithLimit caps List at n rows
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a hook over table. It starts stale and loading; nothing is
// fetched until List, Refresh or EnsureLoaded is called.
func New[T Entity](store backend.DataStore, table string, opts ...Option) *Hook[T] {
	o := options{
		order:  &backend.Order{Column: "created_at", Ascending: false},
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hook[T]{
		store:   store,
		table:   table,
		query:   backend.Query{Filters: o.filters, Order: o.order, Limit: o.limit},
		dynamic: o.dynamic,
		logger:  o.logger,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
		stale:   true,
	}
}

// request derives a context that ends with either the caller's ctx or the hook
func (h *Hook[T]) request(ctx context.Context) (context.Context, context.CancelFunc) {
	rctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(h.ctx, cancel)
	return rctx, func() {
		stop()
		cancel()
	}
}

// listQuery is the configured query with the dynamic filters evaluated now
func (h *Hook[T]) listQuery() backend.Query {
	if len(h.dynamic) == 0 {
		return h.query
	}
	q := h.query
	q.Filters = slices.Clone(h.query.Filters)
	for _, f := range h.dynamic {
		q.Filters = append(q.Filters, f())
	}
	return q
}

func (h *Hook[T]) closed() bool {
	return h.ctx.Err() != nil
}

// fail records err as the hook's error message
func (h *Hook[T]) fail(op string, err error) {
	h.logger.Printf("%s %s: %v", op, h.table, err)
	h.mu.Lock()
	h.err = err.Error()
	h.mu.Unlock()
}

// List fetches every matching row and replaces local state. Calling it again
// with no intervening mutation yields the same state.
func (h *Hook[T]) List(ctx context.Context) {
	rctx, done := h.request(ctx)
	defer done()

	rows, err := h.store.Select(rctx, h.table, h.listQuery())

	var items []T
	if err == nil {
		items = make([]T, 0, len(rows))
		for _, row := range rows {
			var item T
			if err = backend.Decode(row, &item); err != nil {
				break
			}
			items = append(items, item)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed() {
		return
	}
	if err != nil {
		h.logger.Printf("list %s: %v", h.table, err)
		h.err = err.Error()
	} else {
		h.items = items
		h.err = ""
		h.stale = false
	}
	h.loading = false
}

// Refresh re-runs List
func (h *Hook[T]) Refresh(ctx context.Context) {
	h.List(ctx)
}

// Invalidate marks local state stale so the next EnsureLoaded refetches
func (h *Hook[T]) Invalidate() {
	h.mu.Lock()
	h.stale = true
	h.mu.Unlock()
}

// Stale reports whether local state needs a refetch
func (h *Hook[T]) Stale() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stale
}

// EnsureLoaded lists only when local state is stale
func (h *Hook[T]) EnsureLoaded(ctx context.Context) {
	if h.Stale() {
		h.List(ctx)
	}
}

// Create inserts payload and prepends the canonical row. It returns nil on failure.
func (h *Hook[T]) Create(ctx context.Context, payload any) *T {
	row, err := backend.Encode(payload)
	if err != nil {
		h.fail("create", err)
		return nil
	}

	rctx, done := h.request(ctx)
	defer done()

	stored, err := h.store.Insert(rctx, h.table, row)
	if err != nil {
		h.fail("create", err)
		return nil
	}

	var item T
	if err := backend.Decode(stored, &item); err != nil {
		h.fail("create", err)
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed() {
		return nil
	}
	h.items = append([]T{item}, h.items...)
	return &item
}

// Update patches the row with id and merges the returned fields into the
// matching local entry. It returns nil on failure.
func (h *Hook[T]) Update(ctx context.Context, id string, patch backend.Row) *T {
	rctx, done := h.request(ctx)
	defer done()

	stored, err := h.store.Update(rctx, h.table, patch, backend.Eq("id", id))
	if err != nil {
		h.fail("update", err)
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed() {
		return nil
	}

	var merged T
	i := slices.IndexFunc(h.items, func(item T) bool { return item.Key() == id })
	if i >= 0 {
		merged = h.items[i]
	}
	if err := backend.Decode(stored, &merged); err != nil {
		h.logger.Printf("update %s: %v", h.table, err)
		h.err = err.Error()
		return nil
	}
	if i >= 0 {
		h.items[i] = merged
	}
	return &merged
}

// Delete removes the row with id and drops it locally. It reports success.
func (h *Hook[T]) Delete(ctx context.Context, id string) bool {
	rctx, done := h.request(ctx)
	defer done()

	if err := h.store.Delete(rctx, h.table, backend.Eq("id", id)); err != nil {
		h.fail("delete", err)
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed() {
		return false
	}
	h.items = slices.DeleteFunc(h.items, func(item T) bool { return item.Key() == id })
	return true
}

// Items returns a copy of the local list
func (h *Hook[T]) Items() []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.items)
}

// Loading reports whether the first List has not finished yet
func (h *Hook[T]) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// Err returns the most recent error message, or ""
func (h *Hook[T]) Err() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// ClearErr forgets the recorded error message
func (h *Hook[T]) ClearErr() {
	h.mu.Lock()
	h.err = ""
	h.mu.Unlock()
}

// Close cancels in-flight requests; results that arrive afterwards are dropped
func (h *Hook[T]) Close() {
	h.cancel()
}
