package featureconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Repository orchestrates the remote source and the persistent store behind
// a single consistent view of the current document.
//
// The repository never lets an I/O failure escape as an invalid document:
// a failed fetch degrades to the persisted value, and a missing or
// unreadable persisted value degrades to the built-in default.
type Repository struct {
	source Source
	store  Store
	logger *slog.Logger

	// OnFetch, when set, is invoked once per FetchAndPersist with the
	// outcome: "fresh", "stale" or "default". Set during wiring, before
	// the repository is shared.
	OnFetch func(outcome string)

	fetchGroup singleflight.Group

	mu      sync.Mutex
	current *Document
}

// NewRepository constructs a repository over the given source and store.
func NewRepository(source Source, store Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{source: source, store: store, logger: logger}
}

// loadLocked populates the in-memory cell from the store on first use.
// Callers must hold mu.
func (r *Repository) loadLocked(ctx context.Context) Document {
	if r.current != nil {
		return *r.current
	}
	doc, err := r.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoDocument) {
			r.logger.Warn("load persisted config", slog.Any("error", err))
		}
		doc = DefaultDocument()
		// Not persisted: a synthetic default in the store would shadow the
		// novelty check a later successful fetch relies on.
	}
	r.current = &doc
	return doc
}

// Get returns the currently persisted document without network activity.
// It never fails: an absent or unreadable cache yields the default.
func (r *Repository) Get(ctx context.Context) Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

// Set atomically replaces the persisted document.
func (r *Repository) Set(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLocked(ctx, doc)
}

func (r *Repository) setLocked(ctx context.Context, doc Document) error {
	if err := r.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("featureconfig: persist document: %w", err)
	}
	r.current = &doc
	return nil
}

// Update applies transform to the current document and persists the result
// as one indivisible operation. Concurrent updates are serialized; each
// invocation observes a consistent prior value and no write is lost.
func (r *Repository) Update(ctx context.Context, transform func(Document) Document) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := transform(r.loadLocked(ctx))
	if err := r.setLocked(ctx, next); err != nil {
		return Document{}, err
	}
	return next, nil
}

// IsDefault reports whether the current document is the built-in default.
// Callers use it to decide whether a forced refresh is warranted even when
// none was requested.
func (r *Repository) IsDefault(ctx context.Context) bool {
	return r.Get(ctx).IsDefault()
}

// FetchAndPersist attempts a remote fetch. On success the result becomes
// the new persisted document and is returned. On any failure the currently
// persisted document is returned unchanged; with no cache at all the
// built-in default is returned and deliberately not persisted. The fetch
// error never escapes this boundary.
//
// Concurrent callers share a single in-flight fetch. The fetch itself runs
// detached from any one caller's context, so cancelling one caller only
// abandons that caller's wait; other callers still receive the result.
func (r *Repository) FetchAndPersist(ctx context.Context) Document {
	resultCh := r.fetchGroup.DoChan("fetch", func() (any, error) {
		return r.fetchAndPersist(context.WithoutCancel(ctx)), nil
	})
	select {
	case <-ctx.Done():
		return r.Get(context.WithoutCancel(ctx))
	case res := <-resultCh:
		return res.Val.(Document)
	}
}

func (r *Repository) observeFetch(outcome string) {
	if r.OnFetch != nil {
		r.OnFetch(outcome)
	}
}

func (r *Repository) fetchAndPersist(ctx context.Context) Document {
	doc, err := r.source.Fetch(ctx)
	if err != nil {
		r.logger.Warn("config fetch failed, serving persisted document", slog.Any("error", err))
		served := r.Get(ctx)
		if served.IsDefault() {
			r.observeFetch("default")
		} else {
			r.observeFetch("stale")
		}
		return served
	}
	r.observeFetch("fresh")
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.setLocked(ctx, doc); err != nil {
		// Serve the fetched value anyway; only persistence lagged.
		r.logger.Warn("persist fetched config", slog.Any("error", err))
		r.current = &doc
	}
	return doc
}
