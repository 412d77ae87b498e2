package featureconfig

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// outcomeBuffer bounds each subscriber's delivery queue. Producing a result
// never blocks: once a subscriber's queue is full its oldest entry is
// dropped to make room.
const outcomeBuffer = 100

// Outcome is a single terminal publication for a resolution request: either
// the ordered rows or an error, never both.
type Outcome struct {
	RequestID uuid.UUID
	Selection Selection
	Rows      []FeatureRow
	Err       error
}

// ResolutionService drives one resolution per request and republishes the
// outcome to any number of subscribers. A new request supersedes the
// previous one; at most one in-flight request produces output. Subscribers
// that attach late receive only subsequent publications.
type ResolutionService struct {
	repo   *Repository
	logger *slog.Logger

	root       context.Context
	rootCancel context.CancelFunc

	mu          sync.Mutex
	subscribers map[uint64]chan Outcome
	nextSubID   uint64
	cancelPrev  context.CancelFunc
	closed      bool

	wg sync.WaitGroup
}

// NewResolutionService constructs a service over the repository.
func NewResolutionService(repo *Repository, logger *slog.Logger) *ResolutionService {
	if logger == nil {
		logger = slog.Default()
	}
	root, cancel := context.WithCancel(context.Background())
	return &ResolutionService{
		repo:        repo,
		logger:      logger,
		root:        root,
		rootCancel:  cancel,
		subscribers: make(map[uint64]chan Outcome),
	}
}

// Subscribe registers an observer. The returned cancel func detaches it and
// closes the channel. The channel is buffered; slow consumers lose their
// oldest undelivered outcomes rather than blocking producers.
func (s *ResolutionService) Subscribe() (<-chan Outcome, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Outcome, outcomeBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subscribers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// Request starts resolving the selection in the background, cancelling and
// superseding any request still in flight. When refresh is true, or the
// repository still holds the built-in default, a remote fetch precedes
// resolution. The request id identifies the eventual Outcome.
func (s *ResolutionService) Request(sel Selection, refresh bool) uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return id
	}
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	ctx, cancel := context.WithCancel(s.root)
	s.cancelPrev = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, id, sel, refresh)
	return id
}

func (s *ResolutionService) run(ctx context.Context, id uuid.UUID, sel Selection, refresh bool) {
	defer s.wg.Done()

	var doc Document
	if refresh || s.repo.IsDefault(ctx) {
		doc = s.repo.FetchAndPersist(ctx)
	} else {
		doc = s.repo.Get(ctx)
	}

	// A superseded or shut-down request publishes nothing.
	if ctx.Err() != nil {
		return
	}

	rows, err := s.resolve(doc, sel)
	if err != nil {
		s.logger.Error("resolution failed", slog.Any("error", err))
		s.publish(ctx, Outcome{RequestID: id, Selection: sel, Err: err})
		return
	}
	s.publish(ctx, Outcome{RequestID: id, Selection: sel, Rows: rows})
}

// resolve wraps the pure resolver so an unexpected panic reaches observers
// as a failure publication with its cause, rather than tearing the process.
func (s *ResolutionService) resolve(doc Document, sel Selection) (rows []FeatureRow, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("featureconfig: resolve: %v", rec)
		}
	}()
	return Resolve(doc, sel), nil
}

func (s *ResolutionService) publish(ctx context.Context, o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// Supersession cancels under s.mu, so checking here guarantees a
	// request cancelled before this point never publishes.
	if ctx.Err() != nil {
		return
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- o:
		default:
			// Full buffer: drop the oldest entry, then deliver.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- o:
			default:
			}
		}
	}
}

// Close cancels any in-flight request, waits for it to wind down, and
// closes all subscriber channels.
func (s *ResolutionService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.rootCancel()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}
