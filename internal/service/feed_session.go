package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/dto"
	"github.com/noah-isme/thesurve-web/internal/models"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
)

const feedBuffer = 32

type suggester interface {
	Suggest(ctx context.Context, field models.PostingField, text string) ([]string, error)
}

// FeedService opens live feed sessions.
type FeedService struct {
	fetcher     *ListingFetcher
	suggestions suggester
	suggestGate QueryPolicy
	metrics     *MetricsService
	logger      *zap.Logger
	schedule    scheduleFunc
}

// NewFeedService constructs the service. suggestGate governs autocomplete
// input; the listing gate comes from the fetcher.
func NewFeedService(fetcher *ListingFetcher, suggestions suggester, suggestGate QueryPolicy, metrics *MetricsService, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{
		fetcher:     fetcher,
		suggestions: suggestions,
		suggestGate: suggestGate,
		metrics:     metrics,
		logger:      logger,
		schedule:    afterFunc,
	}
}

// FeedSession is the state of one live listing view: the active filter, the
// pages accumulated for it and at most one in-flight fetch. Every filter
// commit bumps the generation; results carrying an older generation are
// discarded when they arrive.
type FeedSession struct {
	svc    *FeedService
	ctx    context.Context
	cancel context.CancelFunc
	out    chan dto.FeedFrame

	input   *DebouncedQuery
	suggest map[models.PostingField]*DebouncedQuery

	mu         sync.Mutex
	generation uint64
	started    bool
	filter     string
	pages      []models.Page
	inFlight   bool
	failed     *models.PageRequest
	suggestSeq map[models.PostingField]uint64
}

// Open starts a session and immediately loads the first page for filter.
// The session ends when ctx is cancelled or Close is called.
func (s *FeedService) Open(ctx context.Context, filter string) *FeedSession {
	ctx, cancel := context.WithCancel(ctx)
	sess := &FeedSession{
		svc:        s,
		ctx:        ctx,
		cancel:     cancel,
		out:        make(chan dto.FeedFrame, feedBuffer),
		suggest:    make(map[models.PostingField]*DebouncedQuery),
		suggestSeq: make(map[models.PostingField]uint64),
	}

	policy := s.fetcher.Policy()
	sess.input = newDebouncedQuery(policy, sess.commit, s.schedule)
	for _, field := range []models.PostingField{models.PostingFieldSchool, models.PostingFieldCourse} {
		field := field
		sess.suggest[field] = newDebouncedQuery(s.suggestGate, func(text string) { sess.runSuggest(field, text) }, s.schedule)
	}

	filter = policy.Normalize(filter)
	if !policy.Submittable(filter) {
		filter = ""
	}
	sess.commit(filter)
	return sess
}

// Frames is the stream of frames to send to the client.
func (f *FeedSession) Frames() <-chan dto.FeedFrame {
	return f.out
}

// Done is closed when the session ends.
func (f *FeedSession) Done() <-chan struct{} {
	return f.ctx.Done()
}

// Close ends the session. Pending debounced input is dropped and in-flight
// results are discarded.
func (f *FeedSession) Close() {
	f.input.Stop()
	for _, q := range f.suggest {
		q.Stop()
	}
	f.cancel()
}

// Handle dispatches a client frame.
func (f *FeedSession) Handle(frame dto.ClientFrame) {
	switch frame.Type {
	case dto.FrameInput:
		f.Input(frame.Text)
	case dto.FrameMore:
		f.More()
	case dto.FrameRetry:
		f.Retry()
	case dto.FrameSuggest:
		f.Suggest(models.PostingField(frame.Field), frame.Text)
	default:
		f.mu.Lock()
		f.emit(dto.FeedFrame{Type: dto.FrameError, Filter: f.filter, Message: "unknown frame type"})
		f.mu.Unlock()
	}
}

// Input feeds a keystroke to the debounced filter.
func (f *FeedSession) Input(text string) {
	f.input.Input(text)
}

// commit makes text the active filter and restarts the chain at offset 0.
// Re-committing the active filter keeps the current chain.
func (f *FeedSession) commit(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctx.Err() != nil {
		return
	}
	if f.started && text == f.filter {
		return
	}

	f.started = true
	f.generation++
	f.filter = text
	f.pages = nil
	f.failed = nil
	f.emit(dto.FeedFrame{Type: dto.FrameReset, Filter: text})
	f.launch(models.PageRequest{Filter: text, Limit: f.svc.fetcher.PageSize()})
}

// More requests the next page. It is a no-op while a fetch is in flight,
// after a failure (use Retry) or once the chain is terminal.
func (f *FeedSession) More() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight || f.failed != nil || len(f.pages) == 0 {
		return
	}
	req, ok := f.pages[len(f.pages)-1].NextRequest()
	if !ok {
		return
	}
	f.launch(req)
}

// Retry repeats the request that last failed, unchanged.
func (f *FeedSession) Retry() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight || f.failed == nil {
		return
	}
	req := *f.failed
	f.failed = nil
	f.launch(req)
}

// Items returns the accumulated postings of the active chain.
func (f *FeedSession) Items() []models.Posting {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Accumulate(f.pages)
}

// State reports whether more pages exist and whether one is being fetched.
func (f *FeedSession) State() (hasMore, fetching bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pages) > 0 {
		_, hasMore = f.pages[len(f.pages)-1].NextRequest()
	}
	return hasMore, f.inFlight
}

// Filter returns the active filter.
func (f *FeedSession) Filter() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

// launch must be called with mu held.
func (f *FeedSession) launch(req models.PageRequest) {
	f.inFlight = true
	gen := f.generation
	go f.fetch(gen, req)
}

func (f *FeedSession) fetch(gen uint64, req models.PageRequest) {
	page, err := f.svc.fetcher.Fetch(f.ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctx.Err() != nil {
		return
	}
	if gen != f.generation {
		f.svc.metrics.RecordStaleDiscard()
		return
	}
	f.inFlight = false

	if err != nil {
		f.failed = &req
		appErr := appErrors.FromError(err)
		f.emit(dto.FeedFrame{
			Type:      dto.FrameError,
			Filter:    req.Filter,
			Offset:    req.Offset,
			Retryable: appErrors.IsRetryable(err),
			Message:   appErr.Message,
		})
		return
	}

	f.pages = append(f.pages, page)
	_, hasMore := page.NextRequest()
	f.svc.metrics.RecordFeedPage("ws")
	f.emit(dto.FeedFrame{
		Type:       dto.FramePage,
		Filter:     req.Filter,
		Items:      dto.NewPostingCards(page.Items),
		Offset:     page.Request.Offset,
		TotalCount: page.TotalCount,
		HasMore:    hasMore,
	})
	if !hasMore {
		f.emit(dto.FeedFrame{Type: dto.FrameDone, Filter: req.Filter})
	}
}

// Suggest feeds a keystroke in an autocomplete field. Gated text clears the
// suggestions at once.
func (f *FeedSession) Suggest(field models.PostingField, text string) {
	q, ok := f.suggest[field]
	if !ok {
		f.mu.Lock()
		f.emit(dto.FeedFrame{Type: dto.FrameError, Filter: f.filter, Message: "unsupported suggestion field"})
		f.mu.Unlock()
		return
	}

	f.mu.Lock()
	f.suggestSeq[field]++
	f.mu.Unlock()

	if !q.Input(text) {
		f.mu.Lock()
		f.emit(dto.FeedFrame{Type: dto.FrameSuggestions, Field: string(field)})
		f.mu.Unlock()
	}
}

func (f *FeedSession) runSuggest(field models.PostingField, text string) {
	f.mu.Lock()
	seq := f.suggestSeq[field]
	f.mu.Unlock()

	go func() {
		values, err := f.svc.suggestions.Suggest(f.ctx, field, text)

		f.mu.Lock()
		defer f.mu.Unlock()
		if seq != f.suggestSeq[field] || f.ctx.Err() != nil {
			return
		}
		if err != nil {
			f.svc.logger.Debug("suggestions failed", zap.String("field", string(field)), zap.Error(err))
			values = nil
		}
		f.emit(dto.FeedFrame{Type: dto.FrameSuggestions, Field: string(field), Suggestions: values})
	}()
}

// emit must be called with mu held so frames keep their order.
func (f *FeedSession) emit(frame dto.FeedFrame) {
	select {
	case f.out <- frame:
	case <-f.ctx.Done():
	}
}
