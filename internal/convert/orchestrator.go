package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thywilljoshua/boq2xlsx/internal/ai"
	"github.com/thywilljoshua/boq2xlsx/internal/boq"
)

// PageExtractor extracts one rasterized page. ai.Client implements it.
type PageExtractor interface {
	ExtractPage(ctx context.Context, page int, png []byte) (boq.Section, error)
}

// Orchestrator drives the page loop: one page at a time, ascending order,
// cancellable before and after each extraction call.
type Orchestrator struct {
	renderer  Renderer
	extractor PageExtractor
	log       zerolog.Logger
	retries   int
	backoff   func(attempt int) time.Duration
	pageCount func(path string) int

	mu      sync.Mutex
	state   State
	running bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithRetries retries a failed page up to n more times before giving up on it.
func WithRetries(n int, backoff func(attempt int) time.Duration) Option {
	return func(o *Orchestrator) {
		o.retries = n
		if backoff != nil {
			o.backoff = backoff
		}
	}
}

// WithPageCounter replaces the PDF page counter used for range validation.
func WithPageCounter(fn func(path string) int) Option {
	return func(o *Orchestrator) { o.pageCount = fn }
}

func NewOrchestrator(r Renderer, x PageExtractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		renderer:  r,
		extractor: x,
		log:       zerolog.Nop(),
		backoff:   Backoff,
		pageCount: PageCount,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	o.state = StateRunning
	return true
}

func (o *Orchestrator) release(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
	o.state = s
}

// CheckRequest validates req, including the upper page bound when the page
// count is known.
func (o *Orchestrator) CheckRequest(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := statFile(req.Path); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if n := o.pageCount(req.Path); n > 0 && req.To > n {
		return fmt.Errorf("%w: to page %d exceeds page count %d", ErrInvalidRequest, req.To, n)
	}
	return nil
}

// Run extracts pages req.From..req.To. Cancelling ctx stops the loop at the
// next check and returns the pages gathered so far with StateCancelled and a
// nil error. If no page succeeds the run fails with ErrNoPages.
func (o *Orchestrator) Run(ctx context.Context, req Request, progress *Progress) (Result, error) {
	if err := o.CheckRequest(req); err != nil {
		return Result{State: StateIdle}, err
	}
	if !o.acquire() {
		return Result{State: StateRunning}, ErrBusy
	}

	res := Result{RunID: uuid.NewString()}
	log := o.log.With().Str("run_id", res.RunID).Str("source", req.Path).Logger()
	start := time.Now()
	log.Info().Int("from", req.From).Int("to", req.To).Msg("extraction started")

	state, err := o.loop(ctx, req, progress, &res, log)
	res.State = state
	o.release(state)

	ev := log.Info()
	if state == StateFailed {
		ev = log.Error().Err(err)
	}
	ev.Str("state", string(state)).
		Int("pages_ok", len(res.Pages)).
		Int("pages_failed", len(res.Failures)).
		Dur("elapsed", time.Since(start)).
		Msg("extraction finished")

	switch state {
	case StateCompleted:
		progress.Publish(Event{Kind: EventFinished})
		return res, nil
	case StateCancelled:
		progress.Publish(Event{Kind: EventCancelled})
		return res, nil
	}
	progress.Publish(Event{Kind: EventNoPages})
	return res, err
}

func (o *Orchestrator) loop(ctx context.Context, req Request, progress *Progress, res *Result, log zerolog.Logger) (State, error) {
	images, err := o.renderer.Render(ctx, req.Path, req.From, req.To, req.Zoom)
	if err != nil {
		if ctx.Err() != nil {
			return StateCancelled, nil
		}
		return StateFailed, fmt.Errorf("render pages: %w", err)
	}

	total := len(images)
	for _, img := range images {
		progress.Publish(Event{Kind: EventPageStart, Page: img.Page, Total: total})
		if ctx.Err() != nil {
			progress.Publish(Event{Kind: EventCancelling, Page: img.Page, Total: total})
			return StateCancelled, nil
		}

		sec, err := o.extract(ctx, img, log)

		// the call may have run long; drop its result if cancelled meanwhile
		if ctx.Err() != nil {
			progress.Publish(Event{Kind: EventCancelling, Page: img.Page, Total: total})
			return StateCancelled, nil
		}
		if err != nil {
			xerr := asExtractionError(img.Page, err)
			res.Failures = append(res.Failures, xerr)
			log.Warn().Err(err).Int("page", img.Page).Msg("page extraction failed")
			progress.Publish(Event{Kind: EventPageError, Page: img.Page, Total: total, Message: xerr.Message})
			continue
		}

		res.Pages = append(res.Pages, boq.PageResult{Page: img.Page, Section: &sec})
		log.Debug().Int("page", img.Page).Str("title", sec.Title).Int("items", len(sec.Items)).Msg("page extracted")
		progress.Publish(Event{Kind: EventPageDone, Page: img.Page, Total: total})
	}

	if len(res.Pages) == 0 {
		return StateFailed, ErrNoPages
	}
	return StateCompleted, nil
}

// extract calls the extractor, retrying the same page on failure. Retries
// never move on to another page, so page order is preserved.
func (o *Orchestrator) extract(ctx context.Context, img PageImage, log zerolog.Logger) (boq.Section, error) {
	var lastErr error
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			wait := o.backoff(attempt - 1)
			log.Warn().Err(lastErr).Int("page", img.Page).Int("attempt", attempt).Dur("wait", wait).Msg("retrying page")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return boq.Section{}, ctx.Err()
			}
		}
		sec, err := o.extractor.ExtractPage(ctx, img.Page, img.PNG)
		if err == nil {
			return sec, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return boq.Section{}, lastErr
}

func asExtractionError(page int, err error) *ai.ExtractionError {
	var xerr *ai.ExtractionError
	if errors.As(err, &xerr) {
		return xerr
	}
	return &ai.ExtractionError{Page: page, Message: err.Error(), Err: err}
}

func statFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return info, nil
}
