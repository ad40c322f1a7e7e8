// Package trigger turns view events into reconciliation passes.
package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/checkmark/internal/debounce"
	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/mmcdole/checkmark/internal/reconcile"
)

// Default debounce delays
const (
	ContentDelay    = 1000 * time.Millisecond
	NavigationDelay = 500 * time.Millisecond
	StartupDelay    = 1000 * time.Millisecond
)

// Processor runs a reconciliation pass. Reset forgets the last processed
// view so the next pass over it is not skipped as unchanged.
type Processor interface {
	Process(ctx context.Context, view domain.ViewState, force bool) reconcile.Result
	Reset()
}

// Invalidator drops every cached membership tier
type Invalidator interface {
	Invalidate()
}

// Trigger schedules passes in response to content changes, navigation and
// manual refreshes. Content and navigation events have separate debouncers,
// so a burst of one does not postpone the other.
type Trigger struct {
	engine Processor
	cache  Invalidator
	view   domain.ViewSource
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	content    *debounce.Debouncer
	navigation *debounce.Debouncer
	startup    *debounce.Debouncer

	contentDelay    time.Duration
	navigationDelay time.Duration
	startupDelay    time.Duration

	onResult func(reconcile.Result)
}

// Option configures a Trigger
type Option func(*Trigger)

// WithDelays overrides the content, navigation and startup delays
func WithDelays(content, navigation, startup time.Duration) Option {
	return func(t *Trigger) {
		t.contentDelay = content
		t.navigationDelay = navigation
		t.startupDelay = startup
	}
}

// WithResultHandler registers fn to receive the result of every debounced pass
func WithResultHandler(fn func(reconcile.Result)) Option {
	return func(t *Trigger) {
		t.onResult = fn
	}
}

// New creates a Trigger. Debounced passes run with ctx until Stop is called.
func New(ctx context.Context, engine Processor, cache Invalidator, view domain.ViewSource, logger *slog.Logger, opts ...Option) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	t := &Trigger{
		engine:          engine,
		cache:           cache,
		view:            view,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		content:         debounce.New(),
		navigation:      debounce.New(),
		startup:         debounce.New(),
		contentDelay:    ContentDelay,
		navigationDelay: NavigationDelay,
		startupDelay:    StartupDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start schedules the initial pass
func (t *Trigger) Start() {
	t.schedule(t.startup, "startup", t.startupDelay, false)
}

// ContentChanged schedules a pass after the visible tracks changed
func (t *Trigger) ContentChanged() {
	t.schedule(t.content, "content", t.contentDelay, false)
}

// NavigationChanged schedules a pass after the user moved to another view
func (t *Trigger) NavigationChanged() {
	t.schedule(t.navigation, "navigation", t.navigationDelay, false)
}

// ResetView is called when indicators were cleared outside a pass, so the
// current view is reconciled again even if its identity did not change.
func (t *Trigger) ResetView() {
	t.engine.Reset()
}

// Refresh runs a pass immediately on the caller's goroutine. A forced refresh
// invalidates every cache tier first and re-resolves all visible tracks.
func (t *Trigger) Refresh(ctx context.Context, force bool) reconcile.Result {
	if force {
		t.cache.Invalidate()
	}
	result := t.engine.Process(ctx, t.view.CurrentView(), force)
	t.logger.Debug("refresh finished", "force", force, "outcome", result.Outcome.String())
	return result
}

// Invalidate clears the membership cache without running a pass
func (t *Trigger) Invalidate() {
	t.cache.Invalidate()
	t.logger.Info("membership cache invalidated")
}

// Stop cancels pending passes and the context of a running one
func (t *Trigger) Stop() {
	t.startup.Stop()
	t.content.Stop()
	t.navigation.Stop()
	t.cancel()
}

func (t *Trigger) schedule(d *debounce.Debouncer, reason string, delay time.Duration, retry bool) {
	d.Schedule(func() { t.run(d, reason, delay, retry) }, delay)
}

// run executes one debounced pass. A pass dropped because another was in
// flight is retried once on the same debouncer.
func (t *Trigger) run(d *debounce.Debouncer, reason string, delay time.Duration, retry bool) {
	if t.ctx.Err() != nil {
		return
	}
	result := t.engine.Process(t.ctx, t.view.CurrentView(), false)
	t.logger.Debug("pass finished",
		"reason", reason,
		"retry", retry,
		"outcome", result.Outcome.String(),
		"cached", result.Cached,
		"resolved", result.Resolved)
	if result.Outcome == reconcile.OutcomeBusy && !retry && t.ctx.Err() == nil {
		t.schedule(d, reason, delay, true)
	}
	if t.onResult != nil {
		t.onResult(result)
	}
}
