package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/checkmark/internal/domain"
	"golang.org/x/sync/semaphore"
)

// State is the phase of the pass currently in flight
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateCacheServing
	StateResolving
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateCacheServing:
		return "cache-serving"
	case StateResolving:
		return "resolving"
	default:
		return "idle"
	}
}

// Outcome describes how a call to Process ended
type Outcome int

const (
	OutcomeCompleted  Outcome = iota
	OutcomeCleared            // View does not take indicators; all were removed
	OutcomeBusy               // Another pass was in flight; this one was dropped
	OutcomeUnchanged          // Same view as the last completed pass
	OutcomeUnresolved         // Library ids could not be resolved; retry later
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCleared:
		return "cleared"
	case OutcomeBusy:
		return "busy"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return "completed"
	}
}

// Result summarizes one pass
type Result struct {
	Outcome  Outcome
	Identity string
	Cached   int // Verdicts served from the per-item cache
	Resolved int // Verdicts resolved against the library id set
	Found    int // Resolved verdicts that were in the library
	Err      error
}

// Membership is the part of the membership cache a pass needs
type Membership interface {
	Lookup(id string) (domain.MembershipEntry, bool)
	Update(id string, inLibrary bool)
	CatalogIDs(ctx context.Context) (domain.CatalogIDSet, error)
}

// Engine runs reconciliation passes: it decides which visible tracks need an
// answer, resolves them in one batch and hands verdicts to the annotator.
// At most one pass runs at a time; overlapping calls are dropped.
type Engine struct {
	cache     Membership
	annotator domain.Annotator
	logger    *slog.Logger

	busy  *semaphore.Weighted
	state atomic.Int32

	mu           sync.Mutex
	lastIdentity string
	hasLast      bool
}

// NewEngine creates an idle engine
func NewEngine(cache Membership, annotator domain.Annotator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cache:     cache,
		annotator: annotator,
		logger:    logger,
		busy:      semaphore.NewWeighted(1),
	}
}

// State returns the phase of the pass in flight
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Process reconciles the indicators of view. force re-resolves every visible
// track, ignoring existing indicators and per-item verdicts.
func (e *Engine) Process(ctx context.Context, view domain.ViewState, force bool) Result {
	if !view.Qualifying {
		e.annotator.ClearAll()
		e.forgetIdentity()
		return Result{Outcome: OutcomeCleared, Identity: view.Identity}
	}

	if !e.busy.TryAcquire(1) {
		e.logger.Debug("pass already in flight, dropping", "view", view.Identity)
		return Result{Outcome: OutcomeBusy, Identity: view.Identity}
	}
	defer func() {
		e.setState(StateIdle)
		e.busy.Release(1)
	}()

	if !force && e.sameIdentity(view.Identity) {
		return Result{Outcome: OutcomeUnchanged, Identity: view.Identity}
	}

	e.setState(StateScanning)
	e.logger.Debug("processing view", "view", view.Identity, "tracks", len(view.VisibleIDs), "force", force)

	result := Result{Outcome: OutcomeCompleted, Identity: view.Identity}

	var batch []string // Resolution batch, in scan order

	for _, id := range view.VisibleIDs {
		if id == "" {
			continue
		}

		if force {
			e.annotator.Unmark(id)
		} else {
			if e.annotator.Marked(id) {
				continue
			}
			if entry, ok := e.cache.Lookup(id); ok {
				e.setState(StateCacheServing)
				e.annotator.Annotate(domain.Verdict{ID: id, InLibrary: entry.IsInLibrary, FromCache: true})
				result.Cached++
				continue
			}
		}

		batch = append(batch, id)
	}

	if result.Cached > 0 {
		e.logger.Debug("used cache for tracks", "count", result.Cached)
	}

	if len(batch) > 0 {
		e.setState(StateResolving)
		e.logger.Debug("checking tracks", "count", len(batch))

		// One resolution for the whole batch
		ids, err := e.cache.CatalogIDs(ctx)
		if err != nil {
			e.logger.Warn("could not resolve library, leaving tracks unmarked",
				"view", view.Identity, "pending", len(batch), "error", err)
			result.Outcome = OutcomeUnresolved
			result.Err = err
			return result
		}

		for _, id := range batch {
			inLibrary := ids.Contains(id)
			e.cache.Update(id, inLibrary)
			e.annotator.Annotate(domain.Verdict{ID: id, InLibrary: inLibrary})
			result.Resolved++
			if inLibrary {
				result.Found++
			}
		}

		e.logger.Debug("resolved tracks", "found", result.Found, "checked", result.Resolved)
	}

	e.rememberIdentity(view.Identity)
	return result
}

// Reset forgets the last processed view. Call it when indicators were cleared
// outside the engine; otherwise the next pass over that view is skipped.
func (e *Engine) Reset() {
	e.forgetIdentity()
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

func (e *Engine) sameIdentity(identity string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasLast && e.lastIdentity == identity
}

func (e *Engine) rememberIdentity(identity string) {
	e.mu.Lock()
	e.lastIdentity = identity
	e.hasLast = true
	e.mu.Unlock()
}

func (e *Engine) forgetIdentity() {
	e.mu.Lock()
	e.lastIdentity = ""
	e.hasLast = false
	e.mu.Unlock()
}
