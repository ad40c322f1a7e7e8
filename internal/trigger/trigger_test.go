package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/mmcdole/checkmark/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	identity string
	force    bool
}

type fakeEngine struct {
	mu     sync.Mutex
	calls  []call
	ch     chan call
	busy   int // number of leading passes reported as busy
	resets int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{ch: make(chan call, 16)}
}

func (f *fakeEngine) Process(_ context.Context, view domain.ViewState, force bool) reconcile.Result {
	c := call{identity: view.Identity, force: force}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	outcome := reconcile.OutcomeCompleted
	if f.busy > 0 {
		f.busy--
		outcome = reconcile.OutcomeBusy
	}
	f.mu.Unlock()
	f.ch <- c
	return reconcile.Result{Outcome: outcome, Identity: view.Identity}
}

func (f *fakeEngine) Reset() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
}

func (f *fakeEngine) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated int
}

func (f *fakeCache) Invalidate() {
	f.mu.Lock()
	f.invalidated++
	f.mu.Unlock()
}

type staticView struct{ state domain.ViewState }

func (v staticView) CurrentView() domain.ViewState { return v.state }

const (
	testContent    = 40 * time.Millisecond
	testNavigation = 20 * time.Millisecond
	testStartup    = 10 * time.Millisecond
)

func newTestTrigger(t *testing.T, opts ...Option) (*Trigger, *fakeEngine, *fakeCache) {
	t.Helper()
	engine := newFakeEngine()
	cache := &fakeCache{}
	view := staticView{state: domain.ViewState{Identity: "album/1", Qualifying: true, VisibleIDs: []string{"a"}}}

	opts = append([]Option{WithDelays(testContent, testNavigation, testStartup)}, opts...)
	tr := New(context.Background(), engine, cache, view, nil, opts...)
	t.Cleanup(tr.Stop)
	return tr, engine, cache
}

func waitCall(t *testing.T, engine *fakeEngine) call {
	t.Helper()
	select {
	case c := <-engine.ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pass")
		return call{}
	}
}

func TestContentChanged_CoalescesBurst(t *testing.T) {
	tr, engine, _ := newTestTrigger(t)

	for i := 0; i < 5; i++ {
		tr.ContentChanged()
		time.Sleep(testContent / 4)
	}

	c := waitCall(t, engine)
	assert.Equal(t, "album/1", c.identity)
	assert.False(t, c.force)

	time.Sleep(2 * testContent)
	assert.Equal(t, 1, engine.count())
}

func TestNavigationChanged_IndependentOfContent(t *testing.T) {
	tr, engine, _ := newTestTrigger(t)

	tr.ContentChanged()
	tr.NavigationChanged()

	waitCall(t, engine)
	waitCall(t, engine)
	assert.Equal(t, 2, engine.count())
}

func TestStart_RunsInitialPass(t *testing.T) {
	var results []reconcile.Result
	var mu sync.Mutex
	tr, engine, _ := newTestTrigger(t, WithResultHandler(func(r reconcile.Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))

	tr.Start()
	waitCall(t, engine)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRefresh(t *testing.T) {
	tr, engine, cache := newTestTrigger(t)
	ctx := context.Background()

	result := tr.Refresh(ctx, false)
	assert.Equal(t, reconcile.OutcomeCompleted, result.Outcome)
	assert.Equal(t, call{identity: "album/1", force: false}, waitCall(t, engine))
	assert.Equal(t, 0, cache.invalidated)

	tr.Refresh(ctx, true)
	assert.Equal(t, call{identity: "album/1", force: true}, waitCall(t, engine))
	assert.Equal(t, 1, cache.invalidated)
}

func TestInvalidate_DoesNotRunPass(t *testing.T) {
	tr, engine, cache := newTestTrigger(t)

	tr.Invalidate()

	assert.Equal(t, 1, cache.invalidated)
	assert.Equal(t, 0, engine.count())
}

func TestStop_CancelsPending(t *testing.T) {
	tr, engine, _ := newTestTrigger(t)

	tr.Start()
	tr.ContentChanged()
	tr.NavigationChanged()
	tr.Stop()

	time.Sleep(2 * testContent)
	require.Equal(t, 0, engine.count())
}

func TestNavigationChanged_RetriesOnceWhenBusy(t *testing.T) {
	tr, engine, _ := newTestTrigger(t)
	engine.busy = 1

	tr.NavigationChanged()

	waitCall(t, engine)
	waitCall(t, engine)
	time.Sleep(3 * testNavigation)
	assert.Equal(t, 2, engine.count(), "busy pass is retried once")
}

func TestContentChanged_RetriesOnlyOnce(t *testing.T) {
	tr, engine, _ := newTestTrigger(t)
	engine.busy = 5

	tr.ContentChanged()

	waitCall(t, engine)
	waitCall(t, engine)
	time.Sleep(3 * testContent)
	assert.Equal(t, 2, engine.count())
}

func TestResetView_ForgetsLastView(t *testing.T) {
	tr, engine, _ := newTestTrigger(t)

	tr.ResetView()

	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.Equal(t, 1, engine.resets)
	assert.Empty(t, engine.calls, "reset does not run a pass")
}
