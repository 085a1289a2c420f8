package generation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/keypool"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/store"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

type fakeClient struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, req Request) (*Result, error)
}

func (f *fakeClient) Call(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, req)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func smallGraph() types.GraphData {
	return types.GraphData{
		Nodes: []types.GraphNode{
			{KeywordID: "n1", Keyword: "attention", Resources: []types.Resource{
				{ResourceID: "r1", Name: "paper", StudyLoadMinutes: 90},
			}},
			{KeywordID: "n2", Keyword: "transformer", Resources: []types.Resource{
				{ResourceID: "r2", Name: "article", StudyLoadMinutes: 60},
			}},
		},
		Edges: []types.GraphEdge{{FromKeywordID: "n1", ToKeywordID: "n2"}},
	}
}

func seed(t *testing.T, st *store.MemStore, status types.CurriculumStatus) types.Curriculum {
	t.Helper()
	c, err := st.Create(context.Background(), types.Curriculum{
		Title:    "test curriculum",
		Status:   status,
		Keywords: []string{"attention"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return c
}

func waitStatus(t *testing.T, st *store.MemStore, id string, want types.CurriculumStatus) types.Curriculum {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		cur, err := st.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if cur.Status == want {
			return cur
		}
		time.Sleep(10 * time.Millisecond)
	}
	cur, _ := st.Get(context.Background(), id)
	t.Fatalf("curriculum %s never reached %s (stuck at %s, step %q)", id, want, cur.Status, cur.CurrentStep)
	return types.Curriculum{}
}

func newTestOrchestrator(t *testing.T, poolCfg keypool.Config, cl Client, opts Options) (*Orchestrator, *store.MemStore, *keypool.Pool) {
	t.Helper()
	pool := keypool.New(poolCfg)
	st := store.NewMemStore()
	o := New(pool, st, cl, zerolog.Nop(), opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	o.Start(ctx)
	return o, st, pool
}

func TestGenerateRejectsWrongState(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) {
		return &Result{Success: true, Graph: smallGraph()}, nil
	}}
	o, st, _ := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond}, cl, Options{})

	for _, status := range []types.CurriculumStatus{types.StatusDraft, types.StatusGenerating, types.StatusReady, types.StatusFailed} {
		c := seed(t, st, status)
		err := o.Generate(context.Background(), c.ID)
		if !IsInvalidState(err) {
			t.Fatalf("status %s: expected invalid-state, got %v", status, err)
		}
		got, _ := st.Get(context.Background(), c.ID)
		if got.Status != status {
			t.Fatalf("rejection must be side-effect free: %s -> %s", status, got.Status)
		}
	}
	if cl.callCount() != 0 {
		t.Fatalf("rejected generate still reached the external service (%d calls)", cl.callCount())
	}
}

func TestGenerateUnknownCurriculum(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) { return nil, nil }}
	o, _, _ := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond}, cl, Options{})
	if err := o.Generate(context.Background(), "missing"); !store.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestGenerateSuccess(t *testing.T) {
	cl := &fakeClient{fn: func(_ context.Context, req Request) (*Result, error) {
		if req.CurriculumID == "" || len(req.Keywords) == 0 {
			t.Errorf("request missing fields: %+v", req)
		}
		return &Result{Success: true, Graph: smallGraph()}, nil
	}}
	o, st, pool := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond}, cl, Options{})

	c := seed(t, st, types.StatusOptionsSaved)
	if err := o.Generate(context.Background(), c.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := waitStatus(t, st, c.ID, types.StatusReady)
	if got.ProgressPercent != 100 || got.CurrentStep != "done" {
		t.Fatalf("terminal record wrong: %+v", got)
	}
	if got.NodeCount != 2 {
		t.Fatalf("node count: %d", got.NodeCount)
	}
	if got.EstimatedHours != 2.5 {
		t.Fatalf("estimated hours: %v", got.EstimatedHours)
	}
	if got.GraphData == nil || got.GraphData.Meta.TotalNodes != 2 {
		t.Fatalf("graph meta not normalized: %+v", got.GraphData)
	}
	if qs := pool.Status("", ""); qs.BusyCount != 0 {
		t.Fatalf("slot leaked after success: %+v", qs)
	}
}

func TestUpstreamErrorMarksFailedAndCoolsSlot(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) {
		return nil, ErrUpstream("boom")
	}}
	o, st, pool := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Minute}, cl, Options{})

	c := seed(t, st, types.StatusOptionsSaved)
	if err := o.Generate(context.Background(), c.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := waitStatus(t, st, c.ID, types.StatusFailed)
	if got.CurrentStep != "generation service error" {
		t.Fatalf("failure class missing: %q", got.CurrentStep)
	}
	qs := pool.Status("", "")
	if qs.BusyCount != 0 || qs.CooldownCount != 1 {
		t.Fatalf("slot not cooled down after failure: %+v", qs)
	}
}

func TestUpstreamTimeoutMarksFailed(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) {
		return nil, upstreamTimeoutError{}
	}}
	o, st, _ := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond}, cl, Options{})

	c := seed(t, st, types.StatusOptionsSaved)
	if err := o.Generate(context.Background(), c.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := waitStatus(t, st, c.ID, types.StatusFailed)
	if got.CurrentStep != "generation timed out" {
		t.Fatalf("failure class missing: %q", got.CurrentStep)
	}
}

func TestConcurrentGenerateOnlyOneWins(t *testing.T) {
	release := make(chan struct{})
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) {
		<-release
		return &Result{Success: true, Graph: smallGraph()}, nil
	}}
	o, st, _ := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond}, cl, Options{})

	c := seed(t, st, types.StatusOptionsSaved)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = o.Generate(context.Background(), c.ID)
		}(i)
	}
	wg.Wait()

	ok, invalid := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case IsInvalidState(err):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || invalid != 1 {
		t.Fatalf("expected exactly one winner, got ok=%d invalid=%d", ok, invalid)
	}
	close(release)
	waitStatus(t, st, c.ID, types.StatusReady)
	if cl.callCount() != 1 {
		t.Fatalf("second generate started an external call: %d", cl.callCount())
	}
}

func TestNoSlotRevertsToOptionsSaved(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) {
		return &Result{Success: true, Graph: smallGraph()}, nil
	}}
	pool := keypool.New(keypool.Config{TotalSlots: 1, DefaultCooldown: time.Minute})
	st := store.NewMemStore()
	o := New(pool, st, cl, zerolog.Nop(), Options{WaitTimeout: 30 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	// Occupy the only slot so admission fails.
	h, err := pool.Acquire(ctx, keypool.CallKeywordExtraction, "other", 0)
	if err != nil {
		t.Fatalf("occupy slot: %v", err)
	}
	defer pool.Release(h, keypool.CallKeywordExtraction)

	c := seed(t, st, types.StatusOptionsSaved)
	if err := o.Generate(ctx, c.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := waitStatus(t, st, c.ID, types.StatusOptionsSaved)
	if got.CurrentStep != "all generation keys busy; retry shortly" {
		t.Fatalf("missing retry hint: %q", got.CurrentStep)
	}
	if cl.callCount() != 0 {
		t.Fatalf("external call made without a slot: %d", cl.callCount())
	}
}

func TestQueueFullRejectsAndRollsBack(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) {
		return &Result{Success: true, Graph: smallGraph()}, nil
	}}
	pool := keypool.New(keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond})
	st := store.NewMemStore()
	// No Start: nothing drains the job buffer.
	o := New(pool, st, cl, zerolog.Nop(), Options{QueueDepth: 1})

	first := seed(t, st, types.StatusOptionsSaved)
	second := seed(t, st, types.StatusOptionsSaved)
	if err := o.Generate(context.Background(), first.ID); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	err := o.Generate(context.Background(), second.ID)
	if !IsQueueFull(err) {
		t.Fatalf("expected queue-full, got %v", err)
	}
	got, _ := st.Get(context.Background(), second.ID)
	if got.Status != types.StatusOptionsSaved {
		t.Fatalf("queue-full must roll back to options_saved, got %s", got.Status)
	}
}

func TestSlotReclaimedMidCallFailsCurriculum(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) {
		<-hang // simulated unresponsive service
		return nil, ErrUpstream("late")
	}}
	o, st, pool := newTestOrchestrator(t, keypool.Config{
		TotalSlots:      1,
		DefaultCooldown: time.Millisecond,
		MaxBusy:         100 * time.Millisecond,
		SweepInterval:   20 * time.Millisecond,
	}, cl, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	c := seed(t, st, types.StatusOptionsSaved)
	if err := o.Generate(ctx, c.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := waitStatus(t, st, c.ID, types.StatusFailed)
	if got.CurrentStep != "generation timed out" {
		t.Fatalf("expected timeout failure class, got %q", got.CurrentStep)
	}

	// Capacity is recovered: a new caller can acquire the slot.
	h, err := pool.Acquire(ctx, keypool.CallCurriculumGeneration, "next", 2*time.Second)
	if err != nil {
		t.Fatalf("slot not recoverable after reclaim: %v", err)
	}
	pool.Release(h, keypool.CallCurriculumGeneration)
}

func TestStatusFallbackSteps(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) { return nil, nil }}
	o, st, _ := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond}, cl, Options{})

	c := seed(t, st, types.StatusDraft)
	got, err := o.Status(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.CurrentStep != "paper uploaded" {
		t.Fatalf("fallback step wrong: %q", got.CurrentStep)
	}
	if _, err := o.Status(context.Background(), "missing"); !store.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestGraphNotReady(t *testing.T) {
	cl := &fakeClient{fn: func(context.Context, Request) (*Result, error) { return nil, nil }}
	o, st, _ := newTestOrchestrator(t, keypool.Config{TotalSlots: 1, DefaultCooldown: time.Millisecond}, cl, Options{})

	c := seed(t, st, types.StatusOptionsSaved)
	if _, err := o.Graph(context.Background(), c.ID); !IsNotReady(err) {
		t.Fatalf("expected not-ready, got %v", err)
	}
}
