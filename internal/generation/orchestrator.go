package generation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/keypool"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/store"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

// Options tunes the orchestrator. Zero values get defaults.
type Options struct {
	// WaitTimeout bounds how long a generation job waits for a key slot.
	WaitTimeout time.Duration
	// Workers is the number of background generation workers.
	Workers int
	// QueueDepth is the job buffer; a full buffer rejects with queue-full.
	QueueDepth int
}

func (o Options) withDefaults() Options {
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 15 * time.Second
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.QueueDepth <= 0 {
		o.QueueDepth = 16
	}
	return o
}

// Orchestrator drives curricula through generating -> ready/failed. It is
// the sole writer of that sub-lifecycle; slot admission goes through the
// injected pool and every acquired slot is released on every exit path.
type Orchestrator struct {
	pool   *keypool.Pool
	store  store.Store
	client Client
	opts   Options
	log    zerolog.Logger

	jobs  chan string
	locks keyedMutex

	mu      sync.Mutex
	started bool
}

// New wires an orchestrator. Call Start before submitting work.
func New(pool *keypool.Pool, st store.Store, client Client, log zerolog.Logger, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		pool:   pool,
		store:  st,
		client: client,
		opts:   opts,
		log:    log,
		jobs:   make(chan string, opts.QueueDepth),
	}
}

// Start launches the worker pool. Workers drain queued jobs until ctx is
// cancelled; jobs already running finish their cleanup regardless.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()
	for i := 0; i < o.opts.Workers; i++ {
		go o.worker(ctx)
	}
}

// Ready reports whether the worker pool is accepting jobs.
func (o *Orchestrator) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

func (o *Orchestrator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-o.jobs:
			o.run(id)
		}
	}
}

// Generate validates the curriculum state, flips it to generating and
// enqueues the background job. The state check and transition hold a
// per-curriculum lock so two racing generate calls cannot both pass; the
// lock is not held across any external call.
func (o *Orchestrator) Generate(ctx context.Context, id string) error {
	unlock := o.locks.lock(id)
	defer unlock()

	cur, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status != types.StatusOptionsSaved {
		generationsTotal.WithLabelValues("rejected").Inc()
		return invalidStateError{id: id, status: cur.Status}
	}
	if _, err := o.store.Update(ctx, id, store.Patch{
		Status:          store.StatusPtr(types.StatusGenerating),
		ProgressPercent: store.IntPtr(0),
		CurrentStep:     store.StringPtr("dispatching"),
	}); err != nil {
		return err
	}

	select {
	case o.jobs <- id:
		return nil
	default:
		// No worker capacity: roll the record back so no partial
		// generating state persists.
		o.revert(id, "generation queue full; retry shortly")
		generationsTotal.WithLabelValues("queue_full").Inc()
		return queueFullError{id: id}
	}
}

// run executes one generation job. It uses a detached context: once a
// curriculum is generating, a disconnecting client must not leak the slot
// or strand the record.
func (o *Orchestrator) run(id string) {
	ctx := context.Background()

	h, err := o.pool.Acquire(ctx, keypool.CallCurriculumGeneration, id, o.opts.WaitTimeout)
	if err != nil {
		// Admission failure is recoverable, not a curriculum failure.
		o.revert(id, "all generation keys busy; retry shortly")
		generationsTotal.WithLabelValues("queue_full").Inc()
		o.log.Info().Str("curriculum_id", id).Msg("generation deferred: no key slot")
		return
	}
	defer o.pool.Release(h, keypool.CallCurriculumGeneration)

	cur, err := o.store.Get(ctx, id)
	if err != nil {
		o.log.Error().Err(err).Str("curriculum_id", id).Msg("generation aborted: record vanished")
		return
	}

	o.patch(id, 10, "dispatched")

	type outcome struct {
		res *Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := o.client.Call(ctx, Request{
			CurriculumID: cur.ID,
			Title:        cur.Title,
			PaperTitle:   cur.PaperTitle,
			Keywords:     cur.Keywords,
		})
		ch <- outcome{res: res, err: err}
	}()

	select {
	case <-h.Invalidated():
		// The pool force-reclaimed the slot; from here the call result is
		// worthless. Same terminal state as an upstream timeout.
		o.fail(id, "generation timed out")
		o.log.Warn().Str("curriculum_id", id).Msg("slot reclaimed mid-generation")
		return
	case out := <-ch:
		if out.err != nil {
			if IsUpstreamTimeout(out.err) {
				o.fail(id, "generation timed out")
			} else {
				o.fail(id, "generation service error")
			}
			o.log.Error().Err(out.err).Str("curriculum_id", id).Msg("generation failed")
			return
		}
		o.patch(id, 90, "parsing result")
		graph, nodes, hours := normalizeGraph(out.res.Graph)
		if _, err := o.store.Update(ctx, id, store.Patch{
			Status:          store.StatusPtr(types.StatusReady),
			ProgressPercent: store.IntPtr(100),
			CurrentStep:     store.StringPtr("done"),
			GraphData:       &graph,
			NodeCount:       store.IntPtr(nodes),
			EstimatedHours:  store.FloatPtr(hours),
		}); err != nil {
			o.log.Error().Err(err).Str("curriculum_id", id).Msg("persisting graph failed")
			return
		}
		generationsTotal.WithLabelValues("ready").Inc()
		o.log.Info().Str("curriculum_id", id).Int("nodes", nodes).Msg("generation done")
	}
}

// revert returns a curriculum from generating to options_saved.
func (o *Orchestrator) revert(id, step string) {
	_, _ = o.store.Update(context.Background(), id, store.Patch{
		Status:          store.StatusPtr(types.StatusOptionsSaved),
		ProgressPercent: store.IntPtr(0),
		CurrentStep:     store.StringPtr(step),
	})
}

// fail marks a curriculum failed. Safe to call when it already is.
func (o *Orchestrator) fail(id, step string) {
	_, _ = o.store.Update(context.Background(), id, store.Patch{
		Status:      store.StatusPtr(types.StatusFailed),
		CurrentStep: store.StringPtr(step),
	})
	generationsTotal.WithLabelValues("failed").Inc()
}

func (o *Orchestrator) patch(id string, progress int, step string) {
	_, _ = o.store.Update(context.Background(), id, store.Patch{
		ProgressPercent: store.IntPtr(progress),
		CurrentStep:     store.StringPtr(step),
	})
}

// Status is the polling read side for GET /curriculums/{id}/status.
func (o *Orchestrator) Status(ctx context.Context, id string) (types.GenerationStatusResponse, error) {
	cur, err := o.store.Get(ctx, id)
	if err != nil {
		return types.GenerationStatusResponse{}, err
	}
	step := cur.CurrentStep
	if step == "" {
		switch cur.Status {
		case types.StatusDraft:
			step = "paper uploaded"
		case types.StatusOptionsSaved:
			step = "options saved"
		case types.StatusGenerating:
			step = "generating curriculum"
		case types.StatusReady:
			step = "done"
		case types.StatusFailed:
			step = "generation failed"
		}
	}
	return types.GenerationStatusResponse{
		CurriculumID:    cur.ID,
		Status:          cur.Status,
		ProgressPercent: cur.ProgressPercent,
		CurrentStep:     step,
	}, nil
}

// Graph returns the generated graph, or a not-ready error before then.
func (o *Orchestrator) Graph(ctx context.Context, id string) (types.GraphResponse, error) {
	cur, err := o.store.Get(ctx, id)
	if err != nil {
		return types.GraphResponse{}, err
	}
	if cur.GraphData == nil {
		return types.GraphResponse{}, notReadyError{id: id}
	}
	return types.GraphResponse{CurriculumID: cur.ID, Graph: *cur.GraphData}, nil
}

// Create stores a new curriculum record. Paper ingestion and option
// saving live in other services; this entry point stands in for them so
// the pipeline can be driven end to end.
func (o *Orchestrator) Create(ctx context.Context, c types.Curriculum) (types.Curriculum, error) {
	return o.store.Create(ctx, c)
}

// QueueStatus exposes the pool snapshot for the dashboard endpoint.
func (o *Orchestrator) QueueStatus(taskID, taskType string) types.QueueStatusResponse {
	return o.pool.Status(taskID, taskType)
}

// keyedMutex serializes operations per curriculum id. Entries are
// refcounted so the map does not grow with dead ids.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	refs int
	mu   sync.Mutex
}

func (k *keyedMutex) lock(id string) (unlock func()) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*keyedEntry)
	}
	e, ok := k.entries[id]
	if !ok {
		e = &keyedEntry{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, id)
		}
		k.mu.Unlock()
	}
}
