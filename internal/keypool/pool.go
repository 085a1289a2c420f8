package keypool

import (
	"context"
	"sync"
	"time"
)

// CallKind categorizes the external operation a slot is used for.
// Cooldown durations are looked up per kind.
type CallKind string

const (
	CallCurriculumGeneration CallKind = "curriculum_generation"
	CallKeywordExtraction    CallKind = "keyword_extraction"
	CallDefault              CallKind = "default"
)

// SlotState is the lifecycle state of one slot.
type SlotState string

const (
	SlotIdle     SlotState = "idle"
	SlotBusy     SlotState = "busy"
	SlotCooldown SlotState = "cooldown"
)

// Config holds pool parameters. Zero values are replaced by defaults.
type Config struct {
	TotalSlots        int
	DefaultCooldown   time.Duration
	CooldownOverrides map[CallKind]time.Duration
	MaxBusy           time.Duration
	SweepInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.TotalSlots <= 0 {
		c.TotalSlots = 5
	}
	if c.DefaultCooldown <= 0 {
		c.DefaultCooldown = 30 * time.Second
	}
	if c.MaxBusy <= 0 {
		c.MaxBusy = 600 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 2 * time.Second
	}
	return c
}

// slot is one unit of external-call capacity. All fields are guarded by the
// pool mutex; exactly one of busySince/cooldownUntil is set at a time.
type slot struct {
	id            int
	state         SlotState
	busySince     time.Time
	cooldownUntil time.Time
	owner         string
	kind          CallKind
	handle        *Handle
}

// waiter is one queued acquire call. The pool hands a slot to the queue
// head by sending a handle on ready (buffered, never blocks).
type waiter struct {
	owner string
	kind  CallKind
	ready chan *Handle
}

// Handle is a borrowed reference to an acquired slot. It must be released
// exactly once; duplicate releases are no-ops.
type Handle struct {
	pool        *Pool
	slotID      int
	owner       string
	kind        CallKind
	invalidated chan struct{}
	released    bool // guarded by pool.mu
}

// SlotID returns the index of the held slot.
func (h *Handle) SlotID() int { return h.slotID }

// Owner returns the correlation id recorded at acquire time.
func (h *Handle) Owner() string { return h.owner }

// Invalidated is closed when the pool force-reclaims the slot from under
// the holder. The holder must stop treating the slot as its own.
func (h *Handle) Invalidated() <-chan struct{} { return h.invalidated }

// Invalid reports whether the handle has been force-reclaimed.
func (h *Handle) Invalid() bool {
	select {
	case <-h.invalidated:
		return true
	default:
		return false
	}
}

// Pool serializes access to the slot table and the FIFO waiting queue.
// No external call ever happens while the lock is held.
type Pool struct {
	mu      sync.Mutex
	cfg     Config
	slots   []*slot
	waiters []*waiter
	wake    *time.Timer
	now     func() time.Time
}

// New constructs a pool with cfg (defaults applied). The pool is ready for
// use immediately; call Run to start the background sweep.
func New(cfg Config) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{cfg: cfg, now: time.Now}
	p.slots = make([]*slot, cfg.TotalSlots)
	for i := range p.slots {
		p.slots[i] = &slot{id: i, state: SlotIdle}
	}
	p.updateGauges()
	return p
}

// TotalSlots reports the configured slot count.
func (p *Pool) TotalSlots() int { return p.cfg.TotalSlots }

// CooldownFor returns the cooldown applied after a call of the given kind.
func (p *Pool) CooldownFor(kind CallKind) time.Duration {
	if d, ok := p.cfg.CooldownOverrides[kind]; ok {
		return d
	}
	return p.cfg.DefaultCooldown
}

// refreshLocked reclassifies expired cooldowns as idle.
func (p *Pool) refreshLocked(now time.Time) {
	for _, s := range p.slots {
		if s.state == SlotCooldown && !s.cooldownUntil.After(now) {
			s.state = SlotIdle
			s.cooldownUntil = time.Time{}
		}
	}
}

// idleSlotLocked returns the lowest-indexed idle slot, or nil.
func (p *Pool) idleSlotLocked() *slot {
	for _, s := range p.slots {
		if s.state == SlotIdle {
			return s
		}
	}
	return nil
}

// grantLocked marks s busy for the given owner and returns the handle.
func (p *Pool) grantLocked(s *slot, owner string, kind CallKind, now time.Time) *Handle {
	h := &Handle{pool: p, slotID: s.id, owner: owner, kind: kind, invalidated: make(chan struct{})}
	s.state = SlotBusy
	s.busySince = now
	s.cooldownUntil = time.Time{}
	s.owner = owner
	s.kind = kind
	s.handle = h
	acquiredTotal.WithLabelValues(string(kind)).Inc()
	return h
}

// dispatchLocked hands idle slots to queued waiters in arrival order.
func (p *Pool) dispatchLocked(now time.Time) {
	for len(p.waiters) > 0 {
		s := p.idleSlotLocked()
		if s == nil {
			return
		}
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		w.ready <- p.grantLocked(s, w.owner, w.kind, now)
	}
}

// rearmWakeLocked schedules a self-kick at the nearest cooldown expiry so
// queued waiters are served even when no release arrives in the meantime.
func (p *Pool) rearmWakeLocked(now time.Time) {
	if len(p.waiters) == 0 {
		return
	}
	var nearest time.Time
	for _, s := range p.slots {
		if s.state != SlotCooldown {
			continue
		}
		if nearest.IsZero() || s.cooldownUntil.Before(nearest) {
			nearest = s.cooldownUntil
		}
	}
	if nearest.IsZero() {
		return
	}
	d := nearest.Sub(now)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	if p.wake != nil {
		p.wake.Stop()
	}
	p.wake = time.AfterFunc(d, p.kick)
}

// kick re-evaluates cooldowns and serves waiters. Safe to call anytime.
func (p *Pool) kick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.refreshLocked(now)
	p.dispatchLocked(now)
	p.rearmWakeLocked(now)
	p.updateGaugesLocked()
}

// removeWaiterLocked drops w from the queue. Returns false when w already
// left the queue, which means a handle was (or is being) delivered.
func (p *Pool) removeWaiterLocked(w *waiter) bool {
	for i, cand := range p.waiters {
		if cand == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// giveBackLocked returns an unused granted slot to idle. Used when a waiter
// timed out or was cancelled in the instant its grant was being delivered;
// the slot saw no external call, so no cooldown applies.
func (p *Pool) giveBackLocked(h *Handle, now time.Time) {
	s := p.slots[h.slotID]
	if s.handle != h || h.released {
		return
	}
	h.released = true
	s.state = SlotIdle
	s.busySince = time.Time{}
	s.owner = ""
	s.kind = ""
	s.handle = nil
	p.dispatchLocked(now)
}

// Acquire returns a handle to an idle slot, waiting up to wait in FIFO
// order when none is free. owner is an opaque correlation id recorded on
// the slot for observability. Returns a noSlotError (IsNoSlot) on timeout
// and ctx.Err on cancellation; neither consumes capacity.
func (p *Pool) Acquire(ctx context.Context, kind CallKind, owner string, wait time.Duration) (*Handle, error) {
	p.mu.Lock()
	now := p.now()
	p.refreshLocked(now)
	// Fast path: empty queue and a free slot.
	if len(p.waiters) == 0 {
		if s := p.idleSlotLocked(); s != nil {
			h := p.grantLocked(s, owner, kind, now)
			p.updateGaugesLocked()
			p.mu.Unlock()
			return h, nil
		}
	}
	if wait <= 0 {
		p.mu.Unlock()
		acquireTimeoutsTotal.WithLabelValues(string(kind)).Inc()
		return nil, noSlotError{kind: kind}
	}
	w := &waiter{owner: owner, kind: kind, ready: make(chan *Handle, 1)}
	p.waiters = append(p.waiters, w)
	p.rearmWakeLocked(now)
	p.updateGaugesLocked()
	p.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case h := <-w.ready:
		return h, nil
	case <-ctx.Done():
		p.abandon(w)
		return nil, ctx.Err()
	case <-timer.C:
		p.abandon(w)
		acquireTimeoutsTotal.WithLabelValues(string(kind)).Inc()
		return nil, noSlotError{kind: kind}
	}
}

// abandon removes w from the queue, undoing a concurrent grant if one
// raced with the timeout.
func (p *Pool) abandon(w *waiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.removeWaiterLocked(w) {
		p.updateGaugesLocked()
		return
	}
	// Grant already delivered: give the slot straight back.
	select {
	case h := <-w.ready:
		p.giveBackLocked(h, p.now())
	default:
	}
	p.updateGaugesLocked()
}

// Release transitions the held slot from busy to cooldown using the
// cooldown configured for kind. Idempotent: releasing a handle twice, or
// one the sweep already reclaimed, is a no-op.
func (p *Pool) Release(h *Handle, kind CallKind) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h.released {
		return
	}
	s := p.slots[h.slotID]
	if s.handle != h || s.state != SlotBusy {
		h.released = true
		return
	}
	now := p.now()
	h.released = true
	s.state = SlotCooldown
	s.cooldownUntil = now.Add(p.CooldownFor(kind))
	s.busySince = time.Time{}
	s.owner = ""
	s.kind = ""
	s.handle = nil
	releasesTotal.WithLabelValues(string(kind)).Inc()
	p.dispatchLocked(now)
	p.rearmWakeLocked(now)
	p.updateGaugesLocked()
}

// ReclaimExpired force-transitions every slot held busy longer than
// MaxBusy into cooldown (default cooldown, the holder's kind may be
// unknown by now) and signals the original handle as invalidated.
// Returns the number of reclaimed slots.
func (p *Pool) ReclaimExpired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	n := 0
	for _, s := range p.slots {
		if s.state != SlotBusy || now.Sub(s.busySince) <= p.cfg.MaxBusy {
			continue
		}
		h := s.handle
		h.released = true
		close(h.invalidated)
		s.state = SlotCooldown
		s.cooldownUntil = now.Add(p.cfg.DefaultCooldown)
		s.busySince = time.Time{}
		s.owner = ""
		s.kind = ""
		s.handle = nil
		n++
	}
	if n > 0 {
		reclaimsTotal.Add(float64(n))
		p.dispatchLocked(now)
		p.rearmWakeLocked(now)
		p.updateGaugesLocked()
	}
	return n
}

// Run sweeps for expired busy slots on a fixed interval until ctx is
// cancelled. The sweep shares the same lock as Acquire/Release and also
// serves waiters whose nearest cooldown expired between wake-ups.
func (p *Pool) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ReclaimExpired()
			p.kick()
		}
	}
}
