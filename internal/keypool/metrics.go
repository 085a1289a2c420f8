package keypool

import "github.com/prometheus/client_golang/prometheus"

var (
	slotStateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ptmt",
			Subsystem: "keypool",
			Name:      "slots",
			Help:      "Number of key slots per state",
		},
		[]string{"state"},
	)

	waitersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ptmt",
			Subsystem: "keypool",
			Name:      "waiters",
			Help:      "Number of callers queued for a slot",
		},
	)

	acquiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ptmt",
			Subsystem: "keypool",
			Name:      "acquired_total",
			Help:      "Total successful slot acquisitions",
		},
		[]string{"kind"},
	)

	releasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ptmt",
			Subsystem: "keypool",
			Name:      "releases_total",
			Help:      "Total slot releases into cooldown",
		},
		[]string{"kind"},
	)

	acquireTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ptmt",
			Subsystem: "keypool",
			Name:      "acquire_timeouts_total",
			Help:      "Total acquisitions that gave up waiting",
		},
		[]string{"kind"},
	)

	reclaimsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ptmt",
			Subsystem: "keypool",
			Name:      "reclaims_total",
			Help:      "Total busy slots force-reclaimed by the sweep",
		},
	)
)

func init() {
	prometheus.MustRegister(slotStateGauge, waitersGauge, acquiredTotal,
		releasesTotal, acquireTimeoutsTotal, reclaimsTotal)
}

func (p *Pool) updateGauges() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateGaugesLocked()
}

func (p *Pool) updateGaugesLocked() {
	var idle, busy, cooldown float64
	for _, s := range p.slots {
		switch s.state {
		case SlotIdle:
			idle++
		case SlotBusy:
			busy++
		case SlotCooldown:
			cooldown++
		}
	}
	slotStateGauge.WithLabelValues(string(SlotIdle)).Set(idle)
	slotStateGauge.WithLabelValues(string(SlotBusy)).Set(busy)
	slotStateGauge.WithLabelValues(string(SlotCooldown)).Set(cooldown)
	waitersGauge.Set(float64(len(p.waiters)))
}
