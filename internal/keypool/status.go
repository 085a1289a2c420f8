package keypool

import (
	"math"
	"time"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

// Status builds a point-in-time snapshot of the pool for polling clients.
// taskID/taskType optionally identify the caller's own job so the snapshot
// can report its queue position. Status never mutates pool state; slots
// whose cooldown already expired are counted as idle.
func (p *Pool) Status(taskID, taskType string) types.QueueStatusResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()

	resp := types.QueueStatusResponse{
		TotalSlots: p.cfg.TotalSlots,
		Slots:      make([]types.SlotStatus, 0, len(p.slots)),
	}
	nearestCooldown := -1
	for _, s := range p.slots {
		state := s.state
		remaining := 0
		if state == SlotCooldown {
			if !s.cooldownUntil.After(now) {
				state = SlotIdle
			} else {
				remaining = int(math.Ceil(s.cooldownUntil.Sub(now).Seconds()))
				if nearestCooldown < 0 || remaining < nearestCooldown {
					nearestCooldown = remaining
				}
			}
		}
		switch state {
		case SlotIdle:
			resp.IdleCount++
		case SlotBusy:
			resp.BusyCount++
		case SlotCooldown:
			resp.CooldownCount++
		}
		resp.Slots = append(resp.Slots, types.SlotStatus{
			SlotID:                   s.id,
			State:                    string(state),
			CooldownRemainingSeconds: remaining,
			CurrentTaskType:          string(s.kind),
			CurrentTaskID:            s.owner,
		})
	}
	resp.WaitingCount = len(p.waiters)

	switch {
	case resp.IdleCount > 0:
		resp.NextAvailableInSeconds = 0
	case nearestCooldown >= 0:
		resp.NextAvailableInSeconds = nearestCooldown
	default:
		// Every slot is busy with unknown completion times.
		resp.NextAvailableInSeconds = int(p.cfg.DefaultCooldown / time.Second)
	}

	if resp.WaitingCount > 0 && resp.IdleCount == 0 {
		waves := (resp.WaitingCount + p.cfg.TotalSlots - 1) / p.cfg.TotalSlots
		resp.EstimatedWaitSeconds = resp.NextAvailableInSeconds +
			(waves-1)*int(p.cfg.DefaultCooldown/time.Second)
	}

	if taskID != "" {
		resp.MyStatus = "unknown"
		for i, w := range p.waiters {
			if w.owner == taskID && (taskType == "" || string(w.kind) == taskType) {
				resp.MyPosition = i + 1
				resp.MyStatus = "waiting"
				break
			}
		}
		if resp.MyPosition == 0 {
			for _, s := range p.slots {
				if s.state != SlotBusy {
					continue
				}
				if s.owner == taskID && (taskType == "" || string(s.kind) == taskType) {
					resp.MyStatus = "processing"
					break
				}
			}
		}
	}
	return resp
}
