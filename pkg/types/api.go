package types

// GenerationStartResponse is returned by POST /curriculums/{id}/generate.
type GenerationStartResponse struct {
	// example: 7c9e6679-7425-40de-944b-e07fc1f90ae7
	CurriculumID string `json:"curriculum_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	// example: generating
	Status string `json:"status" example:"generating"`
}

// GenerationStatusResponse is the polling payload for GET /curriculums/{id}/status.
type GenerationStatusResponse struct {
	// example: 7c9e6679-7425-40de-944b-e07fc1f90ae7
	CurriculumID string `json:"curriculum_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	// example: generating
	Status CurriculumStatus `json:"status" example:"generating"`
	// example: 90
	ProgressPercent int `json:"progress_percent" example:"90"`
	// example: parsing result
	CurrentStep string `json:"current_step" example:"parsing result"`
}

// GraphResponse wraps the generated graph for GET /curriculums/{id}/graph.
type GraphResponse struct {
	// example: 7c9e6679-7425-40de-944b-e07fc1f90ae7
	CurriculumID string    `json:"curriculum_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Graph        GraphData `json:"graph"`
}

// SlotStatus describes one key slot for GET /queue-status.
type SlotStatus struct {
	// Slot index, 0-based.
	// example: 0
	SlotID int `json:"slot_id" example:"0"`
	// One of idle, busy, cooldown.
	// example: cooldown
	State string `json:"state" example:"cooldown"`
	// Seconds until the cooldown ends; 0 unless state is cooldown.
	// example: 12
	CooldownRemainingSeconds int `json:"cooldown_remaining_seconds" example:"12"`
	// Call kind currently using the slot, empty unless busy.
	// example: curriculum_generation
	CurrentTaskType string `json:"current_task_type,omitempty" example:"curriculum_generation"`
	// Correlation id of the current holder, empty unless busy.
	CurrentTaskID string `json:"current_task_id,omitempty"`
}

// QueueStatusResponse is the pool snapshot for GET /queue-status.
type QueueStatusResponse struct {
	// example: 5
	TotalSlots int `json:"total_slots" example:"5"`
	// example: 2
	IdleCount int `json:"idle_count" example:"2"`
	// example: 2
	BusyCount int `json:"busy_count" example:"2"`
	// example: 1
	CooldownCount int `json:"cooldown_count" example:"1"`
	// example: 3
	WaitingCount int `json:"waiting_count" example:"3"`
	// Seconds until the next slot is expected to free up.
	// example: 12
	NextAvailableInSeconds int `json:"next_available_in_seconds" example:"12"`
	// Rough wait estimate for a newly arriving caller.
	// example: 42
	EstimatedWaitSeconds int `json:"estimated_wait_seconds" example:"42"`
	// 1-based queue position of the task named in the query, if waiting.
	MyPosition int `json:"my_position,omitempty"`
	// waiting, processing, or unknown for the task named in the query.
	// example: waiting
	MyStatus string `json:"my_status,omitempty" example:"waiting"`
	Slots    []SlotStatus `json:"slots"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: curriculum is not in options_saved state
	Error string `json:"error" example:"curriculum is not in options_saved state"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
}
