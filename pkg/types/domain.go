package types

import "time"

// CurriculumStatus is the lifecycle state of a curriculum record.
type CurriculumStatus string

const (
	StatusDraft        CurriculumStatus = "draft"
	StatusOptionsSaved CurriculumStatus = "options_saved"
	StatusGenerating   CurriculumStatus = "generating"
	StatusReady        CurriculumStatus = "ready"
	StatusFailed       CurriculumStatus = "failed"
)

// Curriculum is the record the generation pipeline reads and writes.
// Options and paper linkage are owned by other services; this core only
// touches the generating/ready/failed sub-lifecycle and the result fields.
type Curriculum struct {
	// Stable identifier.
	// example: 7c9e6679-7425-40de-944b-e07fc1f90ae7
	ID string `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	// Human-friendly title.
	// example: Intro to Transformers
	Title string `json:"title,omitempty" example:"Intro to Transformers"`
	// Title of the source paper.
	// example: Attention Is All You Need
	PaperTitle string `json:"paper_title,omitempty" example:"Attention Is All You Need"`
	// Lifecycle status.
	// example: options_saved
	Status CurriculumStatus `json:"status" example:"options_saved"`
	// Generation progress, 0-100.
	// example: 90
	ProgressPercent int `json:"progress_percent" example:"90"`
	// Free-text description of the current generation step.
	// example: parsing result
	CurrentStep string `json:"current_step,omitempty" example:"parsing result"`
	// Keywords extracted from the paper, sent to the generation service.
	Keywords []string `json:"keywords,omitempty"`
	// Generated concept graph; nil until status is ready.
	GraphData *GraphData `json:"graph_data,omitempty"`
	// Cached number of graph nodes for list views.
	// example: 16
	NodeCount int `json:"node_count" example:"16"`
	// Cached total study time in hours for list views.
	// example: 24.5
	EstimatedHours float64 `json:"estimated_hours" example:"24.5"`
	// Last modification time.
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphData is the generated learning curriculum: concept nodes with
// prerequisite edges and study resources attached to each node.
type GraphData struct {
	Meta  GraphMeta   `json:"meta"`
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphMeta summarizes the graph for list and header views.
type GraphMeta struct {
	// example: Attention Is All You Need
	PaperTitle string `json:"paper_title,omitempty" example:"Attention Is All You Need"`
	// example: ["Ashish Vaswani"]
	PaperAuthors []string `json:"paper_authors,omitempty"`
	// example: 24.5
	TotalStudyTimeHours float64 `json:"total_study_time_hours" example:"24.5"`
	// example: 16
	TotalNodes int `json:"total_nodes" example:"16"`
}

// GraphNode is one concept in the curriculum graph.
type GraphNode struct {
	// example: node-attention
	KeywordID string `json:"keyword_id" example:"node-attention"`
	// example: Attention Mechanism
	Keyword string `json:"keyword" example:"Attention Mechanism"`
	// example: Attention in sequence modeling
	Description string `json:"description,omitempty" example:"Attention in sequence modeling"`
	// Importance score 1-10.
	// example: 10
	Importance int        `json:"importance" example:"10"`
	Resources  []Resource `json:"resources,omitempty"`
}

// GraphEdge is a prerequisite relation between two nodes.
type GraphEdge struct {
	// example: node-neural-network
	FromKeywordID string `json:"from_keyword_id" example:"node-neural-network"`
	// example: node-attention
	ToKeywordID string `json:"to_keyword_id" example:"node-attention"`
	// example: prerequisite
	Relationship string `json:"relationship,omitempty" example:"prerequisite"`
}

// Resource is one study material attached to a graph node.
type Resource struct {
	// example: res-3
	ResourceID string `json:"resource_id" example:"res-3"`
	// example: Attention Is All You Need
	Name string `json:"name" example:"Attention Is All You Need"`
	// example: https://arxiv.org/abs/1706.03762
	URL string `json:"url" example:"https://arxiv.org/abs/1706.03762"`
	// One of paper, article, video, code.
	// example: paper
	Type string `json:"type" example:"paper"`
	// example: Original Transformer paper
	Description string `json:"description,omitempty" example:"Original Transformer paper"`
	// Difficulty score 1-10.
	// example: 8
	Difficulty int `json:"difficulty" example:"8"`
	// Importance score 1-10.
	// example: 10
	Importance int `json:"importance" example:"10"`
	// Estimated study time in minutes.
	// example: 180
	StudyLoadMinutes int `json:"study_load_minutes" example:"180"`
	// Whether the resource is essential for the node.
	// example: true
	IsCore bool `json:"is_core" example:"true"`
}
