package generation

import (
	"math"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

// normalizeGraph fills the derived aggregates of a raw graph result:
// node count and total study time in hours (sum of resource
// study_load_minutes / 60, rounded to one decimal). The meta block is
// rewritten so cached aggregates and graph contents cannot disagree.
func normalizeGraph(g types.GraphData) (types.GraphData, int, float64) {
	nodeCount := len(g.Nodes)
	minutes := 0
	for _, n := range g.Nodes {
		for _, r := range n.Resources {
			minutes += r.StudyLoadMinutes
		}
	}
	hours := math.Round(float64(minutes)/60*10) / 10
	g.Meta.TotalNodes = nodeCount
	g.Meta.TotalStudyTimeHours = hours
	return g, nodeCount, hours
}
