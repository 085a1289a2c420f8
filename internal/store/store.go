// Package store defines the curriculum record store the generation
// pipeline persists into. The production deployment backs this onto a hosted
// record store; the in-memory implementation here carries the same
// last-write-wins contract and serves tests and local runs.
package store

import (
	"context"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

// Patch is a partial update. Nil fields are left untouched; set fields
// overwrite unconditionally (last write wins).
type Patch struct {
	Status          *types.CurriculumStatus
	ProgressPercent *int
	CurrentStep     *string
	GraphData       *types.GraphData
	NodeCount       *int
	EstimatedHours  *float64
}

// Store is the persistence surface the orchestrator depends on.
type Store interface {
	Create(ctx context.Context, c types.Curriculum) (types.Curriculum, error)
	Get(ctx context.Context, id string) (types.Curriculum, error)
	Update(ctx context.Context, id string, p Patch) (types.Curriculum, error)
	Delete(ctx context.Context, id string) error
}

// notFoundError signals a missing record for 404 mapping.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "curriculum not found: " + e.id }

// ErrNotFound constructs a not-found error for the given id.
func ErrNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// Helpers for building patches inline.

func StatusPtr(s types.CurriculumStatus) *types.CurriculumStatus { return &s }
func IntPtr(n int) *int                                          { return &n }
func StringPtr(s string) *string                                 { return &s }
func FloatPtr(f float64) *float64                                { return &f }
