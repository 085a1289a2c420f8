package store

import (
	"context"
	"testing"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	m := NewMemStore()
	c, err := m.Create(context.Background(), types.Curriculum{Title: "t"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated id")
	}
	if c.Status != types.StatusDraft {
		t.Fatalf("expected draft default, got %s", c.Status)
	}
	got, err := m.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "t" {
		t.Fatalf("round trip lost title: %+v", got)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	m := NewMemStore()
	if _, err := m.Get(context.Background(), "nope"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := m.Update(context.Background(), "nope", Patch{}); !IsNotFound(err) {
		t.Fatalf("expected not-found on update, got %v", err)
	}
	if err := m.Delete(context.Background(), "nope"); !IsNotFound(err) {
		t.Fatalf("expected not-found on delete, got %v", err)
	}
}

func TestUpdateAppliesOnlySetFields(t *testing.T) {
	m := NewMemStore()
	c, _ := m.Create(context.Background(), types.Curriculum{
		Status:      types.StatusOptionsSaved,
		CurrentStep: "options saved",
	})

	got, err := m.Update(context.Background(), c.ID, Patch{
		Status:          StatusPtr(types.StatusGenerating),
		ProgressPercent: IntPtr(10),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != types.StatusGenerating || got.ProgressPercent != 10 {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if got.CurrentStep != "options saved" {
		t.Fatalf("unset field was clobbered: %q", got.CurrentStep)
	}
	if !got.UpdatedAt.After(c.UpdatedAt) && !got.UpdatedAt.Equal(c.UpdatedAt) {
		t.Fatalf("updated_at went backwards: %v -> %v", c.UpdatedAt, got.UpdatedAt)
	}
}

func TestUpdateLastWriteWins(t *testing.T) {
	m := NewMemStore()
	c, _ := m.Create(context.Background(), types.Curriculum{})
	if _, err := m.Update(context.Background(), c.ID, Patch{CurrentStep: StringPtr("first")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := m.Update(context.Background(), c.ID, Patch{CurrentStep: StringPtr("second")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.CurrentStep != "second" {
		t.Fatalf("last write did not win: %q", got.CurrentStep)
	}
}
