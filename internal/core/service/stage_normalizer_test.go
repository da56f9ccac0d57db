package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/labdesk/identity/internal/core/domain"
)

func TestStageNormalizer_CanonicalOnly_NoLookup(t *testing.T) {
	repo := &stubStageRepo{}
	n := NewStageNormalizer(repo, zerolog.Nop())

	got := n.Normalize(context.Background(), []string{domain.StageFinition, domain.StageReception, domain.StageFinition})
	want := []string{domain.StageFinition, domain.StageReception}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if repo.calls != 0 {
		t.Fatalf("expected no stage lookup, got %d", repo.calls)
	}
}

func TestStageNormalizer_UnknownRowDropped(t *testing.T) {
	repo := &stubStageRepo{byID: map[string]domain.ProductionStage{}}
	n := NewStageNormalizer(repo, zerolog.Nop())

	got := n.Normalize(context.Background(), []string{domain.StageProduction, missingRow})
	if !reflect.DeepEqual(got, []string{domain.StageProduction}) {
		t.Fatalf("unexpected stages: %v", got)
	}
}

func TestStageNormalizer_NamesMatchedCaseInsensitively(t *testing.T) {
	repo := &stubStageRepo{byID: map[string]domain.ProductionStage{
		receptionRow: {ID: receptionRow, Name: "  RÉCEPTION "},
		unnamedRow:   {ID: unnamedRow, Name: "Modélisation"},
	}}
	n := NewStageNormalizer(repo, zerolog.Nop())

	got := n.Normalize(context.Background(), []string{receptionRow, unnamedRow, receptionRow})
	want := []string{domain.StageModelisation, domain.StageReception}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(repo.asked) != 2 {
		t.Fatalf("expected duplicate legacy ids to be fetched once, asked %v", repo.asked)
	}
}

func TestStageNormalizer_BlankEntriesSkipped(t *testing.T) {
	repo := &stubStageRepo{}
	n := NewStageNormalizer(repo, zerolog.Nop())

	got := n.Normalize(context.Background(), []string{"", "  "})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if repo.calls != 0 {
		t.Fatalf("expected no stage lookup, got %d", repo.calls)
	}
}

func TestStageNormalizer_NonUUIDReferencesLookedUp(t *testing.T) {
	repo := &stubStageRepo{byID: map[string]domain.ProductionStage{
		"legacy-7": {ID: "legacy-7", Name: "Finition"},
	}}
	n := NewStageNormalizer(repo, zerolog.Nop())

	got := n.Normalize(context.Background(), []string{"legacy-7", "Production", "stage_", "legacy-7"})
	if len(got) != 1 || got[0] != domain.StageFinition {
		t.Fatalf("expected [%s], got %v", domain.StageFinition, got)
	}
	if repo.calls != 1 || len(repo.asked) != 3 {
		t.Fatalf("expected one lookup of 3 distinct references, got %d calls asking %v", repo.calls, repo.asked)
	}
}
