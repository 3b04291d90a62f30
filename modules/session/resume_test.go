package session

import (
	"testing"

	"product-fairy-server/modules/catalog"
	"product-fairy-server/modules/common/model"
)

func resumeRun() *model.GenerationRun {
	return &model.GenerationRun{
		RunID:         "run-1",
		LedgerVersion: model.LedgerVersion,
		Status:        model.RunStatusActive,
		TotalCount:    3,
		Variants: []catalog.Variant{
			{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV", Prompt: "p1"},
			{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "BLK", Prompt: "p2"},
			{ProductNumber: "CNC-P2000", GenderCode: "W", ColorCode: "RED", Prompt: "p3"},
		},
		Completed: []string{"CNCP1000MNAV.jpg"},
	}
}

func TestComputeResume(t *testing.T) {
	plan := ComputeResume(resumeRun())
	if plan == nil {
		t.Fatal("expected a resume plan")
	}

	if len(plan.Remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(plan.Remaining))
	}
	// 원래 순서 유지
	if plan.Remaining[0].ColorCode != "BLK" || plan.Remaining[1].ColorCode != "RED" {
		t.Errorf("remaining order wrong: %v", plan.Remaining)
	}
	if plan.Completed != 1 || plan.Total != 3 {
		t.Errorf("plan counters = %d/%d", plan.Completed, plan.Total)
	}
}

func TestComputeResumeNothingCompleted(t *testing.T) {
	run := resumeRun()
	run.Completed = nil

	plan := ComputeResume(run)
	if plan == nil {
		t.Fatal("expected a resume plan")
	}
	if len(plan.Remaining) != 3 {
		t.Errorf("remaining = %d, want full list", len(plan.Remaining))
	}
}

func TestComputeResumeAllCompleted(t *testing.T) {
	run := resumeRun()
	run.Completed = []string{"CNCP1000MNAV.jpg", "CNCP1000MBLK.jpg", "CNCP2000WRED.jpg"}

	plan := ComputeResume(run)
	if plan == nil {
		t.Fatal("expected a resume plan")
	}
	if len(plan.Remaining) != 0 {
		t.Errorf("remaining = %v, want empty", plan.Remaining)
	}
}

func TestComputeResumeVersionMismatch(t *testing.T) {
	run := resumeRun()
	run.LedgerVersion = model.LedgerVersion + 1

	if plan := ComputeResume(run); plan != nil {
		t.Error("version mismatch should not be resumable")
	}
}

func TestComputeResumeCountOnly(t *testing.T) {
	run := resumeRun()
	run.Variants = nil

	if plan := ComputeResume(run); plan != nil {
		t.Error("count-only record should not be resumable")
	}
}

func TestComputeResumeNilRecord(t *testing.T) {
	if plan := ComputeResume(nil); plan != nil {
		t.Error("nil record should not be resumable")
	}
}

func TestFindResumable(t *testing.T) {
	store := newFakeStore()

	plan, err := FindResumable(store)
	if err != nil || plan != nil {
		t.Fatalf("empty store: plan=%v err=%v", plan, err)
	}

	store.InsertRun(resumeRun())
	plan, err = FindResumable(store)
	if err != nil {
		t.Fatalf("FindResumable() error: %v", err)
	}
	if plan == nil || plan.RunID != "run-1" {
		t.Errorf("plan = %v", plan)
	}
}
