package session

import (
	"log"

	"product-fairy-server/modules/catalog"
	"product-fairy-server/modules/common/model"
)

// ResumePlan - 중단된 run을 이어서 처리하기 위한 계산 결과
type ResumePlan struct {
	RunID      string
	PhotoStyle string
	Remaining  []catalog.Variant
	Completed  int
	Total      int
}

// ComputeResume - run 레코드에서 남은 variant 목록 계산 (순수 함수)
// 완료 set에 파일명이 없는 variant만, 원래 순서 그대로 남긴다.
// resume 불가능한 레코드(버전 불일치, variant 스냅샷 없음)는 nil을 반환한다.
func ComputeResume(run *model.GenerationRun) *ResumePlan {
	if run == nil {
		return nil
	}

	if run.LedgerVersion != model.LedgerVersion {
		log.Printf("⚠️  Run %s has ledger version %d (want %d), not resumable",
			run.RunID, run.LedgerVersion, model.LedgerVersion)
		return nil
	}

	// count-only 모드는 variant 스냅샷이 없어서 resume 불가
	if len(run.Variants) == 0 {
		log.Printf("⚠️  Run %s has no variant snapshot, not resumable", run.RunID)
		return nil
	}

	completed := make(map[string]bool, len(run.Completed))
	for _, f := range run.Completed {
		completed[f] = true
	}

	var remaining []catalog.Variant
	for _, v := range run.Variants {
		if !completed[catalog.DeriveFilename(v)] {
			remaining = append(remaining, v)
		}
	}

	return &ResumePlan{
		RunID:      run.RunID,
		PhotoStyle: run.PhotoStyle,
		Remaining:  remaining,
		Completed:  len(run.Completed),
		Total:      len(run.Variants),
	}
}

// FindResumable - active run을 조회해서 resume 계획 계산
// active run이 없거나 resume 불가능하면 (nil, nil)
func FindResumable(store Store) (*ResumePlan, error) {
	run, err := store.FetchActiveRun()
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}
	return ComputeResume(run), nil
}
