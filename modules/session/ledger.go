package session

import (
	"fmt"
	"log"
	"sync"

	"product-fairy-server/modules/catalog"
	"product-fairy-server/modules/common/model"
)

// Store - run 레코드 영속화 (Supabase 구현, 테스트는 fake)
type Store interface {
	InsertRun(run *model.GenerationRun) error
	FetchRun(runID string) (*model.GenerationRun, error)
	FetchActiveRun() (*model.GenerationRun, error)
	UpdateRunCompleted(runID string, completed []string) error
	UpdateRunStatus(runID string, status string) error
}

// Ledger - 진행 중인 run의 완료 기록
// 완료된 파일명 set을 메모리에 들고 변경 시마다 store에 반영한다.
// 모든 기록 연산은 멱등 - 같은 파일명을 두 번 기록해도 한 번과 같다.
type Ledger struct {
	store Store

	mu        sync.Mutex
	runID     string
	completed map[string]bool
}

// NewLedger - Ledger 생성
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordStart - run 시작 기록
// variants가 비면 count-only 모드로 저장되어 resume이 불가능하다
func (l *Ledger) RecordStart(runID string, variants []catalog.Variant, photoStyle string, total int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 같은 run을 다시 시작하면 (resume) 기존 완료 목록을 이어받는다
	if existing, err := l.store.FetchRun(runID); err == nil && existing != nil {
		l.runID = runID
		l.completed = make(map[string]bool, len(existing.Completed))
		for _, f := range existing.Completed {
			l.completed[f] = true
		}
		log.Printf("📋 Resuming ledger for run %s (%d already completed)", runID, len(l.completed))
		return nil
	}

	run := &model.GenerationRun{
		RunID:         runID,
		LedgerVersion: model.LedgerVersion,
		Status:        model.RunStatusActive,
		PhotoStyle:    photoStyle,
		TotalCount:    total,
		Variants:      variants,
		Completed:     []string{},
	}

	if err := l.store.InsertRun(run); err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}

	l.runID = runID
	l.completed = make(map[string]bool)
	return nil
}

// RecordCompletion - variant 완료 기록 (멱등)
func (l *Ledger) RecordCompletion(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.runID == "" {
		return fmt.Errorf("no active run in ledger")
	}

	if l.completed[filename] {
		return nil
	}
	l.completed[filename] = true

	completed := make([]string, 0, len(l.completed))
	for f := range l.completed {
		completed = append(completed, f)
	}

	if err := l.store.UpdateRunCompleted(l.runID, completed); err != nil {
		// 기록 실패 시 메모리 상태를 되돌려서 재시도 가능하게 한다
		delete(l.completed, filename)
		return fmt.Errorf("failed to record completion: %w", err)
	}

	return nil
}

// Clear - run 종료 기록 (멱등)
// status: completed / cancelled / cleared
func (l *Ledger) Clear(status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.runID == "" {
		return nil
	}

	if err := l.store.UpdateRunStatus(l.runID, status); err != nil {
		return fmt.Errorf("failed to clear run: %w", err)
	}

	log.Printf("🧹 Ledger cleared for run %s (status: %s)", l.runID, status)
	l.runID = ""
	l.completed = nil
	return nil
}

// RunID - 현재 기록 중인 run ID (없으면 빈 문자열)
func (l *Ledger) RunID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runID
}
