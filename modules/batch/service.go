package batch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"product-fairy-server/modules/catalog"
	"product-fairy-server/modules/common/config"
	"product-fairy-server/modules/common/model"
	redisutil "product-fairy-server/modules/common/redis"
	"product-fairy-server/modules/common/storage"
	"product-fairy-server/modules/generate"
	"product-fairy-server/modules/session"
)

// RunStore - run 레코드 + 이미지 메타데이터 영속화
// Supabase 구현은 common/database, 테스트는 fake
type RunStore interface {
	session.Store
	InsertImage(img *model.GeneratedImage) error
	FetchRunImages(runID string) ([]model.GeneratedImage, error)
}

// ErrRunActive - 이미 배치 run이 진행 중
var ErrRunActive = errors.New("a generation run is already in progress")

// ErrUnresolvedSession - 미완료 run이 남아있음 (resume 또는 clear 필요)
var ErrUnresolvedSession = errors.New("an unfinished run exists; resume it or clear the session first")

type Service struct {
	rdb         *goredis.Client
	db          RunStore
	storage     *storage.Client
	generator   generate.Generator
	regenerator *generate.Regenerator
	ledger      *session.Ledger

	mu          sync.Mutex
	activeRunID string
}

// NewService - 배치 서비스 생성
func NewService(rdb *goredis.Client, db RunStore, st *storage.Client, gen generate.Generator) *Service {
	return &Service{
		rdb:         rdb,
		db:          db,
		storage:     st,
		generator:   gen,
		regenerator: generate.NewRegenerator(newExecutor(gen)),
		ledger:      session.NewLedger(db),
	}
}

// newExecutor - 설정값으로 Executor 구성
func newExecutor(gen generate.Generator) *generate.Executor {
	cfg := config.GetConfig()
	return generate.NewExecutor(gen, cfg.MaxAttempts,
		time.Duration(cfg.RetryBaseSeconds)*time.Second)
}

// redisCancel - Redis 취소 플래그 기반 CancelChecker
type redisCancel struct {
	rdb   *goredis.Client
	runID string
}

func (r redisCancel) IsCancelled() bool {
	return redisutil.IsRunCancelled(r.rdb, r.runID)
}

// BeginRun - 배치 run 시작
// snapshot이 true면 variant 목록을 ledger에 저장해서 resume 가능,
// false면 count-only 기록 (store-builder 경로)
func (s *Service) BeginRun(runID string, variants []catalog.Variant, photoStyle string, snapshot bool) (*generate.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeRunID != "" {
		return nil, ErrRunActive
	}

	// 새 run 시작 전에 미완료 run이 있으면 거부
	// (같은 runID로 다시 들어오는 것은 resume)
	// ledger를 읽을 수 없으면 시작하지 않는다 - 미완료 run을 덮어쓸 수 있음
	plan, err := session.FindResumable(s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to check for unfinished runs: %w", err)
	}
	if plan != nil && plan.RunID != runID {
		return nil, ErrUnresolvedSession
	}

	var snapshotVariants []catalog.Variant
	if snapshot {
		snapshotVariants = variants
	}
	if err := s.ledger.RecordStart(runID, snapshotVariants, photoStyle, len(variants)); err != nil {
		return nil, err
	}

	// 이전 run의 취소 플래그가 남아있으면 제거
	redisutil.ClearRunCancelled(s.rdb, runID)

	cfg := config.GetConfig()
	run, err := generate.NewRun(generate.RunParams{
		Variants:   variants,
		PhotoStyle: photoStyle,
		Executor:   newExecutor(s.generator),
		Recorder:   s.ledger,
		Cancel:     redisCancel{rdb: s.rdb, runID: runID},
		Pacing:     time.Duration(cfg.PacingSeconds) * time.Second,
	})
	if err != nil {
		s.ledger.Clear(model.RunStatusCleared)
		return nil, err
	}

	s.activeRunID = runID
	return run, nil
}

// FinishRun - run 종료 처리
// completed가 true면 ledger를 completed로, 아니면 active로 남겨 resume 가능하게 한다
func (s *Service) FinishRun(runID string, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeRunID == runID {
		s.activeRunID = ""
	}

	if completed {
		if err := s.ledger.Clear(model.RunStatusCompleted); err != nil {
			log.Printf("⚠️  Failed to mark run %s completed: %v", runID, err)
		}
	}
}

// HandleImage - 생성 이미지 업로드 + 메타데이터 기록
// 업로드 실패는 run을 멈추지 않는다 (이벤트 스트림으로는 이미 전달됨)
func (s *Service) HandleImage(ctx context.Context, runID string, ev generate.ImageEvent, mimeType string) {
	storagePath, previewPath, size, err := s.storage.UploadImage(ctx, runID, ev.Filename, ev.ImageData, mimeType)
	if err != nil {
		log.Printf("⚠️  Failed to upload %s: %v", ev.Filename, err)
		return
	}

	record := &model.GeneratedImage{
		RunID:         runID,
		Filename:      ev.Filename,
		ProductNumber: ev.ProductNumber,
		ProductName:   ev.ProductName,
		GenderCode:    ev.GenderCode,
		ColorCode:     ev.ColorCode,
		ColorName:     ev.ColorName,
		Prompt:        ev.Prompt,
		StoragePath:   storagePath,
		PreviewPath:   previewPath,
		FileSize:      size,
	}
	if err := s.db.InsertImage(record); err != nil {
		log.Printf("⚠️  Failed to record image %s: %v", ev.Filename, err)
	}
}

// SessionStatus - 미완료 run 상태 조회
func (s *Service) SessionStatus() (*SessionStatus, error) {
	plan, err := session.FindResumable(s.db)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return &SessionStatus{Resumable: false}, nil
	}
	return &SessionStatus{
		Resumable: true,
		RunID:     plan.RunID,
		Completed: plan.Completed,
		Total:     plan.Total,
		Remaining: len(plan.Remaining),
	}, nil
}

// ResumeRun - 미완료 run 재개
// 남은 variant가 없으면 run을 completed로 정리하고 nil을 반환
func (s *Service) ResumeRun() (*generate.Run, *session.ResumePlan, error) {
	plan, err := session.FindResumable(s.db)
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		return nil, nil, fmt.Errorf("no resumable run found")
	}

	if len(plan.Remaining) == 0 {
		log.Printf("📋 Run %s has nothing left to generate, marking completed", plan.RunID)
		if err := s.db.UpdateRunStatus(plan.RunID, model.RunStatusCompleted); err != nil {
			return nil, nil, err
		}
		return nil, plan, nil
	}

	run, err := s.BeginRun(plan.RunID, plan.Remaining, plan.PhotoStyle, true)
	if err != nil {
		return nil, nil, err
	}
	return run, plan, nil
}

// ClearSession - 미완료 run 폐기
func (s *Service) ClearSession() error {
	plan, err := session.FindResumable(s.db)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeRunID == plan.RunID {
		return ErrRunActive
	}

	log.Printf("🗑️  Discarding unfinished run %s", plan.RunID)
	return s.db.UpdateRunStatus(plan.RunID, model.RunStatusCleared)
}

// Regenerate - 단건 재생성 (동시 요청은 generate.ErrRegenerationBusy)
func (s *Service) Regenerate(ctx context.Context, v catalog.Variant) (*generate.ImageEvent, error) {
	return s.regenerator.Regenerate(ctx, v)
}

// DownloadImage - run 이미지를 storage에서 가져온다
func (s *Service) DownloadImage(ctx context.Context, runID, filename string) ([]byte, error) {
	return s.storage.DownloadImage(ctx, fmt.Sprintf("run-%s/%s", runID, filename))
}

// WriteRunArchive - run의 모든 이미지를 ZIP으로 스트리밍
func (s *Service) WriteRunArchive(ctx context.Context, runID string, w io.Writer) error {
	images, err := s.db.FetchRunImages(runID)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no images found for run %s", runID)
	}

	zw := zip.NewWriter(w)
	for _, img := range images {
		data, err := s.storage.DownloadImage(ctx, img.StoragePath)
		if err != nil {
			log.Printf("⚠️  Skipping %s in archive: %v", img.Filename, err)
			continue
		}

		entry, err := zw.Create(img.Filename)
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", img.Filename, err)
		}
		if _, err := entry.Write(data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", img.Filename, err)
		}
	}

	return zw.Close()
}

// EnqueueRun - 배치 run을 백그라운드 큐에 등록
// variant 스냅샷을 run 레코드로 먼저 남기고 run ID만 큐에 넣는다.
// 큐 worker가 레코드를 읽어 headless로 처리한다.
func (s *Service) EnqueueRun(runID string, variants []catalog.Variant, photoStyle string) (int64, error) {
	run := &model.GenerationRun{
		RunID:         runID,
		LedgerVersion: model.LedgerVersion,
		Status:        model.RunStatusActive,
		PhotoStyle:    photoStyle,
		TotalCount:    len(variants),
		Variants:      variants,
		Completed:     []string{},
	}
	if err := s.db.InsertRun(run); err != nil {
		return 0, err
	}

	return redisutil.EnqueueRun(s.rdb, runID)
}
