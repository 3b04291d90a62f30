package worker

import (
	"context"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"product-fairy-server/modules/batch"
	"product-fairy-server/modules/common/model"
	redisutil "product-fairy-server/modules/common/redis"
	"product-fairy-server/modules/generate"
	"product-fairy-server/modules/session"
	"product-fairy-server/modules/stream"
)

// Worker - 큐에 등록된 배치 run을 백그라운드에서 처리
// BRPOP으로 run ID를 받아 ledger 레코드를 읽고 headless로 생성한다.
// 이벤트는 WebSocket hub로 중계된다.
type Worker struct {
	rdb     *goredis.Client
	store   session.Store
	service *batch.Service
	hub     *stream.Hub
}

// NewWorker - Worker 생성
func NewWorker(rdb *goredis.Client, store session.Store, service *batch.Service, hub *stream.Hub) *Worker {
	return &Worker{
		rdb:     rdb,
		store:   store,
		service: service,
		hub:     hub,
	}
}

// Start - 큐 소비 루프 시작 (blocking - 고루틴에서 호출)
func (w *Worker) Start() {
	log.Printf("👷 Queue worker started (queue: %s)", redisutil.RunQueueKey)

	ctx := context.Background()
	for {
		result, err := w.rdb.BRPop(ctx, 30*time.Second, redisutil.RunQueueKey).Result()
		if err != nil {
			if err == goredis.Nil {
				continue // 타임아웃 - 큐 비어있음
			}
			log.Printf("⚠️  Queue pop failed: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0]은 키, result[1]이 값
		if len(result) < 2 {
			continue
		}
		runID := result[1]

		log.Printf("📦 Picked up run from queue: %s", runID)
		w.processRun(ctx, runID)
	}
}

// processRun - run 1개를 ledger 레코드 기준으로 처리
func (w *Worker) processRun(ctx context.Context, runID string) {
	record, err := w.store.FetchRun(runID)
	if err != nil {
		log.Printf("❌ Failed to fetch queued run %s: %v", runID, err)
		return
	}

	plan := session.ComputeResume(record)
	if plan == nil {
		log.Printf("❌ Queued run %s is not processable (bad record)", runID)
		return
	}
	if len(plan.Remaining) == 0 {
		log.Printf("📋 Queued run %s has nothing to generate", runID)
		if err := w.store.UpdateRunStatus(runID, model.RunStatusCompleted); err != nil {
			log.Printf("⚠️  Failed to close empty run %s: %v", runID, err)
		}
		return
	}

	run, err := w.service.BeginRun(runID, plan.Remaining, plan.PhotoStyle, true)
	if err != nil {
		log.Printf("❌ Failed to start queued run %s: %v", runID, err)
		return
	}

	events := run.Start(ctx)
	completed := false

	for ev := range events {
		switch e := ev.(type) {
		case generate.ImageEvent:
			w.service.HandleImage(ctx, runID, e, "image/png")
			// hub로는 이미지 바이너리 없이 메타데이터만 중계
			e.ImageData = nil
			w.hub.Broadcast(runID, e)
			continue
		case generate.CompleteEvent:
			completed = true
		}
		w.hub.Broadcast(runID, ev)
	}

	w.service.FinishRun(runID, completed)

	if completed {
		log.Printf("✅ Queued run %s finished", runID)
	} else {
		log.Printf("🛑 Queued run %s stopped before completion", runID)
	}
}
