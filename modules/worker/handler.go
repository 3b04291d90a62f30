package worker

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/gorilla/mux"

	"product-fairy-server/modules/batch"
	"product-fairy-server/modules/catalog"
	"product-fairy-server/modules/common/config"
	"product-fairy-server/modules/common/model"
	redisutil "product-fairy-server/modules/common/redis"
	"product-fairy-server/modules/session"
)

// cancelFlags - 취소 플래그 저장 (Redis 구현, 테스트는 fake)
type cancelFlags interface {
	SetRunCancelled(runID string) error
}

type redisFlags struct {
	rdb *goredis.Client
}

func (f redisFlags) SetRunCancelled(runID string) error {
	return redisutil.SetRunCancelled(f.rdb, runID)
}

// Handler - 큐 모드 HTTP 엔드포인트
type Handler struct {
	store   session.Store
	flags   cancelFlags
	service *batch.Service
}

// NewHandler - Worker 핸들러 생성
func NewHandler(rdb *goredis.Client, store session.Store, service *batch.Service) *Handler {
	return &Handler{
		store:   store,
		flags:   redisFlags{rdb: rdb},
		service: service,
	}
}

// RegisterRoutes - 큐 모드 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/enqueue", h.Enqueue).Methods("POST")
	r.HandleFunc("/api/runs/{runId}/cancel", h.CancelRun).Methods("POST")
}

// Enqueue - CSV 업로드로 배치 run을 큐에 등록
// 처리 결과는 /ws?run=<runId>로 구독한다
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file field is required: %v", err))
		return
	}
	defer file.Close()

	cfg := config.GetConfig()
	result, err := catalog.ValidateCSV(file, cfg.CatalogPrefix)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	runID := uuid.New().String()
	position, err := h.service.EnqueueRun(runID, result.Variants, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("📥 Run %s enqueued (position: %d)", runID, position)
	writeJSON(w, http.StatusAccepted, batch.EnqueueResponse{
		RunID:         runID,
		QueuePosition: position,
	})
}

// CancelRun - run 취소 플래그 설정
// 존재하지 않는 run은 404, 이미 끝난 run은 취소 불가.
// 진행 중인 run은 다음 variant 경계에서 멈춘다.
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]
	if runID == "" {
		writeError(w, http.StatusBadRequest, "runId is required")
		return
	}

	log.Printf("🛑 Cancel requested for run: %s", runID)

	run, err := h.store.FetchRun(runID)
	if err != nil {
		log.Printf("❌ Run not found for cancel: %s", runID)
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	// 이미 완료/취소/폐기된 run은 취소 불가
	if run.Status != model.RunStatusActive {
		log.Printf("⚠️  Run already %s: %s", run.Status, runID)
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "Run already " + run.Status,
			"runId":   runID,
			"status":  run.Status,
		})
		return
	}

	if err := h.flags.SetRunCancelled(runID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to set cancel flag: %v", err))
		return
	}

	log.Printf("✅ Cancel flag set for run: %s (completed: %d/%d)", runID, len(run.Completed), run.TotalCount)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Cancel request sent. Run will stop after the current variant.",
		"runId":   runID,
		"status":  run.Status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
