package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"product-fairy-server/modules/catalog"
	"product-fairy-server/modules/common/config"
	"product-fairy-server/modules/generate"
)

type Handler struct {
	service *Service

	mu        sync.Mutex
	lastRunID string // 다운로드 엔드포인트가 참조하는 최근 run
}

// NewHandler - 배치 핸들러 생성
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - 배치 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/validate-csv", h.ValidateCSV).Methods("POST")
	r.HandleFunc("/api/generate", h.Generate).Methods("POST")
	r.HandleFunc("/api/generate-from-products", h.GenerateFromProducts).Methods("POST")
	r.HandleFunc("/api/regenerate-single", h.RegenerateSingle).Methods("POST")
	r.HandleFunc("/api/resume", h.Resume).Methods("POST")
	r.HandleFunc("/api/session", h.SessionStatus).Methods("GET")
	r.HandleFunc("/api/session/clear", h.ClearSession).Methods("POST")
	r.HandleFunc("/api/download/{filename}", h.Download).Methods("GET")
	r.HandleFunc("/api/download-all", h.DownloadAll).Methods("GET")
}

// parseCSVUpload - multipart 업로드에서 variant 목록 파싱
func (h *Handler) parseCSVUpload(r *http.Request) (*catalog.ValidationResult, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file field is required: %w", err)
	}
	defer file.Close()

	cfg := config.GetConfig()
	return catalog.ValidateCSV(file, cfg.CatalogPrefix)
}

// ValidateCSV - CSV 검증 (생성 없이 결과만 반환)
func (h *Handler) ValidateCSV(w http.ResponseWriter, r *http.Request) {
	result, err := h.parseCSVUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Generate - CSV 업로드로 배치 생성 시작 (SSE 스트림)
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	result, err := h.parseCSVUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	runID := uuid.New().String()
	run, err := h.service.BeginRun(runID, result.Variants, "", true)
	if err != nil {
		writeBeginError(w, err)
		return
	}

	h.setLastRun(runID)
	h.streamRun(w, r, run, runID)
}

// GenerateFromProducts - 제품 목록 + photo style로 생성 시작 (SSE 스트림)
// 프롬프트가 합성되는 경로라 ledger는 count-only로 기록된다 (resume 불가)
func (h *Handler) GenerateFromProducts(w http.ResponseWriter, r *http.Request) {
	var req GenerateFromProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "products list is empty")
		return
	}
	if req.PhotoStyle == "" {
		writeError(w, http.StatusBadRequest, "photoStyle is required")
		return
	}

	runID := uuid.New().String()
	run, err := h.service.BeginRun(runID, req.Products, req.PhotoStyle, false)
	if err != nil {
		writeBeginError(w, err)
		return
	}

	h.setLastRun(runID)
	h.streamRun(w, r, run, runID)
}

// Resume - 미완료 run 재개 (SSE 스트림)
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	run, plan, err := h.service.ResumeRun()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	// 남은 게 없으면 바로 complete만 보낸다
	if run == nil {
		writeSSEHeaders(w)
		writeEvent(w, generate.CompleteEvent{})
		return
	}

	log.Printf("▶️  Resuming run %s: %d of %d remaining", plan.RunID, len(plan.Remaining), plan.Total)
	h.setLastRun(plan.RunID)
	h.streamRun(w, r, run, plan.RunID)
}

// RegenerateSingle - 단건 재생성
func (h *Handler) RegenerateSingle(w http.ResponseWriter, r *http.Request) {
	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	v := catalog.Variant{
		ProductNumber: req.ProductNumber,
		GenderCode:    req.GenderCode,
		ColorCode:     req.ColorCode,
		ProductName:   req.ProductName,
		ColorName:     req.ColorName,
		Prompt:        req.Prompt,
	}

	ev, err := h.service.Regenerate(r.Context(), v)
	if err != nil {
		if errors.Is(err, generate.ErrRegenerationBusy) {
			writeJSON(w, http.StatusConflict, RegenerateResponse{Success: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, RegenerateResponse{Success: false, Error: err.Error()})
		return
	}

	// 재생성 결과도 storage에 반영 (기존 파일 덮어쓰기)
	if runID := h.getLastRun(); runID != "" {
		h.service.HandleImage(r.Context(), runID, *ev, "image/png")
	}

	writeJSON(w, http.StatusOK, RegenerateResponse{
		Success:   true,
		Filename:  ev.Filename,
		ImageData: ev.ImageData,
	})
}

// SessionStatus - 미완료 run 조회
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.SessionStatus()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ClearSession - 미완료 run 폐기
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearSession(); err != nil {
		if errors.Is(err, ErrRunActive) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Download - 최근 run의 이미지 1개 다운로드
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	runID := h.getLastRun()
	if runID == "" {
		writeError(w, http.StatusNotFound, "no generation run in this session")
		return
	}

	filename := mux.Vars(r)["filename"]
	data, err := h.service.DownloadImage(r.Context(), runID, filename)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// DownloadAll - 최근 run의 이미지 전체를 ZIP으로 다운로드
func (h *Handler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	runID := h.getLastRun()
	if runID == "" {
		writeError(w, http.StatusNotFound, "no generation run in this session")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\"generated-images.zip\"")

	if err := h.service.WriteRunArchive(r.Context(), runID, w); err != nil {
		log.Printf("❌ Failed to write run archive: %v", err)
	}
}

// streamRun - run 이벤트를 SSE로 스트리밍
// 이미지 이벤트는 스트림 전달과 별개로 storage에 업로드된다
func (h *Handler) streamRun(w http.ResponseWriter, r *http.Request, run *generate.Run, runID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	writeSSEHeaders(w)

	events := run.Start(r.Context())
	completed := false

	for ev := range events {
		switch e := ev.(type) {
		case generate.ImageEvent:
			// 클라이언트가 끊겨도 업로드는 진행되도록 별도 context 사용
			h.service.HandleImage(context.Background(), runID, e, "image/png")
		case generate.CompleteEvent:
			completed = true
		}

		if err := writeEvent(w, ev); err != nil {
			log.Printf("⚠️  SSE write failed for run %s: %v", runID, err)
			run.Cancel()
			// 남은 이벤트 소진 후 종료
			for range events {
			}
			break
		}
		flusher.Flush()
	}

	h.service.FinishRun(runID, completed)
}

// writeSSEHeaders - SSE 응답 헤더
func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

// writeEvent - 이벤트 1개를 SSE 프레임으로 기록
func writeEvent(w http.ResponseWriter, ev generate.Event) error {
	data, err := generate.EncodeEvent(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (h *Handler) setLastRun(runID string) {
	h.mu.Lock()
	h.lastRunID = runID
	h.mu.Unlock()
}

func (h *Handler) getLastRun() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastRunID
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeBeginError - BeginRun 실패를 HTTP 상태로 매핑
func writeBeginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRunActive), errors.Is(err, ErrUnresolvedSession):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
