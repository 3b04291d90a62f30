package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"product-fairy-server/modules/batch"
	"product-fairy-server/modules/common/config"
	"product-fairy-server/modules/common/database"
	redisutil "product-fairy-server/modules/common/redis"
	"product-fairy-server/modules/common/storage"
	"product-fairy-server/modules/generate"
	"product-fairy-server/modules/stream"
	"product-fairy-server/modules/worker"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "product-fairy-server",
	})
}

// newGenerator - 설정에 따라 생성 백엔드 선택
// VERTEXAI_PROJECT가 있으면 Vertex AI, 아니면 Gemini API
func newGenerator(ctx context.Context, cfg *config.Config) (generate.Generator, error) {
	if cfg.VertexProject != "" {
		return generate.NewVertexGenerator(ctx, cfg)
	}
	return generate.NewGeminiGenerator(ctx, cfg)
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Redis 연결
	rdb := redisutil.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}
	log.Println("✅ Redis connected")

	// Supabase 클라이언트
	db := database.NewClient()
	if db == nil {
		log.Fatal("❌ Failed to create database client")
	}

	// 생성 백엔드
	ctx := context.Background()
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create generator: %v", err)
	}

	// 서비스 구성
	st := storage.NewClient()
	service := batch.NewService(rdb, db, st, gen)
	hub := stream.NewHub()

	// Redis Queue Worker 시작 (백그라운드)
	queueWorker := worker.NewWorker(rdb, db, service, hub)
	go queueWorker.Start()

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", hub.HandleWebSocket)

	batch.NewHandler(service).RegisterRoutes(r)
	worker.NewHandler(rdb, db, service).RegisterRoutes(r)

	log.Printf("🚀 Product Fairy Server starting on port %s", cfg.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws?run=<runId>", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
