package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"product-fairy-server/modules/common/config"
)

// RunQueueKey - 백그라운드 배치 run이 대기하는 큐
const RunQueueKey = "runs:queue"

// cancelKeyPrefix - 취소 플래그 키 접두사
const cancelKeyPrefix = "runs:cancel:"

// cancelFlagTTL - 고아 플래그 방지용 TTL
const cancelFlagTTL = 24 * time.Hour

// Connect - Redis 연결 생성
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	// TLS 설정 (InsecureSkipVerify 추가)
	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // Render.com Redis용
		}
	}

	// Redis 클라이언트 생성
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,                // 기본 DB
		DialTimeout:  10 * time.Second, // 타임아웃 늘림
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// 연결 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("🔍 Testing Redis connection...")
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// SetRunCancelled - Run 취소 플래그 설정
func SetRunCancelled(rdb *redis.Client, runID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return rdb.Set(ctx, cancelKeyPrefix+runID, "1", cancelFlagTTL).Err()
}

// IsRunCancelled - Run 취소 여부 확인
func IsRunCancelled(rdb *redis.Client, runID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := rdb.Exists(ctx, cancelKeyPrefix+runID).Result()
	if err != nil {
		log.Printf("⚠️  Failed to check cancel flag for run %s: %v", runID, err)
		return false
	}
	return exists > 0
}

// ClearRunCancelled - Run 취소 플래그 제거 (resume 시 재사용 방지)
func ClearRunCancelled(rdb *redis.Client, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Del(ctx, cancelKeyPrefix+runID).Err(); err != nil {
		log.Printf("⚠️  Failed to clear cancel flag for run %s: %v", runID, err)
	}
}

// EnqueueRun - Run ID를 큐에 추가, 현재 큐 길이 반환
func EnqueueRun(rdb *redis.Client, runID string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := rdb.LPush(ctx, RunQueueKey, runID).Result(); err != nil {
		return 0, err
	}

	queueLen, _ := rdb.LLen(ctx, RunQueueKey).Result()
	return queueLen, nil
}
