package generate

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Image - 생성된 이미지 바이너리 + MIME 타입
type Image struct {
	Data     []byte
	MIMEType string
}

// ReferenceImage - 색상 일관성을 위해 생성 호출에 붙이는 참조 이미지
type ReferenceImage struct {
	Data     []byte
	MIMEType string
}

// Generator - upstream 이미지 생성 호출 (시도 1회)
// Gemini API / Vertex AI 구현이 있고, 테스트는 fake를 쓴다
type Generator interface {
	Generate(ctx context.Context, prompt string, reference *ReferenceImage) (*Image, error)
}

// Executor - variant 1개에 대한 생성 시도 실행기
// 최대 maxAttempts회, 시도 사이 backoff는 baseDelay에서 2배씩 증가.
// Permanent 에러는 재시도 없이 즉시 반환. 이미지를 저장하지 않는다.
type Executor struct {
	generator   Generator
	maxAttempts int
	baseDelay   time.Duration
}

// NewExecutor - Executor 생성
func NewExecutor(generator Generator, maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Executor{
		generator:   generator,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Execute - 재시도 포함 생성 실행
func (e *Executor) Execute(ctx context.Context, label string, prompt string, reference *ReferenceImage) (*Image, error) {
	var lastErr error
	delay := e.baseDelay

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		log.Printf("🎨 Generating %s (attempt %d/%d)", label, attempt, e.maxAttempts)

		img, err := e.generator.Generate(ctx, prompt, reference)
		if err == nil {
			log.Printf("✅ Generated %s: %d bytes (attempt %d/%d)", label, len(img.Data), attempt, e.maxAttempts)
			return img, nil
		}

		lastErr = err

		if Classify(err) == ClassPermanent {
			// content policy 거부 등 - 재시도 의미 없음
			log.Printf("❌ %s failed with permanent error: %v", label, err)
			return nil, fmt.Errorf("permanent rejection: %w", err)
		}

		log.Printf("⚠️  %s attempt %d/%d failed: %v", label, attempt, e.maxAttempts, err)

		// 마지막 시도가 아니면 backoff 후 재시도 (매번 2배)
		if attempt < e.maxAttempts {
			log.Printf("   ⏳ Waiting %v before retry...", delay)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", e.maxAttempts, lastErr)
}

// sleepCtx - context 취소를 존중하는 sleep
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
