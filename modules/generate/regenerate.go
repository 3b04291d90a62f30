package generate

import (
	"context"
	"errors"
	"log"
	"sync"

	"product-fairy-server/modules/catalog"
)

// ErrRegenerationBusy - 단건 재생성 슬롯이 이미 사용 중
var ErrRegenerationBusy = errors.New("another regeneration is already in progress")

// Regenerator - 단건 재생성기
// 프로세스 전체에 슬롯 1개 - 동시 요청은 거부한다.
// 배치와 달리 reference 없이 저장된 프롬프트만으로 생성한다.
type Regenerator struct {
	executor *Executor
	mu       sync.Mutex
}

// NewRegenerator - Regenerator 생성
func NewRegenerator(executor *Executor) *Regenerator {
	return &Regenerator{executor: executor}
}

// Regenerate - variant 1개 재생성
// 슬롯을 못 잡으면 ErrRegenerationBusy를 즉시 반환
func (r *Regenerator) Regenerate(ctx context.Context, v catalog.Variant) (*ImageEvent, error) {
	if !r.mu.TryLock() {
		return nil, ErrRegenerationBusy
	}
	defer r.mu.Unlock()

	filename := catalog.DeriveFilename(v)
	log.Printf("🔄 Regenerating single image: %s", filename)

	img, err := r.executor.Execute(ctx, filename, v.Prompt, nil)
	if err != nil {
		return nil, err
	}

	return &ImageEvent{
		Filename:      filename,
		ProductName:   v.ProductName,
		ColorName:     v.ColorName,
		ProductNumber: v.ProductNumber,
		GenderCode:    v.GenderCode,
		ColorCode:     v.ColorCode,
		Prompt:        v.Prompt,
		ImageData:     img.Data,
	}, nil
}
