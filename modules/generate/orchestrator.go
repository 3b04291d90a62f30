package generate

import (
	"context"
	"fmt"
	"log"
	"time"

	"product-fairy-server/modules/catalog"
)

// CompletionRecorder - variant 완료 기록 (session ledger)
// 이벤트 방출 전에 호출되어 resume 목록에서 제외시킨다
type CompletionRecorder interface {
	RecordCompletion(filename string) error
}

// CancelChecker - run 취소 여부 확인 (Redis cancel flag)
type CancelChecker interface {
	IsCancelled() bool
}

// RunParams - 배치 run 설정
type RunParams struct {
	Variants   []catalog.Variant
	PhotoStyle string // Prompt가 빈 variant용 (store-builder 경로)
	Executor   *Executor
	Recorder   CompletionRecorder // nil이면 기록 생략 (count-only)
	Cancel     CancelChecker      // nil이면 context 취소만 확인
	Pacing     time.Duration      // variant 사이 대기 (rate limit 완화)
}

// Run - 배치 생성 run 1개
// Start 후 Events 채널로 progress/image/error/complete가 순서대로 나온다.
// variant는 순차 처리 - 동시 생성 없음.
type Run struct {
	params RunParams
	events chan Event
	cancel context.CancelFunc
}

// NewRun - run 생성 + 입력 검증
// 빈 목록, 프롬프트도 photoStyle도 없는 variant, 파일명 충돌은 시작 전에 거부
func NewRun(params RunParams) (*Run, error) {
	if len(params.Variants) == 0 {
		return nil, fmt.Errorf("no variants to generate")
	}
	if params.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}

	if params.PhotoStyle == "" {
		for _, v := range params.Variants {
			if v.Prompt == "" {
				return nil, fmt.Errorf("variant %s has no prompt and no photo style given",
					catalog.DeriveFilename(v))
			}
		}
	}

	if err := catalog.CheckCollisions(params.Variants); err != nil {
		return nil, err
	}

	return &Run{
		params: params,
		events: make(chan Event, len(params.Variants)*2+2),
	}, nil
}

// Start - run 시작. 이벤트 채널은 run 종료 시 닫힌다.
func (r *Run) Start(ctx context.Context) <-chan Event {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
	return r.events
}

// Cancel - 다음 variant 경계에서 run 중단
// 진행 중인 시도는 context로 끊기고 결과는 버려진다
func (r *Run) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Run) loop(ctx context.Context) {
	defer close(r.events)

	variants := r.params.Variants
	groups := catalog.GroupByProductNumber(variants)
	total := len(variants)
	produced := make(map[string]*Image, total)

	log.Printf("🚀 Starting generation run: %d variants in %d product groups", total, len(groups))

	current := 0
	for _, group := range groups {
		for _, v := range group.Variants {
			current++

			if r.cancelled(ctx) {
				log.Printf("🛑 Run cancelled at variant %d/%d", current, total)
				return
			}

			label := v.ProductName
			if label == "" {
				label = v.ProductNumber
			}
			r.events <- ProgressEvent{Current: current, Total: total, Label: label}

			filename := catalog.DeriveFilename(v)
			prompt := basePrompt(v, r.params.PhotoStyle)

			reference := ResolveReference(group, v, produced)
			if reference != nil {
				prompt = colorVariantPrompt(prompt, v.ColorName)
			}

			img, err := r.params.Executor.Execute(ctx, filename, prompt, reference)

			// 시도 중 취소된 경우 결과를 내보내지 않는다
			if r.cancelled(ctx) {
				log.Printf("🛑 Run cancelled during variant %d/%d, discarding result", current, total)
				return
			}

			if err != nil {
				r.events <- ErrorEvent{
					Message: fmt.Sprintf("Failed to generate %s: %v", filename, err),
				}
				continue
			}

			produced[filename] = img

			if r.params.Recorder != nil {
				if err := r.params.Recorder.RecordCompletion(filename); err != nil {
					log.Printf("⚠️  Failed to record completion for %s: %v", filename, err)
				}
			}

			r.events <- ImageEvent{
				Filename:      filename,
				ProductName:   v.ProductName,
				ColorName:     v.ColorName,
				ProductNumber: v.ProductNumber,
				GenderCode:    v.GenderCode,
				ColorCode:     v.ColorCode,
				Prompt:        prompt,
				ImageData:     img.Data,
			}

			// API rate limit 완화용 pacing
			if current < total && r.params.Pacing > 0 {
				if err := sleepCtx(ctx, r.params.Pacing); err != nil {
					return
				}
			}
		}
	}

	log.Printf("🎉 Generation run complete: %d variants processed", total)
	r.events <- CompleteEvent{}
}

// cancelled - context 취소 또는 외부 cancel flag 확인
func (r *Run) cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}
	if r.params.Cancel != nil && r.params.Cancel.IsCancelled() {
		return true
	}
	return false
}
