package generate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"product-fairy-server/modules/catalog"
)

// scriptGenerator - 호출 기록을 남기고 스크립트 함수에 위임하는 Generator
type scriptGenerator struct {
	mu    sync.Mutex
	fn    func(prompt string, ref *ReferenceImage) (*Image, error)
	calls []genCall
}

type genCall struct {
	prompt string
	ref    *ReferenceImage
}

func (g *scriptGenerator) Generate(ctx context.Context, prompt string, reference *ReferenceImage) (*Image, error) {
	g.mu.Lock()
	g.calls = append(g.calls, genCall{prompt: prompt, ref: reference})
	g.mu.Unlock()
	return g.fn(prompt, reference)
}

// fakeRecorder - 완료 기록을 수집
type fakeRecorder struct {
	mu        sync.Mutex
	filenames []string
}

func (r *fakeRecorder) RecordCompletion(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filenames = append(r.filenames, filename)
	return nil
}

// flagCancel - 테스트에서 직접 조작하는 CancelChecker
type flagCancel struct {
	mu        sync.Mutex
	cancelled bool
}

func (f *flagCancel) IsCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *flagCancel) set() {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
}

func batchVariants() []catalog.Variant {
	return []catalog.Variant{
		{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV", ProductName: "Hoodie", ColorName: "Navy", Prompt: "hoodie flat lay"},
		{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "BLK", ProductName: "Hoodie", ColorName: "Black", Prompt: "hoodie flat lay"},
		{ProductNumber: "CNC-P2000", GenderCode: "W", ColorCode: "RED", ProductName: "Jacket", ColorName: "Red", Prompt: "jacket flat lay"},
	}
}

func collectEvents(t *testing.T, run *Run) []Event {
	t.Helper()

	var events []Event
	timeout := time.After(5 * time.Second)
	ch := run.Start(context.Background())
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("run did not finish in time")
		}
	}
}

func newTestRun(t *testing.T, gen Generator, variants []catalog.Variant, recorder CompletionRecorder, cancel CancelChecker) *Run {
	t.Helper()

	run, err := NewRun(RunParams{
		Variants: variants,
		Executor: NewExecutor(gen, 1, time.Millisecond),
		Recorder: recorder,
		Cancel:   cancel,
	})
	if err != nil {
		t.Fatalf("NewRun() error: %v", err)
	}
	return run
}

func TestRunHappyPath(t *testing.T) {
	gen := &scriptGenerator{fn: func(prompt string, ref *ReferenceImage) (*Image, error) {
		return &Image{Data: []byte("img-" + prompt[:6]), MIMEType: "image/png"}, nil
	}}
	recorder := &fakeRecorder{}

	run := newTestRun(t, gen, batchVariants(), recorder, nil)
	events := collectEvents(t, run)

	// variant 3개: progress+image 쌍 3개 + complete 1개
	if len(events) != 7 {
		t.Fatalf("expected 7 events, got %d: %#v", len(events), events)
	}

	for i := 0; i < 3; i++ {
		prog, ok := events[i*2].(ProgressEvent)
		if !ok {
			t.Fatalf("event %d should be progress, got %T", i*2, events[i*2])
		}
		if prog.Current != i+1 || prog.Total != 3 {
			t.Errorf("progress %d = %d/%d", i, prog.Current, prog.Total)
		}
		if _, ok := events[i*2+1].(ImageEvent); !ok {
			t.Fatalf("event %d should be image, got %T", i*2+1, events[i*2+1])
		}
	}
	if _, ok := events[6].(CompleteEvent); !ok {
		t.Fatalf("last event should be complete, got %T", events[6])
	}

	// 성공한 variant마다 완료 기록
	want := []string{"CNCP1000MNAV.jpg", "CNCP1000MBLK.jpg", "CNCP2000WRED.jpg"}
	if len(recorder.filenames) != len(want) {
		t.Fatalf("recorded %v, want %v", recorder.filenames, want)
	}
	for i, f := range want {
		if recorder.filenames[i] != f {
			t.Errorf("recorded[%d] = %s, want %s", i, recorder.filenames[i], f)
		}
	}
}

func TestRunFollowerUsesAnchorReference(t *testing.T) {
	gen := &scriptGenerator{fn: func(prompt string, ref *ReferenceImage) (*Image, error) {
		return &Image{Data: []byte("generated"), MIMEType: "image/png"}, nil
	}}

	run := newTestRun(t, gen, batchVariants(), nil, nil)
	collectEvents(t, run)

	if len(gen.calls) != 3 {
		t.Fatalf("expected 3 generate calls, got %d", len(gen.calls))
	}

	// anchor는 참조 없이 저장된 프롬프트 그대로
	if gen.calls[0].ref != nil {
		t.Error("anchor call should have no reference")
	}
	if gen.calls[0].prompt != "hoodie flat lay" {
		t.Errorf("anchor prompt = %q", gen.calls[0].prompt)
	}

	// follower는 anchor 이미지 참조 + 색상 변경 지시문
	if gen.calls[1].ref == nil {
		t.Fatal("follower call should carry a reference image")
	}
	if string(gen.calls[1].ref.Data) != "generated" {
		t.Errorf("follower reference = %q", gen.calls[1].ref.Data)
	}
	if !strings.Contains(gen.calls[1].prompt, "exact same product design but in Black color") {
		t.Errorf("follower prompt = %q", gen.calls[1].prompt)
	}

	// 다음 그룹의 anchor는 다시 참조 없음
	if gen.calls[2].ref != nil {
		t.Error("new group anchor should have no reference")
	}
}

func TestRunAnchorFailureDegradesFollower(t *testing.T) {
	var callCount int
	gen := &scriptGenerator{}
	gen.fn = func(prompt string, ref *ReferenceImage) (*Image, error) {
		callCount++
		if callCount == 1 {
			// 첫 그룹의 anchor만 실패
			return nil, errors.New("response blocked by safety filters")
		}
		return &Image{Data: []byte("generated"), MIMEType: "image/png"}, nil
	}

	run := newTestRun(t, gen, batchVariants(), nil, nil)
	events := collectEvents(t, run)

	// anchor 실패는 error 이벤트, follower는 참조 없이 계속
	var errCount, imgCount int
	for _, ev := range events {
		switch ev.(type) {
		case ErrorEvent:
			errCount++
		case ImageEvent:
			imgCount++
		}
	}
	if errCount != 1 || imgCount != 2 {
		t.Fatalf("expected 1 error + 2 images, got %d/%d", errCount, imgCount)
	}

	// follower 호출은 참조 없음, 색상 지시문도 없음
	if gen.calls[1].ref != nil {
		t.Error("follower should degrade to no reference when anchor failed")
	}
	if strings.Contains(gen.calls[1].prompt, "exact same product design") {
		t.Errorf("degraded follower should not carry color instruction: %q", gen.calls[1].prompt)
	}

	// variant 실패가 run을 멈추지 않는다
	if _, ok := events[len(events)-1].(CompleteEvent); !ok {
		t.Error("run should still complete after a variant failure")
	}
}

func TestRunCancelAtBoundary(t *testing.T) {
	cancel := &flagCancel{}
	gen := &scriptGenerator{fn: func(prompt string, ref *ReferenceImage) (*Image, error) {
		return &Image{Data: []byte("generated"), MIMEType: "image/png"}, nil
	}}

	// 첫 variant 완료 직후 취소 플래그 설정
	recorder := &cancelAfterFirst{flag: cancel}

	run := newTestRun(t, gen, batchVariants(), recorder, cancel)
	events := collectEvents(t, run)

	// progress + image 1쌍만 나오고 complete 없이 닫힌다
	if len(events) != 2 {
		t.Fatalf("expected 2 events before cancellation, got %d: %#v", len(events), events)
	}
	for _, ev := range events {
		if _, ok := ev.(CompleteEvent); ok {
			t.Fatal("cancelled run must not emit complete")
		}
	}
	if gen.calls[0].prompt == "" {
		t.Fatal("first variant should have been attempted")
	}
	if len(gen.calls) != 1 {
		t.Errorf("expected 1 generate call before cancellation, got %d", len(gen.calls))
	}
}

// cancelAfterFirst - 첫 완료 기록 시 취소 플래그를 올리는 recorder
type cancelAfterFirst struct {
	flag *flagCancel
}

func (r *cancelAfterFirst) RecordCompletion(filename string) error {
	r.flag.set()
	return nil
}

func TestRunCancelDuringAttemptDiscardsResult(t *testing.T) {
	cancel := &flagCancel{}
	gen := &scriptGenerator{fn: func(prompt string, ref *ReferenceImage) (*Image, error) {
		// 시도 도중 취소 발생
		cancel.set()
		return &Image{Data: []byte("generated"), MIMEType: "image/png"}, nil
	}}

	run := newTestRun(t, gen, batchVariants(), nil, cancel)
	events := collectEvents(t, run)

	// progress만 나오고 생성 결과는 버려진다
	if len(events) != 1 {
		t.Fatalf("expected only the progress event, got %d: %#v", len(events), events)
	}
	if _, ok := events[0].(ProgressEvent); !ok {
		t.Fatalf("expected progress event, got %T", events[0])
	}
}

func TestNewRunValidation(t *testing.T) {
	exec := NewExecutor(&scriptGenerator{fn: func(string, *ReferenceImage) (*Image, error) {
		return okImage(), nil
	}}, 1, time.Millisecond)

	// 빈 목록
	if _, err := NewRun(RunParams{Executor: exec}); err == nil {
		t.Error("expected error for empty variant list")
	}

	// 프롬프트도 photo style도 없음
	_, err := NewRun(RunParams{
		Executor: exec,
		Variants: []catalog.Variant{{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV"}},
	})
	if err == nil {
		t.Error("expected error for promptless variant without photo style")
	}

	// photo style이 있으면 프롬프트 없는 variant도 허용
	_, err = NewRun(RunParams{
		Executor:   exec,
		PhotoStyle: "studio flat lay",
		Variants:   []catalog.Variant{{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV"}},
	})
	if err != nil {
		t.Errorf("photo style should satisfy promptless variants: %v", err)
	}

	// 파일명 충돌
	_, err = NewRun(RunParams{
		Executor: exec,
		Variants: []catalog.Variant{
			{ProductNumber: "CNC-P1000", GenderCode: "M", ColorCode: "NAV", Prompt: "p"},
			{ProductNumber: "CNCP1000", GenderCode: "M", ColorCode: "NAV", Prompt: "p"},
		},
	})
	if err == nil {
		t.Error("expected error for filename collision")
	}
}

func TestRunErrorEventNamesVariant(t *testing.T) {
	gen := &scriptGenerator{fn: func(prompt string, ref *ReferenceImage) (*Image, error) {
		return nil, errors.New("503 unavailable")
	}}

	variants := batchVariants()[:1]
	run := newTestRun(t, gen, variants, nil, nil)
	events := collectEvents(t, run)

	var found bool
	for _, ev := range events {
		if e, ok := ev.(ErrorEvent); ok {
			found = true
			if !strings.Contains(e.Message, "CNCP1000MNAV.jpg") {
				t.Errorf("error message should name the derived filename: %q", e.Message)
			}
		}
	}
	if !found {
		t.Fatal("expected an error event")
	}
}
