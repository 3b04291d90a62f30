package generate

import (
	"encoding/json"
	"fmt"
)

// Event - run이 방출하는 이벤트 (closed union)
// variant당 terminal 이벤트(Image 또는 Error)는 정확히 1개,
// Complete는 취소 없이 전체 목록을 끝낸 run에서만 1번 나온다.
type Event interface {
	isEvent()
}

// ProgressEvent - variant 시도 직전에 방출 (current는 1-based)
type ProgressEvent struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Label   string `json:"label"`
}

// ImageEvent - variant 성공 시 1회 방출
// Prompt는 실제 사용된 최종 프롬프트 (reference 지시문이 붙으면 저장된 것과 다름)
type ImageEvent struct {
	Filename      string `json:"filename"`
	ProductName   string `json:"productName"`
	ColorName     string `json:"colorName"`
	ProductNumber string `json:"productNumber"`
	GenderCode    string `json:"genderCode"`
	ColorCode     string `json:"colorCode"`
	Prompt        string `json:"prompt"`
	ImageData     []byte `json:"imageData"` // JSON에서는 base64
}

// ErrorEvent - variant 최종 실패 시 1회 방출 (run은 계속 진행)
type ErrorEvent struct {
	Message string `json:"message"`
}

// CompleteEvent - 전체 목록 처리 완료
type CompleteEvent struct{}

func (ProgressEvent) isEvent() {}
func (ImageEvent) isEvent()    {}
func (ErrorEvent) isEvent()    {}
func (CompleteEvent) isEvent() {}

// EncodeEvent - 이벤트를 type 필드가 붙은 JSON으로 직렬화
func EncodeEvent(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case ProgressEvent:
		return json.Marshal(struct {
			Type string `json:"type"`
			ProgressEvent
		}{"progress", ev})
	case ImageEvent:
		return json.Marshal(struct {
			Type string `json:"type"`
			ImageEvent
		}{"image", ev})
	case ErrorEvent:
		return json.Marshal(struct {
			Type string `json:"type"`
			ErrorEvent
		}{"error", ev})
	case CompleteEvent:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{"complete"})
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}
}
