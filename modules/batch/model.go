package batch

import "product-fairy-server/modules/catalog"

// GenerateFromProductsRequest - 저장된 프롬프트 없이 제품 목록으로 생성 요청
// 프롬프트는 PhotoStyle + 제품 정보로 합성된다
type GenerateFromProductsRequest struct {
	Products   []catalog.Variant `json:"products"`
	PhotoStyle string            `json:"photoStyle"`
}

// RegenerateRequest - 단건 재생성 요청
type RegenerateRequest struct {
	ProductNumber string `json:"productNumber"`
	GenderCode    string `json:"genderCode"`
	ColorCode     string `json:"colorCode"`
	ProductName   string `json:"productName"`
	ColorName     string `json:"colorName"`
	Prompt        string `json:"prompt"`
}

// RegenerateResponse - 단건 재생성 결과
type RegenerateResponse struct {
	Success   bool   `json:"success"`
	Filename  string `json:"filename,omitempty"`
	ImageData []byte `json:"imageData,omitempty"` // base64
	Error     string `json:"error,omitempty"`
}

// SessionStatus - 미완료 run 조회 응답
type SessionStatus struct {
	Resumable bool   `json:"resumable"`
	RunID     string `json:"runId,omitempty"`
	Completed int    `json:"completed,omitempty"`
	Total     int    `json:"total,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
}

// EnqueueResponse - 큐 모드 등록 응답
type EnqueueResponse struct {
	RunID         string `json:"runId"`
	QueuePosition int64  `json:"queuePosition"`
}
