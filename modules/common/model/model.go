package model

import "product-fairy-server/modules/catalog"

// LedgerVersion - run 레코드 포맷 버전
// 버전이 다르거나 파싱 불가능한 레코드는 resume 대상이 아니다
const LedgerVersion = 1

// Run 상태 상수
const (
	RunStatusActive    = "active"
	RunStatusCompleted = "completed"
	RunStatusCancelled = "cancelled"
	RunStatusCleared   = "cleared"
)

// GenerationRun - fairy_generation_runs 테이블 레코드
// 배치 run 1개의 ledger - variant 스냅샷 + 완료된 파일명 목록.
// Variants가 비어있으면 count-only 모드 (resume 불가)
type GenerationRun struct {
	RunID         string            `json:"run_id"`
	LedgerVersion int               `json:"ledger_version"`
	Status        string            `json:"status"`
	PhotoStyle    string            `json:"photo_style,omitempty"`
	TotalCount    int               `json:"total_count"`
	Variants      []catalog.Variant `json:"variants,omitempty"`
	Completed     []string          `json:"completed"`
	CreatedAt     string            `json:"created_at,omitempty"`
	UpdatedAt     string            `json:"updated_at,omitempty"`
}

// GeneratedImage - fairy_images 테이블 레코드
// 업로드된 생성 이미지 1개의 메타데이터
type GeneratedImage struct {
	ImageID       int64  `json:"image_id,omitempty"`
	RunID         string `json:"run_id"`
	Filename      string `json:"filename"`
	ProductNumber string `json:"product_number"`
	ProductName   string `json:"product_name"`
	GenderCode    string `json:"gender_code"`
	ColorCode     string `json:"color_code"`
	ColorName     string `json:"color_name"`
	Prompt        string `json:"prompt"`
	StoragePath   string `json:"storage_path"`
	PreviewPath   string `json:"preview_path,omitempty"`
	FileSize      int64  `json:"file_size"`
	CreatedAt     string `json:"created_at,omitempty"`
}
