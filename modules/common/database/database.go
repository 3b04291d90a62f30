package database

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"

	"product-fairy-server/modules/common/config"
	"product-fairy-server/modules/common/model"
)

const (
	runsTable   = "fairy_generation_runs"
	imagesTable = "fairy_images"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// InsertRun - run 레코드 생성
func (c *Client) InsertRun(run *model.GenerationRun) error {
	log.Printf("💾 Creating run record: %s (%d variants)", run.RunID, run.TotalCount)

	insertData := map[string]interface{}{
		"run_id":         run.RunID,
		"ledger_version": run.LedgerVersion,
		"status":         run.Status,
		"photo_style":    run.PhotoStyle,
		"total_count":    run.TotalCount,
		"variants":       run.Variants,
		"completed":      run.Completed,
	}

	_, _, err := c.supabase.From(runsTable).
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}

	log.Printf("✅ Run record created: %s", run.RunID)
	return nil
}

// FetchRun - run_id로 run 레코드 조회
func (c *Client) FetchRun(runID string) (*model.GenerationRun, error) {
	var runs []model.GenerationRun

	data, _, err := c.supabase.From(runsTable).
		Select("*", "exact", false).
		Eq("run_id", runID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to parse run response: %w", err)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	return &runs[0], nil
}

// FetchActiveRun - active 상태의 run 조회 (없으면 nil)
// 한 번에 active run은 최대 1개만 존재한다
func (c *Client) FetchActiveRun() (*model.GenerationRun, error) {
	var runs []model.GenerationRun

	data, _, err := c.supabase.From(runsTable).
		Select("*", "exact", false).
		Eq("status", model.RunStatusActive).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query active run: %w", err)
	}

	if err := json.Unmarshal(data, &runs); err != nil {
		// 파싱 불가능한 레코드는 resume 대상이 아님
		log.Printf("⚠️  Failed to parse active run record: %v", err)
		return nil, nil
	}

	if len(runs) == 0 {
		return nil, nil
	}

	return &runs[0], nil
}

// UpdateRunCompleted - 완료된 파일명 목록 저장
func (c *Client) UpdateRunCompleted(runID string, completed []string) error {
	updateData := map[string]interface{}{
		"completed":  completed,
		"updated_at": "now()",
	}

	_, _, err := c.supabase.From(runsTable).
		Update(updateData, "", "").
		Eq("run_id", runID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update run completed list: %w", err)
	}

	return nil
}

// UpdateRunStatus - run 상태 업데이트
func (c *Client) UpdateRunStatus(runID string, status string) error {
	log.Printf("📝 Updating run %s status to: %s", runID, status)

	updateData := map[string]interface{}{
		"status":     status,
		"updated_at": "now()",
	}

	_, _, err := c.supabase.From(runsTable).
		Update(updateData, "", "").
		Eq("run_id", runID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	log.Printf("✅ Run %s status updated to: %s", runID, status)
	return nil
}

// InsertImage - 생성 이미지 메타데이터 기록
func (c *Client) InsertImage(img *model.GeneratedImage) error {
	insertData := map[string]interface{}{
		"run_id":         img.RunID,
		"filename":       img.Filename,
		"product_number": img.ProductNumber,
		"product_name":   img.ProductName,
		"gender_code":    img.GenderCode,
		"color_code":     img.ColorCode,
		"color_name":     img.ColorName,
		"prompt":         img.Prompt,
		"storage_path":   img.StoragePath,
		"preview_path":   img.PreviewPath,
		"file_size":      img.FileSize,
	}

	_, _, err := c.supabase.From(imagesTable).
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert image record: %w", err)
	}

	log.Printf("✅ Image record created: %s (%d bytes)", img.Filename, img.FileSize)
	return nil
}

// FetchRunImages - run의 이미지 레코드 목록 조회
func (c *Client) FetchRunImages(runID string) ([]model.GeneratedImage, error) {
	var images []model.GeneratedImage

	data, _, err := c.supabase.From(imagesTable).
		Select("*", "exact", false).
		Eq("run_id", runID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query run images: %w", err)
	}

	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("failed to parse images response: %w", err)
	}

	return images, nil
}
