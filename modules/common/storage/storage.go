package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"product-fairy-server/modules/common/config"
	"product-fairy-server/modules/common/imaging"
)

// bucket - 생성 이미지 버킷
const bucket = "generated-images"

// previewQuality - WebP preview 품질
const previewQuality = 80.0

type Client struct {
	httpClient *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// objectPath - run 내 이미지의 storage 경로
func objectPath(runID, filename string) string {
	return fmt.Sprintf("run-%s/%s", runID, filename)
}

// UploadImage - 생성 이미지를 JPEG로 변환해 업로드하고 WebP preview도 올린다
// preview 실패는 경고만 남기고 본 이미지 업로드는 성공으로 처리
func (c *Client) UploadImage(ctx context.Context, runID, filename string, data []byte, mimeType string) (string, string, int64, error) {
	jpegData, contentType := imaging.ToJPEG(data, mimeType)

	filePath := objectPath(runID, filename)
	log.Printf("📤 Uploading image to storage: %s", filePath)

	if err := c.upload(ctx, filePath, jpegData, contentType); err != nil {
		return "", "", 0, err
	}

	log.Printf("✅ Image uploaded: %s (%d bytes)", filePath, len(jpegData))

	// WebP preview (프론트 썸네일용)
	previewPath := ""
	webpData, err := imaging.ToWebP(jpegData, previewQuality)
	if err != nil {
		log.Printf("⚠️  Failed to create WebP preview for %s: %v", filename, err)
	} else {
		previewPath = objectPath(runID, strings.TrimSuffix(filename, ".jpg")+".webp")
		if err := c.upload(ctx, previewPath, webpData, "image/webp"); err != nil {
			log.Printf("⚠️  Failed to upload WebP preview: %v", err)
			previewPath = ""
		}
	}

	return filePath, previewPath, int64(len(jpegData)), nil
}

// upload - Supabase Storage API로 POST
func (c *Client) upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	cfg := config.GetConfig()

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", cfg.SupabaseURL, bucket, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", contentType)
	// 같은 경로 재업로드 허용 (재생성 시 덮어쓰기)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// DownloadImage - storage에서 이미지 다운로드
func (c *Client) DownloadImage(ctx context.Context, filePath string) ([]byte, error) {
	cfg := config.GetConfig()

	downloadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", cfg.SupabaseURL, bucket, filePath)
	log.Printf("📥 Downloading image from: %s", downloadURL)

	req, err := http.NewRequestWithContext(ctx, "GET", downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download image: status %d, body: %s", resp.StatusCode, string(body))
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	log.Printf("✅ Image downloaded: %d bytes", len(imageData))
	return imageData, nil
}

// PublicURL - storage 경로의 public URL
func PublicURL(filePath string) string {
	cfg := config.GetConfig()
	if cfg.SupabaseStorageBaseURL != "" {
		return cfg.SupabaseStorageBaseURL + filePath
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", cfg.SupabaseURL, bucket, filePath)
}
