package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log"

	_ "image/png" // PNG 디코더 등록

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// jpegQuality - 저장 이미지 JPEG 품질
const jpegQuality = 90

// ToJPEG - 생성 이미지를 JPEG로 변환
// 이미 JPEG이면 원본 그대로, 디코딩에 실패하면 원본을 그대로 반환한다
// (다운로드 자체를 막지 않기 위한 degradation)
func ToJPEG(data []byte, mimeType string) ([]byte, string) {
	if mimeType == "image/jpeg" {
		return data, mimeType
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("⚠️  Failed to decode %s image, keeping original: %v", mimeType, err)
		return data, mimeType
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		log.Printf("⚠️  Failed to encode JPEG, keeping original %s: %v", format, err)
		return data, mimeType
	}

	log.Printf("🔄 Converted %s to JPEG: %d bytes → %d bytes", format, len(data), buf.Len())
	return buf.Bytes(), "image/jpeg"
}

// ToWebP - 이미지 바이너리를 WebP로 변환 (preview용)
func ToWebP(data []byte, quality float32) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()

	log.Printf("✅ Converted to WebP: %d bytes → %d bytes (%.1f%% reduction)",
		len(data), len(webpData),
		float64(len(data)-len(webpData))/float64(len(data))*100)

	return webpData, nil
}
