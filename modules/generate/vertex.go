package generate

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/vertexai/genai"

	"product-fairy-server/modules/common/config"
	vertexai "product-fairy-server/modules/common/vertexai"
)

// VertexGenerator - Vertex AI 기반 Generator 구현
// VERTEXAI_PROJECT가 설정되면 Gemini API 대신 사용한다 (서비스 계정 과금)
type VertexGenerator struct {
	client *genai.Client
	model  string
}

// NewVertexGenerator - Vertex AI 클라이언트 초기화
func NewVertexGenerator(ctx context.Context, cfg *config.Config) (*VertexGenerator, error) {
	client, err := vertexai.NewVertexAIClient(ctx, cfg.VertexProject, cfg.VertexLocation)
	if err != nil {
		return nil, err
	}
	return &VertexGenerator{client: client, model: cfg.GeminiModel}, nil
}

// referencePart - 참조 이미지를 Vertex AI part로 변환
// genai.ImageData는 포맷 문자열에 "image/"를 덧붙이므로 MIME 타입을
// 그대로 쓰려면 Blob을 직접 만들어야 한다
func referencePart(reference *ReferenceImage) genai.Part {
	return genai.Blob{
		MIMEType: reference.MIMEType,
		Data:     reference.Data,
	}
}

// Generate - 생성 호출 1회
func (g *VertexGenerator) Generate(ctx context.Context, prompt string, reference *ReferenceImage) (*Image, error) {
	var parts []genai.Part

	if reference != nil {
		parts = append(parts, referencePart(reference))
		log.Printf("📎 Added reference image (%d bytes)", len(reference.Data))
	}

	parts = append(parts, genai.Text(prompt))

	model := g.client.GenerativeModel(g.model)
	// Note: ResponseMIMEType should NOT be set for image generation with Gemini

	result, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("Vertex AI call failed: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				mimeType := blob.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return &Image{Data: blob.Data, MIMEType: mimeType}, nil
			}
		}
	}

	return nil, fmt.Errorf("no image data in response")
}
