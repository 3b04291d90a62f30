package generate

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"

	"product-fairy-server/modules/common/config"
)

// GeminiGenerator - Gemini API 기반 Generator 구현
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator - Gemini API 클라이언트 초기화
func NewGeminiGenerator(ctx context.Context, cfg *config.Config) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Genai client: %w", err)
	}

	log.Printf("✅ Gemini client initialized (model: %s)", cfg.GeminiModel)
	return &GeminiGenerator{client: client, model: cfg.GeminiModel}, nil
}

// Generate - 생성 호출 1회
// reference가 있으면 이미지 part를 프롬프트 앞에 붙인다
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, reference *ReferenceImage) (*Image, error) {
	var parts []*genai.Part

	if reference != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: reference.MIMEType,
				Data:     reference.Data,
			},
		})
		log.Printf("📎 Added reference image (%d bytes)", len(reference.Data))
	}

	parts = append(parts, genai.NewPartFromText(prompt))

	content := &genai.Content{Parts: parts}

	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{
				AspectRatio: "1:1",
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			// 이미지는 InlineData로 반환됨
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return &Image{Data: part.InlineData.Data, MIMEType: mimeType}, nil
			}
		}
	}

	return nil, fmt.Errorf("no image data in response")
}
