package generate

import (
	"fmt"
	"strings"

	"product-fairy-server/modules/catalog"
)

// genderWords - GenderCode → 프롬프트용 표현
var genderWords = map[string]string{
	"M": "men's",
	"W": "women's",
	"U": "unisex",
}

// BuildProductPrompt - photo style + 제품 정보로 프롬프트 합성
// 저장된 FlatLayPrompt가 없는 variant용 (store-builder 경로)
func BuildProductPrompt(v catalog.Variant, photoStyle string) string {
	gender := genderWords[v.GenderCode]

	productName := v.ProductName
	if productName == "" {
		productName = "product"
	}

	var desc string
	if v.ColorName != "" {
		desc = strings.TrimSpace(fmt.Sprintf("%s %s %s", v.ColorName, gender, productName))
	} else {
		desc = strings.TrimSpace(fmt.Sprintf("%s %s", gender, productName))
	}

	return photoStyle + ", " + desc
}

// basePrompt - variant의 기본 프롬프트 선택
// 저장된 prompt 우선, 없으면 photoStyle로 합성
func basePrompt(v catalog.Variant, photoStyle string) string {
	if v.Prompt != "" {
		return v.Prompt
	}
	return BuildProductPrompt(v, photoStyle)
}

// colorVariantPrompt - reference 이미지가 붙을 때 추가하는 색상 변경 지시
// anchor와 같은 디자인을 다른 색으로 다시 그리게 한다
func colorVariantPrompt(prompt, colorName string) string {
	return fmt.Sprintf("%s. Generate the exact same product design but in %s color.", prompt, colorName)
}
