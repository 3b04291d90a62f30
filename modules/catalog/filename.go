package catalog

import (
	"fmt"
	"strings"
)

// ImageExtension - 생성 이미지 확장자 (고정)
const ImageExtension = ".jpg"

// DeriveFilename - variant의 canonical 파일명 생성
// ProductNumber에서 영숫자 외 문자 제거 + GenderCode + ColorCode
// 예: CNC-P1000 / M / NAV → CNCP1000MNAV.jpg
func DeriveFilename(v Variant) string {
	gender := v.GenderCode
	if gender == "" {
		gender = "U" // 성별 미지정은 Unisex
	}

	return stripNonAlnum(v.ProductNumber) + gender + v.ColorCode + ImageExtension
}

// stripNonAlnum - 영숫자가 아닌 문자 제거
func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CheckCollisions - 파일명 충돌 검사
// 서로 다른 variant가 같은 파일명을 만들면 데이터 오류 → 생성 시작 전에 거부
func CheckCollisions(variants []Variant) error {
	seen := make(map[string]Variant, len(variants))
	for _, v := range variants {
		filename := DeriveFilename(v)
		if prev, ok := seen[filename]; ok {
			return fmt.Errorf("filename collision: %q and %q both derive %s",
				prev.ProductNumber+"/"+prev.GenderCode+"/"+prev.ColorCode,
				v.ProductNumber+"/"+v.GenderCode+"/"+v.ColorCode,
				filename)
		}
		seen[filename] = v
	}
	return nil
}
