package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RequiredColumns - CSV 필수 컬럼
var RequiredColumns = []string{
	"ProductNumber",
	"GenderCode",
	"ColorCode",
	"ProductName",
	"ColorName",
	"FlatLayPrompt",
}

// ValidationResult - CSV 검증 결과
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings"`
	RowCount int       `json:"rowCount"`
	Preview  []Preview `json:"preview"`
	Variants []Variant `json:"-"`
}

// Preview - 검증 응답에 포함되는 미리보기 행
type Preview struct {
	ProductNumber string `json:"productNumber"`
	ProductName   string `json:"productName"`
	GenderCode    string `json:"genderCode"`
	ColorName     string `json:"colorName"`
}

// ValidateCSV - CSV 스트림 파싱 + 검증
// productPrefix로 시작하지 않는 ProductNumber 행은 건너뛴다 (시트의 메모 행 등)
func ValidateCSV(r io.Reader, productPrefix string) (*ValidationResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // 행마다 컬럼 수 달라도 허용

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	result := &ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
		Preview:  []Preview{},
	}

	// 컬럼 인덱스 매핑
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")))
		return result, nil
	}

	field := func(row []string, col string) string {
		i := colIndex[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rowNum := 1 // 헤더가 1행
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rowNum++

		productNumber := field(row, "ProductNumber")
		if productNumber == "" || !strings.HasPrefix(productNumber, productPrefix) {
			continue
		}

		prompt := field(row, "FlatLayPrompt")
		if prompt == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Row %d: Missing FlatLayPrompt for %s", rowNum, productNumber))
			continue
		}

		gender := field(row, "GenderCode")
		if gender == "" {
			gender = "U"
		}

		result.Variants = append(result.Variants, Variant{
			ProductNumber: productNumber,
			GenderCode:    gender,
			ColorCode:     field(row, "ColorCode"),
			ProductName:   field(row, "ProductName"),
			ColorName:     field(row, "ColorName"),
			Prompt:        prompt,
		})
	}

	if len(result.Variants) == 0 {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"No valid products found. ProductNumber must start with %q and have a FlatLayPrompt.", productPrefix))
	}

	// 파일명 충돌은 생성 전에 잡아야 하는 입력 오류
	if err := CheckCollisions(result.Variants); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	result.Valid = len(result.Errors) == 0
	result.RowCount = len(result.Variants)

	for i, v := range result.Variants {
		if i >= 3 {
			break
		}
		result.Preview = append(result.Preview, Preview{
			ProductNumber: v.ProductNumber,
			ProductName:   v.ProductName,
			GenderCode:    v.GenderCode,
			ColorName:     v.ColorName,
		})
	}

	return result, nil
}
