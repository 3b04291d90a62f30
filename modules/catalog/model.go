package catalog

// Variant - 판매 단위 1개 (제품 + 성별 + 색상)
// (ProductNumber, GenderCode, ColorCode)가 배치 내 유일 키
type Variant struct {
	ProductNumber string `json:"productNumber"`
	GenderCode    string `json:"genderCode"`
	ColorCode     string `json:"colorCode"`
	ProductName   string `json:"productName"`
	ColorName     string `json:"colorName"`
	Prompt        string `json:"prompt,omitempty"` // FlatLayPrompt (store-builder 경로에서는 비어있을 수 있음)
}

// Group - 같은 ProductNumber를 공유하는 variant들 (입력 순서 유지)
// 첫 번째가 anchor, 나머지가 follower
type Group struct {
	ProductNumber string
	Variants      []Variant
}

// Anchor - 그룹의 기준 variant
func (g Group) Anchor() Variant {
	return g.Variants[0]
}

// IsAnchor - v가 그룹의 anchor인지 확인 (filename 키 기준)
func (g Group) IsAnchor(v Variant) bool {
	return DeriveFilename(g.Variants[0]) == DeriveFilename(v)
}
