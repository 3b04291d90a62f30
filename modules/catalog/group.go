package catalog

// GroupByProductNumber - ProductNumber별로 그룹핑 (입력 순서 유지)
// 같은 제품의 색상 variant들이 연속 처리되도록 묶는다
func GroupByProductNumber(variants []Variant) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, v := range variants {
		if i, ok := index[v.ProductNumber]; ok {
			groups[i].Variants = append(groups[i].Variants, v)
			continue
		}
		index[v.ProductNumber] = len(groups)
		groups = append(groups, Group{
			ProductNumber: v.ProductNumber,
			Variants:      []Variant{v},
		})
	}

	return groups
}
