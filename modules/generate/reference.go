package generate

import (
	"log"

	"product-fairy-server/modules/catalog"
)

// ResolveReference - follower variant의 참조 이미지 결정
// anchor(그룹의 첫 번째 variant)는 참조 없이 생성하고,
// follower는 anchor의 생성 결과를 참조로 받아 색상만 바꾼다.
// anchor 이미지가 없으면(생성 실패) 참조 없이 진행 - run을 멈추지 않는다.
func ResolveReference(group catalog.Group, v catalog.Variant, produced map[string]*Image) *ReferenceImage {
	if group.IsAnchor(v) {
		return nil
	}

	anchorFilename := catalog.DeriveFilename(group.Anchor())
	anchorImage, ok := produced[anchorFilename]
	if !ok || anchorImage == nil {
		log.Printf("⚠️  No reference image for %s (anchor %s not generated), proceeding without reference",
			catalog.DeriveFilename(v), anchorFilename)
		return nil
	}

	return &ReferenceImage{
		Data:     anchorImage.Data,
		MIMEType: anchorImage.MIMEType,
	}
}
