package generate

import "strings"

// ErrorClass - upstream 실패 분류
// Transient는 backoff 후 재시도, Permanent는 즉시 terminal 실패
type ErrorClass int

const (
	ClassTransient ErrorClass = iota
	ClassPermanent
)

func (c ErrorClass) String() string {
	if c == ClassPermanent {
		return "permanent"
	}
	return "transient"
}

// permanentPatterns - 재시도해도 소용없는 에러 패턴
// content policy 거부, 잘못된 요청 등
var permanentPatterns = []string{
	"safety",
	"blocked",
	"prohibited",
	"content policy",
	"invalid argument",
	"invalidargument",
	"400",
	"malformed",
}

// Classify - 에러를 transient/permanent로 분류
// Gemini API 에러 메시지 패턴 기반. 모르는 에러는 transient로 취급해서
// 재시도 기회를 준다 (429/5xx/timeout이 대부분이므로)
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassTransient
	}

	errStr := strings.ToLower(err.Error())

	// 429는 문구에 "blocked" 등이 섞여도 무조건 transient
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "resource exhausted") {
		return ClassTransient
	}

	for _, pattern := range permanentPatterns {
		if strings.Contains(errStr, pattern) {
			return ClassPermanent
		}
	}

	return ClassTransient
}
