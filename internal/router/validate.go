package router

import (
	"strings"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// minAnswerLength is the substantiveness floor for a generated answer.
const minAnswerLength = 40

// ValidateAnswer judges a generated answer before it is accepted. Grounded
// answers must reference at least one of the retrieved sources, either with
// an explicit [Source: ...] tag or by naming the document.
func ValidateAnswer(answer string, passages []domain.Passage) bool {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return false
	}
	if len(trimmed) < minAnswerLength {
		return false
	}

	if len(passages) == 0 {
		return true
	}

	if strings.Contains(trimmed, "[Source:") {
		return true
	}
	lowered := strings.ToLower(trimmed)
	for _, p := range passages {
		if strings.Contains(lowered, strings.ToLower(p.Source)) {
			return true
		}
	}
	return false
}
