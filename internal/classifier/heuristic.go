// Package classifier provides a vocabulary-based implementation of
// domain.Classifier. It is deterministic so routing behavior is stable
// without a model call per message.
package classifier

import (
	"context"
	"strings"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// Heuristic classifies messages by keyword vocabulary.
type Heuristic struct{}

var _ domain.Classifier = (*Heuristic)(nil)

// New creates a heuristic classifier.
func New() *Heuristic {
	return &Heuristic{}
}

var greetingWords = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"greetings", "howdy",
}

// domainTerms mark questions that belong to a specialist. The personal
// assistant never answers these itself; it suggests asking for a transfer.
var domainTerms = []string{
	"leave", "vacation", "sick day", "maternity", "paternity", "benefits",
	"payroll", "salary", "hr policy", "resignation", "probation",
	"password", "vpn", "laptop", "wifi", "security policy", "phishing",
	"two-factor", "2fa", "software install", "access request", "it policy",
}

// outOfScopeMarkers flag clearly external topics.
var outOfScopeMarkers = []string{
	"weather", "president", "capital of", "stock price", "sports score",
	"joke", "recipe", "movie", "lottery",
}

// categoryTerms are bare policy categories. A question naming only a
// category, with no qualifier that narrows it, is ambiguous and earns a
// clarification request.
var categoryTerms = map[domain.Assistant][]string{
	domain.AssistantHR: {"leave", "benefits", "policy", "time off"},
	domain.AssistantIT: {"password", "vpn", "access", "device", "policy"},
}

// qualifierTerms narrow a category question enough to retrieve against.
var qualifierTerms = []string{
	"sick", "annual", "maternity", "paternity", "unpaid", "parental",
	"carry over", "carryover", "accrue", "how many", "how long", "days",
	"rotate", "reset", "expire", "length", "remote", "install", "request",
	"laptop", "phone", "encryption", "minimum",
}

func (h *Heuristic) ClassifyPersonal(ctx context.Context, message string) (domain.PersonalIntent, error) {
	normalized := normalize(message)

	for _, marker := range outOfScopeMarkers {
		if containsPhrase(normalized, marker) {
			return domain.IntentOutOfScope, nil
		}
	}
	for _, term := range domainTerms {
		if containsPhrase(normalized, term) {
			return domain.IntentDomain, nil
		}
	}
	for _, word := range greetingWords {
		if containsPhrase(normalized, word) {
			return domain.IntentGreeting, nil
		}
	}
	return domain.IntentGeneral, nil
}

func (h *Heuristic) ClassifySpecialist(ctx context.Context, assistant domain.Assistant, message string) (domain.SpecialistIntent, error) {
	normalized := normalize(message)

	hasCategory := false
	for _, term := range categoryTerms[assistant] {
		if containsPhrase(normalized, term) {
			hasCategory = true
			break
		}
	}
	if !hasCategory {
		return domain.IntentQuery, nil
	}

	for _, term := range qualifierTerms {
		if containsPhrase(normalized, term) {
			return domain.IntentQuery, nil
		}
	}
	return domain.IntentAmbiguous, nil
}

func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '?', '!', '.', ',', ';', ':':
			return ' '
		}
		return r
	}, s)
}

// containsPhrase matches whole words so "hit" does not match "hi".
func containsPhrase(haystack, phrase string) bool {
	padded := " " + strings.Join(strings.Fields(haystack), " ") + " "
	return strings.Contains(padded, " "+phrase+" ")
}
