package router

import (
	"strings"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// Transfer happens only on an explicit request naming a target assistant.
// Topical overlap never moves a conversation: "how much sick leave do I
// have" stays wherever the session already is.

// transferVerbs are the controlled phrases that express a transfer request.
// Each is checked against the normalized message followed by an alias.
var transferVerbs = []string{
	"connect me to",
	"connect me with",
	"transfer me to",
	"transfer to",
	"switch to",
	"switch me to",
	"take me to",
	"talk to",
	"talk with",
	"speak to",
	"speak with",
	"go to",
	"go back to",
	"back to",
	"i want to talk to",
	"i want to speak to",
	"can i talk to",
	"can i speak to",
}

// assistantAliases map spoken names to assistants.
var assistantAliases = map[domain.Assistant][]string{
	domain.AssistantHR: {
		"hr", "human resources", "the hr specialist", "hr specialist",
		"the hr agent", "hr agent", "the hr assistant", "hr assistant",
	},
	domain.AssistantIT: {
		"it", "it support", "tech support", "the it specialist",
		"it specialist", "the it agent", "it agent", "the it assistant",
		"it assistant",
	},
	domain.AssistantPersonal: {
		"personal", "the personal assistant", "personal assistant",
		"my personal assistant",
	},
}

// MatchTransfer inspects a user message for an explicit transfer request.
// When none is found the decision keeps the current assistant.
func MatchTransfer(message string, current domain.Assistant) domain.RouteDecision {
	normalized := normalizeTransfer(message)

	for target, aliases := range assistantAliases {
		for _, alias := range aliases {
			for _, verb := range transferVerbs {
				if containsPhrase(normalized, verb+" "+alias) {
					return domain.RouteDecision{
						Target:   target,
						Transfer: target != current,
						Reason:   domain.RouteExplicitRequest,
					}
				}
			}
		}
	}

	return domain.RouteDecision{
		Target:   current,
		Transfer: false,
		Reason:   domain.RouteDefaultPersona,
	}
}

// fillerWords are dropped before matching so "connect me to the HR
// specialist please" matches "connect me to the hr specialist".
var fillerWords = map[string]struct{}{
	"please": {}, "now": {}, "our": {}, "your": {},
}

func normalizeTransfer(message string) string {
	lowered := strings.ToLower(message)
	lowered = strings.Map(func(r rune) rune {
		switch r {
		case '?', '!', '.', ',', ';', ':', '\'', '"':
			return ' '
		}
		return r
	}, lowered)

	fields := strings.Fields(lowered)
	kept := fields[:0]
	for _, f := range fields {
		if _, skip := fillerWords[f]; skip {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// containsPhrase matches the phrase on word boundaries.
func containsPhrase(haystack, phrase string) bool {
	return strings.Contains(" "+haystack+" ", " "+phrase+" ")
}
