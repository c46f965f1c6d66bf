package router

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/arttech/assistant-gateway/internal/domain"
)

var systemPrompts = map[domain.Assistant]string{
	domain.AssistantPersonal: "You are a friendly personal workplace assistant. Answer general questions conversationally and briefly. Do not answer HR or IT policy questions yourself.",
	domain.AssistantHR:       "You are an HR policy specialist. Answer only from the context documents provided. Cite each document you use with a [Source: <name>] tag. If the documents do not answer the question, say so.",
	domain.AssistantIT:       "You are an IT policy specialist. Answer only from the context documents provided. Cite each document you use with a [Source: <name>] tag. If the documents do not answer the question, say so.",
}

// strictSuffix tightens the instructions for the single validation retry.
const strictSuffix = " Your previous answer was rejected. You MUST ground every statement in the context documents and include a [Source: <name>] tag for each document used. Give a complete, substantive answer."

func buildPrompt(assistant domain.Assistant, question string, history []domain.Turn, passages []domain.Passage, budget int, strict bool) *domain.Prompt {
	system := systemPrompts[assistant]
	if strict {
		system += strictSuffix
	}

	messages := make([]domain.Message, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Sender == domain.SenderAssistant {
			role = "assistant"
		}
		messages = append(messages, domain.Message{Role: role, Content: turn.Text})
	}

	return &domain.Prompt{
		System:   system,
		History:  trimHistory(messages, budget),
		Question: question,
		Passages: passages,
	}
}

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// countTokens counts tokens with the cl100k encoding, falling back to a
// bytes/4 estimate if the encoder is unavailable.
func countTokens(s string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return len(s) / 4
	}
	ids, _, err := codec.Encode(s)
	if err != nil {
		return len(s) / 4
	}
	return len(ids)
}

// trimHistory keeps the most recent messages whose cumulative token count
// fits the budget. Order is preserved.
func trimHistory(messages []domain.Message, budget int) []domain.Message {
	if budget <= 0 || len(messages) == 0 {
		return messages
	}

	total := 0
	start := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		total += countTokens(messages[i].Content)
		if total > budget {
			break
		}
		start = i
	}
	return messages[start:]
}
