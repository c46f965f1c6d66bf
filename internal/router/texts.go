package router

import "github.com/arttech/assistant-gateway/internal/domain"

// Fixed reply texts. These are emitted as a single token frame on the
// streaming path so the wire shape is uniform across reply kinds.

var greetings = map[domain.Assistant]string{
	domain.AssistantPersonal: "Hello! I'm your personal assistant. I can chat with you directly, or connect you to our HR or IT specialists. How can I help you today?",
	domain.AssistantHR:       "Hi, this is the HR specialist. I can answer questions about leave, benefits, and other HR policies. What would you like to know?",
	domain.AssistantIT:       "Hello, IT support here. I can help with questions about our security, device, and access policies. What do you need?",
}

var resumeLines = map[domain.Assistant]string{
	domain.AssistantPersonal: "You're back with your personal assistant. How else can I help?",
	domain.AssistantHR:       "You're back with the HR specialist. Where were we?",
	domain.AssistantIT:       "You're back with IT support. What else can I help with?",
}

var clarifyTexts = map[domain.Assistant]string{
	domain.AssistantHR: "Happy to help with that. Could you be more specific? For example, are you asking about sick leave, annual leave, or parental leave?",
	domain.AssistantIT: "I can help with that. Could you narrow it down? For example, is this about password rules, VPN access, or a device request?",
}

var declineTexts = map[domain.Assistant]string{
	domain.AssistantHR: "I couldn't find anything in our HR policies that covers that, so I'd rather not guess. If it's not an HR topic, you can ask to go back to the personal assistant.",
	domain.AssistantIT: "I couldn't find anything in our IT policies that covers that, so I'd rather not guess. If it's not an IT topic, you can ask to go back to the personal assistant.",
}

var degradedTexts = map[domain.Assistant]string{
	domain.AssistantHR: "I'm sorry, I can't look up HR policies right now. Please try again in a moment.",
	domain.AssistantIT: "I'm sorry, I can't look up IT policies right now. Please try again in a moment.",
}

const suggestTransferText = "That sounds like a question for one of our specialists. Say \"connect me to HR\" for HR and leave policies, or \"connect me to IT\" for IT and security policies."

const outOfScopeText = "I'm sorry, that's outside what I can help with here. I can chat about general topics or connect you to our HR or IT specialists."

const fallbackText = "I'm sorry, I wasn't able to put together a reliable answer from our policy documents. Could you rephrase the question, or ask to go back to the personal assistant?"

// greetingFor returns the first-contact greeting or the resume line,
// depending on whether the assistant has spoken in this session before.
func greetingFor(assistant domain.Assistant, historyLen int) string {
	if historyLen == 0 {
		return greetings[assistant]
	}
	return resumeLines[assistant]
}
