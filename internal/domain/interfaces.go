package domain

import "context"

// Retriever searches an indexed corpus for passages relevant to a query.
// Scope restricts the search to named collections. An empty result slice
// means no relevant passages; it is not an error.
type Retriever interface {
	Search(ctx context.Context, query string, scope []string, topK int) ([]Passage, error)
}

// GenerationChunk is one fragment from a streaming generation backend.
// Done marks the final chunk; Err carries a mid-stream failure.
type GenerationChunk struct {
	Content string
	Done    bool
	Err     error
}

// Generator produces model completions for assembled prompts.
// Stream returns a channel closed by the producer when generation ends or
// the context is canceled.
type Generator interface {
	Complete(ctx context.Context, prompt *Prompt) (string, error)
	Stream(ctx context.Context, prompt *Prompt) (<-chan GenerationChunk, error)
}

// PersonalIntent classifies a message addressed to the personal assistant.
type PersonalIntent string

const (
	IntentGreeting   PersonalIntent = "greeting"
	IntentGeneral    PersonalIntent = "general"
	IntentDomain     PersonalIntent = "domain"
	IntentOutOfScope PersonalIntent = "out_of_scope"
)

// SpecialistIntent classifies a message addressed to a specialist assistant.
type SpecialistIntent string

const (
	IntentQuery     SpecialistIntent = "query"
	IntentAmbiguous SpecialistIntent = "ambiguous"
)

// Classifier judges user messages so the router can pick a workflow branch.
// Implementations may be heuristic or model-backed.
type Classifier interface {
	ClassifyPersonal(ctx context.Context, message string) (PersonalIntent, error)
	ClassifySpecialist(ctx context.Context, assistant Assistant, message string) (SpecialistIntent, error)
}
