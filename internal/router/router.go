// Package router is the conversation engine: it routes each user message
// to an assistant, runs the assistant's workflow, and records the turn.
//
// Routing is conservative. A conversation moves between assistants only on
// an explicit transfer request; a message that merely sounds like an HR or
// IT topic stays with the session's active assistant.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/arttech/assistant-gateway/internal/domain"
	"github.com/arttech/assistant-gateway/internal/storage"
)

// scopes are the retrieval collections each specialist searches.
var scopes = map[domain.Assistant][]string{
	domain.AssistantHR: {"hr-policies"},
	domain.AssistantIT: {"it-policies"},
}

// previewLength caps citation previews.
const previewLength = 200

// Config carries the router's tunables.
type Config struct {
	TopK          int
	HistoryBudget int
}

// TurnInput is one user message addressed to a session.
type TurnInput struct {
	SessionID string
	Message   string

	// Requested is the assistant named by the client. It is advisory; the
	// session's stored active assistant is authoritative.
	Requested domain.Assistant
}

// Router processes turns. At most one turn per session is in flight;
// concurrent turns on the same session are rejected with a conflict error.
type Router struct {
	store      storage.SessionStore
	retriever  domain.Retriever
	generator  domain.Generator
	classifier domain.Classifier
	logger     *slog.Logger
	topK       int
	budget     int

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a Router.
func New(store storage.SessionStore, retriever domain.Retriever, generator domain.Generator, classifier domain.Classifier, logger *slog.Logger, cfg Config) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	return &Router{
		store:      store,
		retriever:  retriever,
		generator:  generator,
		classifier: classifier,
		logger:     logger,
		topK:       topK,
		budget:     cfg.HistoryBudget,
		inflight:   make(map[string]struct{}),
	}
}

// Ready reports whether the router has all its collaborators.
func (r *Router) Ready() bool {
	return r.store != nil && r.retriever != nil && r.generator != nil && r.classifier != nil
}

// Chat processes one message and returns the full reply.
func (r *Router) Chat(ctx context.Context, in TurnInput) (*domain.TurnResult, error) {
	if err := r.acquire(in.SessionID); err != nil {
		return nil, err
	}
	defer r.release(in.SessionID)

	sess, err := r.store.Get(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	r.logAdvisory(ctx, in, sess)

	res, err := r.process(ctx, sess, in.Message, nil)
	if err != nil {
		return nil, err
	}
	if err := r.persist(ctx, sess, in.Message, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ChatStream processes one message, delivering the reply as stream events.
// The returned channel is closed by the router. On success the last event
// is a complete frame; on failure an error frame. If ctx is canceled the
// channel closes without a terminal event and the turn is not recorded.
func (r *Router) ChatStream(ctx context.Context, in TurnInput) (<-chan domain.StreamEvent, error) {
	if err := r.acquire(in.SessionID); err != nil {
		return nil, err
	}

	sess, err := r.store.Get(ctx, in.SessionID)
	if err != nil {
		r.release(in.SessionID)
		return nil, err
	}
	r.logAdvisory(ctx, in, sess)

	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)
		defer r.release(in.SessionID)

		emit := func(ev domain.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		res, err := r.process(ctx, sess, in.Message, emit)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			msg := err.Error()
			if apiErr, ok := err.(*domain.APIError); ok {
				msg = apiErr.Message
			}
			emit(domain.ErrorEvent(msg))
			return
		}
		if ctx.Err() != nil {
			return
		}

		// An abort from here on must not leave a half-recorded turn, so
		// persistence runs detached from the request context.
		if err := r.persist(context.WithoutCancel(ctx), sess, in.Message, res); err != nil {
			r.logger.Error("failed to record turn",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()))
			emit(domain.ErrorEvent("failed to record turn"))
			return
		}
		emit(domain.CompleteEvent(res))
	}()

	return events, nil
}

func (r *Router) acquire(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.inflight[sessionID]; busy {
		return domain.ErrConcurrentTurn(sessionID)
	}
	r.inflight[sessionID] = struct{}{}
	return nil
}

func (r *Router) release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, sessionID)
}

func (r *Router) logAdvisory(ctx context.Context, in TurnInput, sess *storage.Session) {
	if in.Requested != "" && in.Requested != sess.Active {
		r.logger.Debug("requested assistant differs from session state",
			slog.String("session_id", sess.ID),
			slog.String("requested", string(in.Requested)),
			slog.String("active", string(sess.Active)))
	}
}

// emitFunc delivers one stream event, returning false once the consumer
// is gone.
type emitFunc func(domain.StreamEvent) bool

func (r *Router) process(ctx context.Context, sess *storage.Session, message string, emit emitFunc) (*domain.TurnResult, error) {
	decision := MatchTransfer(message, sess.Active)

	if decision.Reason == domain.RouteExplicitRequest {
		var path []string
		if decision.Transfer {
			path = append(path, "route:transfer:"+string(decision.Target))
		} else {
			path = append(path, "route:no-transfer")
		}
		path = append(path, "greet:"+string(decision.Target))
		text := greetingFor(decision.Target, len(sess.History(decision.Target)))
		return r.fixedReply(ctx, decision.Target, text, path, false, emit)
	}

	path := []string{"route:no-transfer"}
	if sess.Active == domain.AssistantPersonal {
		return r.personalTurn(ctx, sess, message, path, emit)
	}
	return r.specialistTurn(ctx, sess, sess.Active, message, path, emit)
}

func (r *Router) personalTurn(ctx context.Context, sess *storage.Session, message string, path []string, emit emitFunc) (*domain.TurnResult, error) {
	intent, err := r.classifier.ClassifyPersonal(ctx, message)
	if err != nil {
		return nil, domain.ErrServer(fmt.Sprintf("classifying message: %v", err))
	}
	path = append(path, "classify:personal")

	switch intent {
	case domain.IntentGreeting:
		path = append(path, "greet:personal")
		return r.fixedReply(ctx, domain.AssistantPersonal, greetings[domain.AssistantPersonal], path, false, emit)

	case domain.IntentDomain:
		path = append(path, "suggest-transfer")
		return r.fixedReply(ctx, domain.AssistantPersonal, suggestTransferText, path, false, emit)

	case domain.IntentOutOfScope:
		path = append(path, "decline:personal")
		return r.fixedReply(ctx, domain.AssistantPersonal, outOfScopeText, path, false, emit)
	}

	// General chit-chat goes straight to the model, no retrieval.
	path = append(path, "generate:direct")
	answer, _, err := r.generate(ctx, domain.AssistantPersonal, message, sess.History(domain.AssistantPersonal), nil, false, emit)
	if err != nil {
		return nil, err
	}
	return &domain.TurnResult{
		Answer:       answer,
		Assistant:    domain.AssistantPersonal,
		WorkflowPath: path,
	}, nil
}

func (r *Router) specialistTurn(ctx context.Context, sess *storage.Session, assistant domain.Assistant, message string, path []string, emit emitFunc) (*domain.TurnResult, error) {
	intent, err := r.classifier.ClassifySpecialist(ctx, assistant, message)
	if err != nil {
		return nil, domain.ErrServer(fmt.Sprintf("classifying message: %v", err))
	}
	path = append(path, "classify:"+string(assistant))

	if intent == domain.IntentAmbiguous {
		path = append(path, "clarify:"+string(assistant))
		return r.fixedReply(ctx, assistant, clarifyTexts[assistant], path, true, emit)
	}

	passages, err := r.retriever.Search(ctx, message, scopes[assistant], r.topK)
	if err != nil {
		// Retrieval trouble degrades to a decline rather than failing
		// the turn.
		r.logger.Warn("retrieval unavailable",
			slog.String("session_id", sess.ID),
			slog.String("assistant", string(assistant)),
			slog.String("error", err.Error()))
		path = append(path, "retrieve:degraded", "decline:"+string(assistant))
		return r.fixedReply(ctx, assistant, degradedTexts[assistant], path, false, emit)
	}
	path = append(path, "retrieve:"+string(assistant))

	if len(passages) == 0 {
		path = append(path, "decline:"+string(assistant))
		return r.fixedReply(ctx, assistant, declineTexts[assistant], path, false, emit)
	}

	citations := citationsFor(passages)
	history := sess.History(assistant)

	path = append(path, "generate")
	answer, delivered, err := r.generate(ctx, assistant, message, history, passages, false, emit)
	if err != nil {
		return nil, err
	}

	if !ValidateAnswer(answer, passages) {
		path = append(path, "validate:fail")
		if delivered {
			// Tokens already reached the client; a retry would duplicate
			// them, so the turn fails instead.
			return nil, domain.ErrGenerationFailure("generated answer failed validation")
		}

		path = append(path, "generate:retry")
		answer, delivered, err = r.generate(ctx, assistant, message, history, passages, true, emit)
		if err != nil {
			return nil, err
		}
		if !ValidateAnswer(answer, passages) {
			path = append(path, "validate:fail")
			if delivered {
				return nil, domain.ErrGenerationFailure("generated answer failed validation")
			}
			path = append(path, "validate:fallback")
			return r.fixedReply(ctx, assistant, fallbackText, path, false, emit)
		}
	}
	path = append(path, "validate:pass")

	return &domain.TurnResult{
		Answer:       answer,
		Assistant:    assistant,
		Citations:    citations,
		WorkflowPath: path,
	}, nil
}

// generate runs the model, streaming fragments through emit when present.
// delivered reports whether any fragment reached the consumer.
func (r *Router) generate(ctx context.Context, assistant domain.Assistant, question string, history []domain.Turn, passages []domain.Passage, strict bool, emit emitFunc) (answer string, delivered bool, err error) {
	prompt := buildPrompt(assistant, question, history, passages, r.budget, strict)

	if emit == nil {
		answer, err = r.generator.Complete(ctx, prompt)
		return answer, false, err
	}

	chunks, err := r.generator.Stream(ctx, prompt)
	if err != nil {
		return "", false, err
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return b.String(), delivered, chunk.Err
		}
		if chunk.Content == "" {
			continue
		}
		if !emit(domain.TokenEvent(chunk.Content)) {
			return b.String(), delivered, ctx.Err()
		}
		delivered = true
		b.WriteString(chunk.Content)
	}
	if err := ctx.Err(); err != nil {
		return b.String(), delivered, err
	}
	return b.String(), delivered, nil
}

func (r *Router) fixedReply(ctx context.Context, assistant domain.Assistant, text string, path []string, needsClarification bool, emit emitFunc) (*domain.TurnResult, error) {
	if emit != nil {
		if !emit(domain.TokenEvent(text)) {
			return nil, ctx.Err()
		}
	}
	return &domain.TurnResult{
		Answer:             text,
		Assistant:          assistant,
		NeedsClarification: needsClarification,
		WorkflowPath:       path,
	}, nil
}

// persist records the user turn against the pre-routing assistant and the
// reply against the assistant that produced it, switching the session's
// active assistant when routing moved it.
func (r *Router) persist(ctx context.Context, sess *storage.Session, message string, res *domain.TurnResult) error {
	userTurn := domain.Turn{Sender: domain.SenderUser, Text: message}
	if err := r.store.AppendTurn(ctx, sess.ID, sess.Active, userTurn); err != nil {
		return fmt.Errorf("recording user turn: %w", err)
	}

	if res.Assistant != sess.Active {
		if err := r.store.SetActiveAssistant(ctx, sess.ID, res.Assistant); err != nil {
			return fmt.Errorf("switching active assistant: %w", err)
		}
	}

	replyTurn := domain.Turn{
		Sender:    domain.SenderAssistant,
		Text:      res.Answer,
		Citations: res.Citations,
	}
	if err := r.store.AppendTurn(ctx, sess.ID, res.Assistant, replyTurn); err != nil {
		return fmt.Errorf("recording reply turn: %w", err)
	}
	return nil
}

// citationsFor builds ranked citations from retrieval results. Passages
// arrive sorted by descending relevance, so rank is position plus one.
func citationsFor(passages []domain.Passage) []domain.Citation {
	citations := make([]domain.Citation, len(passages))
	for i, p := range passages {
		citations[i] = domain.Citation{
			Source:  p.Source,
			Page:    p.Page,
			Rank:    i + 1,
			Preview: preview(p.Content),
		}
	}
	return citations
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength])
}
