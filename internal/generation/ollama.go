// Package generation adapts an Ollama-compatible generation backend to
// domain.Generator.
package generation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// OllamaGenerator implements domain.Generator against the Ollama HTTP API.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ domain.Generator = (*OllamaGenerator)(nil)

// Option customizes an OllamaGenerator.
type Option func(*OllamaGenerator)

// WithHTTPClient overrides the HTTP client, used by tests to inject a
// recorder transport.
func WithHTTPClient(client *http.Client) Option {
	return func(g *OllamaGenerator) {
		g.client = client
	}
}

// New creates an Ollama generation adapter.
func New(baseURL, model string, opts ...Option) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	g := &OllamaGenerator{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 300 * time.Second, // Longer timeout for streaming
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (g *OllamaGenerator) Complete(ctx context.Context, prompt *domain.Prompt) (string, error) {
	resp, err := g.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", domain.ErrGenerationFailure(fmt.Sprintf("decoding response: %v", err))
	}

	return genResp.Response, nil
}

// Stream issues a streaming generate call. Each NDJSON line becomes one
// chunk; the returned channel is closed when the backend finishes or the
// context is canceled.
func (g *OllamaGenerator) Stream(ctx context.Context, prompt *domain.Prompt) (<-chan domain.GenerationChunk, error) {
	resp, err := g.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan domain.GenerationChunk)
	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var genResp generateResponse
			if err := json.Unmarshal(line, &genResp); err != nil {
				select {
				case chunks <- domain.GenerationChunk{Err: domain.ErrGenerationFailure(fmt.Sprintf("decoding stream line: %v", err))}:
				case <-ctx.Done():
				}
				return
			}

			chunk := domain.GenerationChunk{Content: genResp.Response, Done: genResp.Done}
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
			if genResp.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case chunks <- domain.GenerationChunk{Err: domain.ErrGenerationFailure(fmt.Sprintf("reading stream: %v", err))}:
			case <-ctx.Done():
			}
		}
	}()

	return chunks, nil
}

func (g *OllamaGenerator) post(ctx context.Context, prompt *domain.Prompt, stream bool) (*http.Response, error) {
	reqBody := generateRequest{
		Model:  g.model,
		Prompt: renderPrompt(prompt),
		Stream: stream,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.ErrGenerationFailure(fmt.Sprintf("marshaling request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return nil, domain.ErrGenerationFailure(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.ErrGenerationFailure(fmt.Sprintf("calling generation backend: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, domain.ErrGenerationFailure(fmt.Sprintf("generation backend returned status %d", resp.StatusCode))
	}

	return resp, nil
}

// renderPrompt flattens the structured prompt into the single prompt string
// the generate API expects: system instructions, retrieved context, trimmed
// history, then the question.
func renderPrompt(p *domain.Prompt) string {
	var b strings.Builder

	if p.System != "" {
		b.WriteString(p.System)
		b.WriteString("\n\n")
	}

	if len(p.Passages) > 0 {
		b.WriteString("Context documents:\n")
		for _, passage := range p.Passages {
			fmt.Fprintf(&b, "[Source: %s, page %d]\n%s\n\n", passage.Source, passage.Page, passage.Content)
		}
	}

	for _, msg := range p.History {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}

	b.WriteString("user: ")
	b.WriteString(p.Question)
	b.WriteString("\nassistant:")
	return b.String()
}
