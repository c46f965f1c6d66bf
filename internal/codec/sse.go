// Package codec frames stream events as server-sent events and parses them
// back. Frames look like:
//
//	event: token
//	data: {"content":"Hel"}
//
// followed by a blank line. The decoder tolerates frames split across
// arbitrary read boundaries and skips malformed frames without dropping
// the stream.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// tokenPayload is the data body of a token frame.
type tokenPayload struct {
	Content string `json:"content"`
}

// completePayload is the data body of a complete frame.
type completePayload struct {
	Assistant          string            `json:"assistant"`
	Citations          []domain.Citation `json:"citations"`
	WorkflowPath       []string          `json:"workflow_path"`
	NeedsClarification bool              `json:"needs_clarification"`
}

// errorPayload is the data body of an error frame.
type errorPayload struct {
	Error string `json:"error"`
}

// Encoder writes stream events as SSE frames.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteEvent frames and writes one event. Callers streaming over HTTP
// should flush after each write.
func (e *Encoder) WriteEvent(ev domain.StreamEvent) error {
	var payload any
	switch ev.Type {
	case domain.EventToken:
		payload = tokenPayload{Content: ev.Token}
	case domain.EventComplete:
		payload = completePayload{
			Assistant:          string(ev.Assistant),
			Citations:          ev.Citations,
			WorkflowPath:       ev.WorkflowPath,
			NeedsClarification: ev.NeedsClarification,
		}
	case domain.EventError:
		payload = errorPayload{Error: ev.ErrorMessage}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event payload: %w", err)
	}

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return fmt.Errorf("writing event frame: %w", err)
	}
	return nil
}

// Decoder reads SSE frames from a byte stream and yields logical events.
type Decoder struct {
	r      io.Reader
	buf    []byte
	logger *slog.Logger
	eof    bool
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, logger: slog.Default()}
}

// Next returns the next complete event. It returns io.EOF when the stream
// ends. Malformed frames are logged and skipped.
func (d *Decoder) Next() (domain.StreamEvent, error) {
	for {
		frame, err := d.readFrame()
		if err != nil {
			return domain.StreamEvent{}, err
		}

		ev, ok := d.parseFrame(frame)
		if !ok {
			d.logger.Warn("skipping malformed stream frame", slog.String("frame", string(frame)))
			continue
		}
		return ev, nil
	}
}

// readFrame accumulates bytes until a frame delimiter (blank line) is seen.
func (d *Decoder) readFrame() ([]byte, error) {
	for {
		if i := bytes.Index(d.buf, []byte("\n\n")); i >= 0 {
			frame := d.buf[:i]
			d.buf = d.buf[i+2:]
			if len(bytes.TrimSpace(frame)) == 0 {
				continue
			}
			return frame, nil
		}

		if d.eof {
			if len(bytes.TrimSpace(d.buf)) > 0 {
				// Trailing bytes with no delimiter are a truncated frame.
				frame := d.buf
				d.buf = nil
				return frame, nil
			}
			return nil, io.EOF
		}

		chunk := make([]byte, 4096)
		n, err := d.r.Read(chunk)
		if n > 0 {
			d.buf = append(d.buf, chunk[:n]...)
		}
		if err == io.EOF {
			d.eof = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}
	}
}

func (d *Decoder) parseFrame(frame []byte) (domain.StreamEvent, bool) {
	var eventType, data string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	if eventType == "" || data == "" {
		return domain.StreamEvent{}, false
	}

	switch domain.EventType(eventType) {
	case domain.EventToken:
		var p tokenPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return domain.StreamEvent{}, false
		}
		return domain.TokenEvent(p.Content), true

	case domain.EventComplete:
		var p completePayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return domain.StreamEvent{}, false
		}
		return domain.StreamEvent{
			Type:               domain.EventComplete,
			Assistant:          domain.Assistant(p.Assistant),
			Citations:          p.Citations,
			WorkflowPath:       p.WorkflowPath,
			NeedsClarification: p.NeedsClarification,
		}, true

	case domain.EventError:
		var p errorPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return domain.StreamEvent{}, false
		}
		return domain.ErrorEvent(p.Error), true
	}

	return domain.StreamEvent{}, false
}
