// Package client reassembles a streamed reply from decoded events. It is
// the reference consumer for the wire protocol: token fragments accumulate
// in order, the terminal frame finalizes the reply, and aborting the
// context stops event application without surfacing an error.
package client

import (
	"context"
	"io"
	"strings"

	"github.com/arttech/assistant-gateway/internal/domain"
)

// Result is the reassembled reply.
type Result struct {
	Text               string
	Assistant          domain.Assistant
	Citations          []domain.Citation
	WorkflowPath       []string
	NeedsClarification bool

	// Completed is true when a complete frame was applied. Err carries the
	// message from an error frame. An aborted stream sets neither.
	Completed bool
	Err       string
}

// Collector consumes stream events and builds a Result.
type Collector struct {
	onToken    func(fragment string)
	onComplete func(res *Result)
	onError    func(message string)
}

// CollectorOption customizes a Collector.
type CollectorOption func(*Collector)

// OnToken registers a callback invoked for each applied token fragment.
func OnToken(fn func(fragment string)) CollectorOption {
	return func(c *Collector) { c.onToken = fn }
}

// OnComplete registers a callback invoked when a complete frame is applied.
func OnComplete(fn func(res *Result)) CollectorOption {
	return func(c *Collector) { c.onComplete = fn }
}

// OnError registers a callback invoked when an error frame is applied.
// It is not invoked for context cancellation.
func OnError(fn func(message string)) CollectorOption {
	return func(c *Collector) { c.onError = fn }
}

// New creates a Collector.
func New(opts ...CollectorOption) *Collector {
	c := &Collector{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EventSource yields decoded stream events, io.EOF at stream end.
type EventSource interface {
	Next() (domain.StreamEvent, error)
}

// Run consumes events until a terminal frame, stream end, or context
// cancellation. After cancellation no further events are applied and no
// error callback fires; the partial result is returned as-is.
func (c *Collector) Run(ctx context.Context, src EventSource) (*Result, error) {
	res := &Result{}
	var text strings.Builder

	for {
		if ctx.Err() != nil {
			res.Text = text.String()
			return res, nil
		}

		ev, err := src.Next()
		if err == io.EOF {
			res.Text = text.String()
			return res, nil
		}
		if err != nil {
			res.Text = text.String()
			return res, err
		}

		// The event may have raced with cancellation; check again before
		// applying it.
		if ctx.Err() != nil {
			res.Text = text.String()
			return res, nil
		}

		switch ev.Type {
		case domain.EventToken:
			text.WriteString(ev.Token)
			if c.onToken != nil {
				c.onToken(ev.Token)
			}

		case domain.EventComplete:
			res.Text = text.String()
			res.Assistant = ev.Assistant
			res.Citations = ev.Citations
			res.WorkflowPath = ev.WorkflowPath
			res.NeedsClarification = ev.NeedsClarification
			res.Completed = true
			if c.onComplete != nil {
				c.onComplete(res)
			}
			return res, nil

		case domain.EventError:
			// Accumulated text stands; the reply is marked failed.
			res.Text = text.String()
			res.Err = ev.ErrorMessage
			if c.onError != nil {
				c.onError(ev.ErrorMessage)
			}
			return res, nil
		}
	}
}
