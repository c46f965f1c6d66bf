package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/arttech/assistant-gateway/internal/domain"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	sess, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Create() returned empty session ID")
	}
	if sess.Active != domain.AssistantPersonal {
		t.Errorf("new session active = %q, want personal", sess.Active)
	}

	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("Get() ID = %q, want %q", got.ID, sess.ID)
	}
	if got.MessageCount() != 0 {
		t.Errorf("new session message count = %d, want 0", got.MessageCount())
	}
}

func TestGetNotFound(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "nope")
	if !domain.IsNotFound(err) {
		t.Errorf("Get() error = %v, want session_not_found", err)
	}
}

func TestAppendOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	sess, _ := s.Create(ctx)

	for i := 0; i < 5; i++ {
		turn := domain.Turn{Sender: domain.SenderUser, Text: fmt.Sprintf("msg-%d", i)}
		if err := s.AppendTurn(ctx, sess.ID, domain.AssistantHR, turn); err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	got, _ := s.Get(ctx, sess.ID)
	turns := got.History(domain.AssistantHR)
	if len(turns) != 5 {
		t.Fatalf("history length = %d, want 5", len(turns))
	}
	for i, turn := range turns {
		want := fmt.Sprintf("msg-%d", i)
		if turn.Text != want {
			t.Errorf("turn[%d].Text = %q, want %q", i, turn.Text, want)
		}
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := New()
	ctx := context.Background()
	sess, _ := s.Create(ctx)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			turn := domain.Turn{Sender: domain.SenderUser, Text: fmt.Sprintf("m%d", i)}
			if err := s.AppendTurn(ctx, sess.ID, domain.AssistantIT, turn); err != nil {
				t.Errorf("AppendTurn() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.Get(ctx, sess.ID)
	if len(got.History(domain.AssistantIT)) != n {
		t.Errorf("history length = %d, want %d", len(got.History(domain.AssistantIT)), n)
	}
}

func TestSetActiveAssistant(t *testing.T) {
	s := New()
	ctx := context.Background()
	sess, _ := s.Create(ctx)

	if err := s.SetActiveAssistant(ctx, sess.ID, domain.AssistantHR); err != nil {
		t.Fatalf("SetActiveAssistant() error = %v", err)
	}

	got, _ := s.Get(ctx, sess.ID)
	if got.Active != domain.AssistantHR {
		t.Errorf("active = %q, want hr", got.Active)
	}

	if err := s.SetActiveAssistant(ctx, "nope", domain.AssistantIT); !domain.IsNotFound(err) {
		t.Errorf("SetActiveAssistant(unknown) error = %v, want session_not_found", err)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	sess, _ := s.Create(ctx)

	s.AppendTurn(ctx, sess.ID, domain.AssistantPersonal, domain.Turn{Sender: domain.SenderUser, Text: "hello"})

	snap, _ := s.Get(ctx, sess.ID)
	snap.Histories[domain.AssistantPersonal][0].Text = "mutated"
	snap.Active = domain.AssistantIT

	got, _ := s.Get(ctx, sess.ID)
	if got.History(domain.AssistantPersonal)[0].Text != "hello" {
		t.Error("mutating a snapshot changed stored state")
	}
	if got.Active != domain.AssistantPersonal {
		t.Error("mutating a snapshot changed stored active assistant")
	}
}
