package domain

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want int
	}{
		{"invalid request", ErrInvalidRequest("bad"), http.StatusBadRequest},
		{"session not found", ErrSessionNotFound("abc"), http.StatusNotFound},
		{"concurrent turn", ErrConcurrentTurn("abc"), http.StatusConflict},
		{"retrieval unavailable", ErrRetrievalUnavailable("index down"), http.StatusServiceUnavailable},
		{"generation failure", ErrGenerationFailure("backend down"), http.StatusBadGateway},
		{"server", ErrServer("boom"), http.StatusInternalServerError},
		{"explicit override", ErrServer("boom").WithStatusCode(http.StatusTeapot), http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("handling chat: %w", ErrSessionNotFound("abc"))
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() = false for wrapped session_not_found")
	}
	if IsConflict(wrapped) {
		t.Error("IsConflict() = true for session_not_found")
	}
	if !IsConflict(ErrConcurrentTurn("abc")) {
		t.Error("IsConflict() = false for conflict error")
	}
}

func TestParseAssistant(t *testing.T) {
	for _, valid := range []string{"personal", "hr", "it"} {
		if _, ok := ParseAssistant(valid); !ok {
			t.Errorf("ParseAssistant(%q) not ok", valid)
		}
	}
	for _, invalid := range []string{"", "finance", "HR", "Personal"} {
		if _, ok := ParseAssistant(invalid); ok {
			t.Errorf("ParseAssistant(%q) ok, want rejection", invalid)
		}
	}
}
