package router

import (
	"testing"

	"github.com/arttech/assistant-gateway/internal/domain"
)

func TestMatchTransfer(t *testing.T) {
	tests := []struct {
		name         string
		message      string
		current      domain.Assistant
		wantTarget   domain.Assistant
		wantTransfer bool
		wantReason   domain.RouteReason
	}{
		{
			name:    "explicit hr request",
			message: "Connect me to HR please", current: domain.AssistantPersonal,
			wantTarget: domain.AssistantHR, wantTransfer: true, wantReason: domain.RouteExplicitRequest,
		},
		{
			name:    "explicit hr specialist by title",
			message: "I want to talk to the HR specialist", current: domain.AssistantPersonal,
			wantTarget: domain.AssistantHR, wantTransfer: true, wantReason: domain.RouteExplicitRequest,
		},
		{
			name:    "explicit it support",
			message: "transfer me to IT support", current: domain.AssistantHR,
			wantTarget: domain.AssistantIT, wantTransfer: true, wantReason: domain.RouteExplicitRequest,
		},
		{
			name:    "return to personal",
			message: "go back to the personal assistant", current: domain.AssistantIT,
			wantTarget: domain.AssistantPersonal, wantTransfer: true, wantReason: domain.RouteExplicitRequest,
		},
		{
			name:    "topic overlap is not a transfer",
			message: "How much sick leave do I have left?", current: domain.AssistantPersonal,
			wantTarget: domain.AssistantPersonal, wantTransfer: false, wantReason: domain.RouteDefaultPersona,
		},
		{
			name:    "naming a topic is not a transfer",
			message: "My VPN password expired", current: domain.AssistantPersonal,
			wantTarget: domain.AssistantPersonal, wantTransfer: false, wantReason: domain.RouteDefaultPersona,
		},
		{
			name:    "explicit request to current assistant",
			message: "connect me to HR", current: domain.AssistantHR,
			wantTarget: domain.AssistantHR, wantTransfer: false, wantReason: domain.RouteExplicitRequest,
		},
		{
			name:    "plain question stays put",
			message: "what is the password rotation policy?", current: domain.AssistantIT,
			wantTarget: domain.AssistantIT, wantTransfer: false, wantReason: domain.RouteDefaultPersona,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchTransfer(tt.message, tt.current)
			if got.Target != tt.wantTarget {
				t.Errorf("Target = %q, want %q", got.Target, tt.wantTarget)
			}
			if got.Transfer != tt.wantTransfer {
				t.Errorf("Transfer = %v, want %v", got.Transfer, tt.wantTransfer)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}
