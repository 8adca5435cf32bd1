package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/torchlit/dungeongpt/pkg/chat"
	"github.com/torchlit/dungeongpt/pkg/state"
)

func TestParseTurnResponse(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantNarrative string
		wantDelta     bool
		wantOptions   int
	}{
		{
			name:          "clean json",
			raw:           `{"narrative": "You enter the hall.", "state_delta": {"player": {"health": 20}}}`,
			wantNarrative: "You enter the hall.",
			wantDelta:     true,
		},
		{
			name:          "code fenced",
			raw:           "```json\n{\"narrative\": \"The door creaks open.\"}\n```",
			wantNarrative: "The door creaks open.",
		},
		{
			name:          "prose wrapped",
			raw:           `Here is my response: {"narrative": "A goblin snarls.", "options": ["attack", "flee"]} Hope that helps!`,
			wantNarrative: "A goblin snarls.",
			wantOptions:   2,
		},
		{
			name:          "plain prose fallback",
			raw:           "You feel a cold draft from the north.",
			wantNarrative: "You feel a cold draft from the north.",
		},
		{
			name:          "braces but not the schema",
			raw:           `{"message": "wrong shape"}`,
			wantNarrative: `{"message": "wrong shape"}`,
		},
		{
			name:          "malformed json",
			raw:           `{"narrative": "truncated`,
			wantNarrative: `{"narrative": "truncated`,
		},
		{
			name:          "surrounding whitespace",
			raw:           "\n\n  {\"narrative\": \"Dust settles.\"}  \n",
			wantNarrative: "Dust settles.",
		},
	}

	for _, tt := range tests {
		resp := ParseTurnResponse(tt.raw, nil)
		if resp.Narrative != tt.wantNarrative {
			t.Errorf("%s: narrative %q, want %q", tt.name, resp.Narrative, tt.wantNarrative)
		}
		if (resp.Delta != nil) != tt.wantDelta {
			t.Errorf("%s: delta presence %v, want %v", tt.name, resp.Delta != nil, tt.wantDelta)
		}
		if len(resp.Options) != tt.wantOptions {
			t.Errorf("%s: %d options, want %d", tt.name, len(resp.Options), tt.wantOptions)
		}
	}
}

func TestParseTurnResponse_TruncatesOptions(t *testing.T) {
	raw := `{"narrative": "n", "options": ["a","b","c","d","e","f","g"]}`
	resp := ParseTurnResponse(raw, nil)
	if len(resp.Options) != chat.MaxOptions {
		t.Errorf("%d options survived, want %d", len(resp.Options), chat.MaxOptions)
	}
}

func turnRequest(t *testing.T) *chat.TurnRequest {
	t.Helper()
	gs, err := state.NewGameState(1337, 6, 6, "fighter")
	if err != nil {
		t.Fatalf("NewGameState failed: %v", err)
	}
	return &chat.TurnRequest{
		GameStateID: gs.ID,
		State:       state.ToPromptState(gs),
		Command:     "look around",
		Generation:  7,
	}
}

func completionsHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header %q", got)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body did not decode: %v", err)
		}
		if len(req.Messages) == 0 || req.Messages[0].Role != chat.ChatRoleSystem {
			t.Errorf("request messages malformed: %+v", req.Messages)
		}

		resp := map[string]any{
			"id": "chatcmpl-test",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestOpenAINarrator_GenerateTurn(t *testing.T) {
	content := `{"narrative": "Torchlight dances.", "state_delta": {"player": {"xp_gained": 10}}}`
	srv := httptest.NewServer(completionsHandler(t, content))
	defer srv.Close()

	n := NewOpenAINarrator(srv.URL, "test-key", "test-model", nil)
	resp, err := n.GenerateTurn(context.Background(), turnRequest(t))
	if err != nil {
		t.Fatalf("GenerateTurn failed: %v", err)
	}
	if resp.Narrative != "Torchlight dances." {
		t.Errorf("narrative %q", resp.Narrative)
	}
	if resp.Delta == nil || resp.Delta.Player == nil || resp.Delta.Player.XPGained == nil {
		t.Fatal("delta not parsed")
	}
	if *resp.Delta.Player.XPGained != 10 {
		t.Errorf("xp_gained = %d", *resp.Delta.Player.XPGained)
	}
	if resp.Generation != 7 {
		t.Errorf("generation %d not propagated", resp.Generation)
	}
}

func TestOpenAINarrator_GenerateTurn_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewOpenAINarrator(srv.URL, "test-key", "test-model", nil)
	if _, err := n.GenerateTurn(context.Background(), turnRequest(t)); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestOpenAINarrator_GenerateTurn_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer srv.Close()

	n := NewOpenAINarrator(srv.URL, "test-key", "test-model", nil)
	if _, err := n.GenerateTurn(context.Background(), turnRequest(t)); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAINarrator_IsModelReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}, {"id": "gpt-4o"}]}`))
	}))
	defer srv.Close()

	n := NewOpenAINarrator(srv.URL, "test-key", "gpt-4o-mini", nil)

	ready, err := n.IsModelReady(context.Background(), "gpt-4o-mini")
	if err != nil {
		t.Fatalf("IsModelReady failed: %v", err)
	}
	if !ready {
		t.Error("listed model reported not ready")
	}

	ready, err = n.IsModelReady(context.Background(), "missing-model")
	if err != nil {
		t.Fatalf("IsModelReady failed: %v", err)
	}
	if ready {
		t.Error("unlisted model reported ready")
	}
}

func TestMockNarrator_Overrides(t *testing.T) {
	m := NewMockNarrator()

	resp, err := m.GenerateTurn(context.Background(), turnRequest(t))
	if err != nil {
		t.Fatalf("default GenerateTurn failed: %v", err)
	}
	if resp.Narrative == "" {
		t.Error("default narrative empty")
	}
	if resp.Generation != 7 {
		t.Errorf("generation %d not propagated", resp.Generation)
	}

	m.SetGenerateTurnError(errors.New("narrator offline"))
	if _, err := m.GenerateTurn(context.Background(), turnRequest(t)); err == nil {
		t.Error("expected injected error")
	}

	m.GenerateTurnFunc = nil
	m.Reset()
	if _, err := m.GenerateTurn(context.Background(), turnRequest(t)); err != nil {
		t.Errorf("clearing the override did not recover: %v", err)
	}
	if len(m.GenerateTurnCalls) != 1 {
		t.Errorf("%d calls tracked after reset, want 1", len(m.GenerateTurnCalls))
	}
}
