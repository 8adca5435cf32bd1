package chat

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/torchlit/dungeongpt/pkg/state"
)

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant" // Dungeon Master
	ChatRoleSystem = "system"
)

// ChatMessage is a single message in the conversation with the
// narrator, in the role/content shape LLM chat APIs expect.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MaxOptions bounds the suggested-action list a narrator response may
// carry. Anything beyond this is dropped.
const MaxOptions = 5

// TurnRequest is one narrative request to the collaborator. The
// generation counter tags the request so the session can discard
// responses that arrive after a newer request was issued.
type TurnRequest struct {
	GameStateID uuid.UUID          `json:"gamestate_id"`
	State       *state.PromptState `json:"state"`
	Command     string             `json:"command"`
	History     []state.TurnRecord `json:"history,omitempty"`
	Brief       bool               `json:"brief,omitempty"` // movement commands want short narration
	WantHints   bool               `json:"want_hints,omitempty"`
	GameOver    bool               `json:"game_over,omitempty"` // finished sessions get a closing narration
	Generation  uint64             `json:"-"`
}

// Validate rejects requests the collaborator could not act on.
func (tr *TurnRequest) Validate() error {
	if tr.Command == "" {
		return fmt.Errorf("command cannot be empty")
	}
	if tr.State == nil {
		return fmt.Errorf("state snapshot cannot be nil")
	}
	return nil
}

// TurnResponse is the collaborator's answer: narrative text, a
// proposed delta for the merge engine, and optional suggested actions.
// The delta is untrusted and the options are advisory; the session
// strips options that were not requested.
type TurnResponse struct {
	Narrative  string       `json:"narrative"`
	Delta      *state.Delta `json:"state_delta,omitempty"`
	Options    []string     `json:"options,omitempty"`
	Generation uint64       `json:"-"`
}
