package prompts

import (
	"fmt"
	"strings"

	"github.com/torchlit/dungeongpt/pkg/chat"
)

// Builder constructs the chat messages for one narrator call using a
// fluent interface. It keeps prompt assembly out of the session loop.
type Builder struct {
	req      *chat.TurnRequest
	messages []chat.ChatMessage
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{
		messages: make([]chat.ChatMessage, 0),
	}
}

// WithRequest sets the turn request to build from.
func (b *Builder) WithRequest(req *chat.TurnRequest) *Builder {
	b.req = req
	return b
}

// Build constructs the final message array for the narrator.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.req == nil {
		return nil, fmt.Errorf("turn request is required")
	}
	if err := b.req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid turn request: %w", err)
	}

	b.messages = make([]chat.ChatMessage, 0)

	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}
	b.addHistory()
	b.addUserMessage()
	b.addFinalPrompt()

	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder
	sb.WriteString(BaseSystemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(DeltaSchemaPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(KnownItemsPrompt())

	statePrompt, err := StatePrompt(b.req.State)
	if err != nil {
		return err
	}
	sb.WriteString("\n\n")
	sb.WriteString(statePrompt)

	if b.req.WantHints {
		sb.WriteString("\n\n")
		sb.WriteString(HintsPrompt)
	}
	if b.req.Brief {
		sb.WriteString("\n\n")
		sb.WriteString(BriefPrompt)
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
	return nil
}

func (b *Builder) addHistory() {
	b.messages = append(b.messages, HistoryPrompt(b.req.History)...)
}

func (b *Builder) addUserMessage() {
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: b.req.Command,
	})
}

func (b *Builder) addFinalPrompt() {
	final := UserPostPrompt
	if b.req.GameOver {
		final = GameEndSystemPrompt
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: final,
	})
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(req *chat.TurnRequest) ([]chat.ChatMessage, error) {
	return New().
		WithRequest(req).
		Build()
}
