// Package prompt builds the generation prompt from a question and its
// retrieved context. The canonical form is a sequence of role-tagged messages;
// both inference backends project from it, so chat and completion requests
// carry the same informational content.
package prompt

import "strings"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged segment of the canonical prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is the canonical intermediate form produced by the Assembler.
type Prompt struct {
	messages []Message
}

// Messages returns the role-tagged message sequence for chat-style backends.
func (p Prompt) Messages() []Message {
	out := make([]Message, len(p.messages))
	copy(out, p.messages)

	return out
}

// Text flattens the prompt into a single completion-style string with
// role prefixes and a terminal "Assistant:" cue so the model knows to
// start generating.
func (p Prompt) Text() string {
	var b strings.Builder

	for i, m := range p.messages {
		if i > 0 {
			b.WriteString("\n")
		}

		switch m.Role {
		case RoleSystem:
			b.WriteString("System: ")
		case RoleUser:
			b.WriteString("Human: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		}

		b.WriteString(m.Content)
	}

	text := b.String()
	if !strings.HasSuffix(text, "Assistant:") {
		text += "\nAssistant:"
	}

	return text
}

// Size returns the length of the completion projection, the measure the
// assembler budgets against.
func (p Prompt) Size() int {
	return len(p.Text())
}
