package prompt

import (
	"strings"

	"rag-assistant-be/pkg/llm"
	"rag-assistant-be/pkg/rag/index"
)

// ContextualBuilder assembles the completion request: persona directive,
// windowed history, optional grounding context, and the new question.
type ContextualBuilder struct {
	history   []llm.Message
	question  string
	grounding []index.ScoredSegment
}

func NewContextualBuilder(history []llm.Message, question string, grounding []index.ScoredSegment) *ContextualBuilder {
	return &ContextualBuilder{
		history:   history,
		question:  question,
		grounding: grounding,
	}
}

// Build returns the full message list for the completion model. When
// grounding segments are present the user message wraps them in a
// reference block so the model can cite them; otherwise the question is
// passed through untouched.
func (b *ContextualBuilder) Build() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+1)
	messages = append(messages, b.history...)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: b.buildUserMessage(),
	})
	return messages
}

func (b *ContextualBuilder) buildUserMessage() string {
	if len(b.grounding) == 0 {
		return b.question
	}

	var prompt strings.Builder

	prompt.WriteString("<reference_material>\n")
	for i, seg := range b.grounding {
		if i > 0 {
			prompt.WriteString("\n---\n")
		}
		prompt.WriteString(seg.Segment.Text)
	}
	prompt.WriteString("\n</reference_material>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("Answer using the reference material above when it is relevant.\n")
	prompt.WriteString("Cite information from the material precisely.\n")
	prompt.WriteString("If the material does not contain what is being asked, say so and answer from general knowledge.\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</user_question>")

	return prompt.String()
}
