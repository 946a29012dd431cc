package prompt

import (
	"fmt"
	"strings"
	"time"

	"chat-relay-be/pkg/rag/rank"
)

// GroundedBuilder assembles the prompt for a retrieval-augmented answer:
// retrieved chat messages first, then the literal question.
type GroundedBuilder struct {
	question string
	matches  []rank.SimilarMessage
}

func NewGroundedBuilder(question string, matches []rank.SimilarMessage) *GroundedBuilder {
	return &GroundedBuilder{
		question: question,
		matches:  matches,
	}
}

func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeChatContext(&prompt)
	b.writeTask(&prompt)
	b.writeUserQuestion(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeChatContext(prompt *strings.Builder) {
	if len(b.matches) == 0 {
		return
	}

	prompt.WriteString("<chat_context>\n")
	prompt.WriteString("The following chat messages were retrieved as the most relevant context:\n\n")
	for _, m := range b.matches {
		prompt.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.CreatedAt.Format(time.RFC3339), m.Sender, m.Text))
	}
	prompt.WriteString("</chat_context>\n\n")
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a helpful assistant answering a question about a chat history.\n")
	prompt.WriteString("Base your answer strictly on the messages in <chat_context>.\n")
	prompt.WriteString("If the context does not contain what is being asked, say so honestly.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeUserQuestion(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Answer:")
}
