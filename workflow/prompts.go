package workflow

import (
	"fmt"
	"strings"

	"github.com/poiesic/doctalk/core"
)

// RefusalPhrase is the fixed answer the generator must give when the
// retrieved context does not contain the answer.
const RefusalPhrase = "I cannot find this in the documents."

const expansionInstruction = "Rewrite the user's latest question as a standalone search query. " +
	"Use the conversation so far to resolve pronouns and references. " +
	"Reply with the query only, no commentary."

// groundingPrompt builds the system prompt that pins the generator to
// the retrieved context.
func groundingPrompt(contexts []string) string {
	return fmt.Sprintf(
		"You are a professional Document Assistant. "+
			"Answer the question ONLY using the provided context. "+
			"If the answer is not in the context, say '%s'"+
			"\n\nCONTEXT:\n%s",
		RefusalPhrase,
		strings.Join(contexts, "\n\n"),
	)
}

// expansionMessages builds the transcript for the query-expansion call.
func expansionMessages(history []core.Message, question string) []core.Message {
	messages := make([]core.Message, 0, len(history)+2)
	messages = append(messages, core.Message{
		Role:     core.RoleSystem,
		Contents: expansionInstruction,
	})
	messages = append(messages, history...)
	messages = append(messages, core.Message{
		Role:     core.RoleHuman,
		Contents: question,
	})
	return messages
}

// generationMessages builds the transcript for the grounded answer call.
func generationMessages(contexts []string, history []core.Message, question string) []core.Message {
	messages := make([]core.Message, 0, len(history)+2)
	messages = append(messages, core.Message{
		Role:     core.RoleSystem,
		Contents: groundingPrompt(contexts),
	})
	messages = append(messages, history...)
	messages = append(messages, core.Message{
		Role:     core.RoleHuman,
		Contents: question,
	})
	return messages
}
