package workflow

import "github.com/poiesic/doctalk/core"

// State carries a question through the workflow stages. Each stage
// reads the fields of earlier stages and fills in its own.
type State struct {
	// ThreadId identifies the conversation this run belongs to.
	ThreadId string

	// Question is the question exactly as asked.
	Question string

	// RedactedQuestion is the question after PII redaction. All later
	// stages operate on this form, never on Question.
	RedactedQuestion string

	// Redacted reports that the pre-check ran.
	Redacted bool

	// ExpandedQuery is the standalone search query used for retrieval.
	// Falls back to RedactedQuestion when expansion fails.
	ExpandedQuery string

	// DocumentId optionally restricts retrieval to one document.
	DocumentId core.DocumentID

	// Context holds the retrieved chunk texts in similarity order.
	Context []string

	// Answer is the generated answer after PII redaction.
	Answer string
}
