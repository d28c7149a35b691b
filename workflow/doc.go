// Package workflow runs the question-answering pipeline over indexed
// documents.
//
// A run moves a State through five fixed stages:
//
//	piiPreCheck -> expandQuery -> retrieve -> generate -> piiPostCheck
//
// The pre and post checks redact email addresses from the inbound
// question and the outbound answer. Query expansion rewrites the
// question into a standalone search query using the conversation so
// far, falling back to the question itself if the rewrite fails.
// Retrieval is a vector similarity search over stored chunks, and
// generation is grounded on the retrieved context with a fixed refusal
// phrase for answers the context does not contain.
//
// Conversation history is kept per thread in a ThreadStore. Runs on
// the same thread are serialized so concurrent questions cannot
// interleave their history appends.
package workflow
