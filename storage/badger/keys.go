package badger

import (
	"fmt"

	"github.com/poiesic/doctalk/core"
)

// Key prefixes for different data types. Prefixes are chosen so that no
// prefix is a prefix of another, keeping iterator scans disjoint.
const (
	documentRecordPrefix  = "docrec"
	documentFingerPrefix  = "docfpr"
	chunkRecordPrefix     = "churec"
	chunkByDocumentPrefix = "chudoc"
	chunkIDSeq            = "chuseq"
)

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id core.DocumentID) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentRecordPrefix, id))
}

// makeFingerprintKey generates a key for the fingerprint uniqueness index.
// The value is the owning document's ID.
func makeFingerprintKey(fingerprint string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentFingerPrefix, fingerprint))
}

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id core.ChunkID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkByDocumentKey generates a composite key for the per-document
// chunk index. Format: prefix:documentID:chunkID
func makeChunkByDocumentKey(documentID core.DocumentID, chunkID core.ChunkID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", chunkByDocumentPrefix, documentID, chunkID))
}

// makePartialChunkByDocumentKey generates a prefix for per-document chunk
// scans. Format: prefix:documentID:
func makePartialChunkByDocumentKey(documentID core.DocumentID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkByDocumentPrefix, documentID))
}
