// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"github.com/poiesic/doctalk/core"
)

// MarshalDocumentID serializes a DocumentID to bytes.
func MarshalDocumentID(id core.DocumentID) []byte {
	buf := make([]byte, core.DocumentIDMUS.Size(id))
	core.DocumentIDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalDocumentID deserializes a DocumentID from bytes.
func UnmarshalDocumentID(data []byte) (core.DocumentID, error) {
	id, _, err := core.DocumentIDMUS.Unmarshal(data)
	return id, err
}

// MarshalChunkID serializes a ChunkID to bytes.
func MarshalChunkID(id core.ChunkID) []byte {
	buf := make([]byte, core.ChunkIDMUS.Size(id))
	core.ChunkIDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalChunkID deserializes a ChunkID from bytes.
func UnmarshalChunkID(data []byte) (core.ChunkID, error) {
	id, _, err := core.ChunkIDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}
