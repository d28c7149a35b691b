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


package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain records stored in BadgerDB.
// Hand-maintained; field order is the wire format and must not change.
var (
	DocumentIDMUS = documentIDMUS{}
	ChunkIDMUS    = chunkIDMUS{}
	DocumentMUS   = documentMUS{}
	ChunkMUS      = chunkMUS{}
)

var vectorMUS = ord.NewSliceSer[float32](varint.Float32)

type documentIDMUS struct{}

func (documentIDMUS) Marshal(id DocumentID, bs []byte) (n int) {
	return ord.String.Marshal(string(id), bs)
}

func (documentIDMUS) Unmarshal(bs []byte) (id DocumentID, n int, err error) {
	s, n, err := ord.String.Unmarshal(bs)
	return DocumentID(s), n, err
}

func (documentIDMUS) Size(id DocumentID) (size int) {
	return ord.String.Size(string(id))
}

func (documentIDMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

type chunkIDMUS struct{}

func (chunkIDMUS) Marshal(id ChunkID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (chunkIDMUS) Unmarshal(bs []byte) (id ChunkID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ChunkID(v), n, err
}

func (chunkIDMUS) Size(id ChunkID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

func (chunkIDMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = DocumentIDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Path, bs[n:])
	n += ord.String.Marshal(d.Fingerprint, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += ord.String.Marshal(d.ErrorMessage, bs[n:])
	n += raw.TimeUnixMicro.Marshal(d.CreatedAt, bs[n:])
	n += raw.TimeUnixMicro.Marshal(d.UpdatedAt, bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	d.Id, n, err = DocumentIDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Path, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Fingerprint, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var status int
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Status = ProcessingStatus(status)
	d.ErrorMessage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.CreatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(d Document) (size int) {
	size = DocumentIDMUS.Size(d.Id)
	size += ord.String.Size(d.Title)
	size += ord.String.Size(d.Path)
	size += ord.String.Size(d.Fingerprint)
	size += varint.Int.Size(int(d.Status))
	size += ord.String.Size(d.ErrorMessage)
	size += raw.TimeUnixMicro.Size(d.CreatedAt)
	size += raw.TimeUnixMicro.Size(d.UpdatedAt)
	return
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = ChunkIDMUS.Marshal(c.Id, bs)
	n += DocumentIDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Int.Marshal(c.Seq, bs[n:])
	n += ord.String.Marshal(c.Contents, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	c.Id, n, err = ChunkIDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.DocumentId, n1, err = DocumentIDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Seq, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Contents, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = ChunkIDMUS.Size(c.Id)
	size += DocumentIDMUS.Size(c.DocumentId)
	size += varint.Int.Size(c.Seq)
	size += ord.String.Size(c.Contents)
	size += vectorMUS.Size(c.Vector)
	return
}
