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
	"encoding/hex"
	"io"

	"github.com/go-crypt/x/blake2b"
)

// fingerprintBufSize is the copy buffer used while streaming content
// through the hash, keeping memory bounded for large uploads.
const fingerprintBufSize = 32 * 1024

// Fingerprint computes the content fingerprint of a document: a hex-encoded
// BLAKE2b-256 digest streamed over the full byte content. Identical bytes
// always produce identical fingerprints, which makes the fingerprint usable
// as a dedup key. Only I/O errors from the reader are possible.
func Fingerprint(r io.Reader) (string, error) {
	h, err := blake2b.New(32, nil) // 32 bytes = 256 bits
	if err != nil {
		return "", err
	}
	buf := make([]byte, fingerprintBufSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintBytes computes the content fingerprint of an in-memory buffer.
func FingerprintBytes(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
