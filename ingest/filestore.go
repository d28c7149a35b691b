package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists uploaded document bytes on the local filesystem.
// Stored files are the ingestion source of truth; deleting a document
// removes its file as well.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data under a name derived from id and title.
// Returns the full path of the stored file.
func (s *FileStore) Save(id string, title string, data []byte) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s", id, sanitizeName(title)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Spool opens a temporary file in the store directory for streaming an
// upload whose fingerprint is not yet known.
func (s *FileStore) Spool() (*SpoolFile, error) {
	file, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	return &SpoolFile{store: s, file: file}, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (s *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SpoolFile is an upload being streamed to disk before its identity is
// known. Promote keeps it under its permanent name; Discard removes it.
type SpoolFile struct {
	store *FileStore
	file  *os.File
	size  int64
	done  bool
}

// Write appends upload bytes to the spool.
func (f *SpoolFile) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

// Size reports the number of bytes spooled so far.
func (f *SpoolFile) Size() int64 {
	return f.size
}

// Promote closes the spool and renames it under a name derived from id
// and title. Returns the full path of the stored file.
func (f *SpoolFile) Promote(id string, title string) (string, error) {
	f.done = true
	if err := f.file.Close(); err != nil {
		os.Remove(f.file.Name())
		return "", err
	}

	path := filepath.Join(f.store.dir, fmt.Sprintf("%s-%s", id, sanitizeName(title)))
	if err := os.Rename(f.file.Name(), path); err != nil {
		os.Remove(f.file.Name())
		return "", err
	}
	if err := os.Chmod(path, 0644); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Discard removes a spool that was not promoted.
// Calling it after Promote is a no-op.
func (f *SpoolFile) Discard() {
	if f.done {
		return
	}
	f.done = true
	f.file.Close()
	os.Remove(f.file.Name())
}

// sanitizeName strips directory components and path separators so a
// hostile title cannot escape the store directory.
func sanitizeName(title string) string {
	name := filepath.Base(title)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "." || name == ".." || name == "" {
		name = "document"
	}
	return name
}
