package core

import (
	"errors"
	"testing"
	"time"
)

func validDocument() *Document {
	return &Document{
		Id:          NewDocumentID(),
		Title:       "quarterly report",
		Fingerprint: FingerprintBytes([]byte("report body")),
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Document)
		wantErr error
	}{
		{
			name:    "valid document",
			mutate:  func(*Document) {},
			wantErr: nil,
		},
		{
			name:    "missing id",
			mutate:  func(d *Document) { d.Id = "" },
			wantErr: ErrEmptyDocumentID,
		},
		{
			name:    "missing title",
			mutate:  func(d *Document) { d.Title = "" },
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "missing fingerprint",
			mutate:  func(d *Document) { d.Fingerprint = "" },
			wantErr: ErrEmptyFingerprint,
		},
		{
			name:    "unknown status",
			mutate:  func(d *Document) { d.Status = ProcessingStatus(42) },
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)
			err := ValidateDocument(doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error %v should wrap ErrInvalidDocument", err)
			}
		})
	}
}

func TestValidateDocument_Nil(t *testing.T) {
	if err := ValidateDocument(nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("ValidateDocument(nil) error = %v, want ErrInvalidDocument", err)
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr error
	}{
		{
			name: "valid chunk",
			chunk: Chunk{
				DocumentId: NewDocumentID(),
				Seq:        0,
				Contents:   "some text span",
			},
			wantErr: nil,
		},
		{
			name: "missing document id",
			chunk: Chunk{
				Contents: "orphan chunk",
			},
			wantErr: ErrEmptyDocumentID,
		},
		{
			name: "missing contents",
			chunk: Chunk{
				DocumentId: NewDocumentID(),
			},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(&tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProcessingStatus_String(t *testing.T) {
	tests := []struct {
		status ProcessingStatus
		want   string
	}{
		{StatusPending, "PENDING"},
		{StatusIndexed, "INDEXED"},
		{StatusFailed, "FAILED"},
		{ProcessingStatus(0), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ProcessingStatus(%d).String() = %s, want %s", tt.status, got, tt.want)
		}
	}
}
