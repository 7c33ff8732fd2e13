// documents_test.go — Unit tests for upload helpers.
package handlers

import (
	"testing"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     string
		wantErr  bool
	}{
		{
			name:     "valid pdf",
			filename: "paper.pdf",
			data:     []byte("%PDF-1.7 content"),
			want:     models.FormatPDF,
		},
		{
			name:     "pdf extension with wrong magic",
			filename: "fake.pdf",
			data:     []byte("just text"),
			wantErr:  true,
		},
		{
			name:     "valid epub",
			filename: "novel.epub",
			data:     []byte("PK\x03\x04rest-of-zip"),
			want:     models.FormatEPUB,
		},
		{
			name:     "epub extension with wrong magic",
			filename: "fake.epub",
			data:     []byte("not a zip"),
			wantErr:  true,
		},
		{
			name:     "unsupported extension",
			filename: "notes.txt",
			data:     []byte("plain text"),
			wantErr:  true,
		},
		{
			name:     "uppercase extension accepted",
			filename: "PAPER.PDF",
			data:     []byte("%PDF-1.4"),
			want:     models.FormatPDF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detectFormat(tt.filename, tt.data)
			if tt.wantErr {
				if err == nil {
					t.Errorf("detectFormat(%q) = %q, want error", tt.filename, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("detectFormat(%q): %v", tt.filename, err)
			}
			if got != tt.want {
				t.Errorf("detectFormat(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"the_great_novel.epub", "the great novel"},
		{"annual-report-2025.pdf", "annual report 2025"},
		{"Simple.pdf", "Simple"},
		{".epub", "Untitled Document"},
	}

	for _, tt := range tests {
		if got := titleFromFilename(tt.filename); got != tt.want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
