// pdf_test.go — Unit tests for the PDF strategy chain, using synthetic
// byte buffers rather than fixture files.
package extract

import (
	"bytes"
	"compress/zlib"
	"errors"
	"strings"
	"testing"
)

func TestValidatePDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"valid header", []byte("%PDF-1.7\n..."), true},
		{"plain text", []byte("this is not a pdf"), false},
		{"too short", []byte("%PD"), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePDF(tt.data); got != tt.want {
				t.Errorf("ValidatePDF = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestExtractPDFBinaryScan: a file the structured parser rejects but whose
// compressed content streams hold Tj operands is still readable.
func TestExtractPDFBinaryScan(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write([]byte("BT /F1 12 Tf (Hello from a content) Tj (and more text here) Tj ET"))
	zw.Close()

	var data bytes.Buffer
	data.WriteString("%PDF-1.4\n1 0 obj\n<< /Filter /FlateDecode >>\nstream\n")
	data.Write(compressed.Bytes())
	data.WriteString("\nendstream\nendobj\n")

	pages, err := ExtractPDF(data.Bytes())
	if err != nil {
		t.Fatalf("ExtractPDF: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("ExtractPDF recovered %d pages, want 1", len(pages))
	}
	if !strings.Contains(pages[0], "Hello from a content") || !strings.Contains(pages[0], "and more text here") {
		t.Errorf("recovered page %q missing expected operand text", pages[0])
	}
}

// TestExtractPDFBinaryScanEscapes: escaped parens and newlines inside a
// text-show operand are resolved. The stream is left uncompressed —
// decodeStream must fall back to the raw bytes.
func TestExtractPDFBinaryScanEscapes(t *testing.T) {
	var data bytes.Buffer
	data.WriteString("%PDF-1.4\n1 0 obj\n<< >>\nstream\n")
	data.WriteString(`BT (Line\nBreak with \(parens\) inside) Tj ET`)
	data.WriteString("\nendstream\n")

	pages, err := ExtractPDF(data.Bytes())
	if err != nil {
		t.Fatalf("ExtractPDF: %v", err)
	}
	if len(pages) == 0 {
		t.Fatal("ExtractPDF recovered no pages")
	}
	if !strings.Contains(pages[0], "(parens) inside") {
		t.Errorf("recovered page %q should contain unescaped parens", pages[0])
	}
	if !strings.Contains(pages[0], "Line\nBreak") {
		t.Errorf("recovered page %q should contain a resolved newline escape", pages[0])
	}
}

// TestExtractPDFRawTextFallback: no parseable structure and no content
// streams at all — printable runs are still salvaged as pseudo-pages.
func TestExtractPDFRawTextFallback(t *testing.T) {
	var data bytes.Buffer
	data.WriteString("%PDF-1.4")
	data.Write([]byte{0x00, 0x01, 0xff})
	data.WriteString("This sentence survives inside a damaged file.")
	data.Write([]byte{0xfe, 0x00})
	data.WriteString("short") // under 10 chars, dropped
	data.Write([]byte{0x00})
	data.WriteString("And a second recoverable sentence follows.")

	pages, err := ExtractPDF(data.Bytes())
	if err != nil {
		t.Fatalf("ExtractPDF: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("ExtractPDF recovered %d pages, want 1", len(pages))
	}
	if !strings.Contains(pages[0], "This sentence survives") {
		t.Errorf("page %q missing first salvaged run", pages[0])
	}
	if !strings.Contains(pages[0], "second recoverable sentence") {
		t.Errorf("page %q missing second salvaged run", pages[0])
	}
	if strings.Contains(pages[0], "short") {
		t.Errorf("page %q should not contain runs under 10 characters", pages[0])
	}
}

// TestExtractPDFNothingRecoverable: pure binary noise with no printable
// runs fails with the extraction sentinel.
func TestExtractPDFNothingRecoverable(t *testing.T) {
	data := bytes.Repeat([]byte{0x00, 0xff, 0x01}, 100)

	_, err := ExtractPDF(data)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestUnescapePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`a\tb`, "a\tb"},
		{`\(x\)`, "(x)"},
		{`back\\slash`, `back\slash`},
	}

	for _, tt := range tests {
		if got := unescapePDFString(tt.in); got != tt.want {
			t.Errorf("unescapePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
