// pdf.go extracts page-level text from PDF files.
//
// Three strategies, tried in order until one yields non-empty pages:
//  1. Structured parse via the ledongthuc/pdf library (reads the page
//     tree and content streams properly).
//  2. Permissive binary scan: decompress every stream object we can find
//     and regex-match parenthesized Tj/TJ text-show operands directly.
//  3. Last resort: any printable-ASCII run of 10+ characters anywhere in
//     the raw bytes, grouped into pseudo-pages.
//
// Every strategy is attempted even when an earlier one errors or panics —
// a file the structured parser rejects outright can still have perfectly
// readable content streams.
package extract

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ValidatePDF checks if the data looks like a valid PDF by checking the
// magic bytes. PDF files start with "%PDF-".
func ValidatePDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// ExtractPDF runs the PDF strategy chain and returns one string per page.
func ExtractPDF(data []byte) ([]string, error) {
	strategies := []struct {
		name string
		fn   func([]byte) ([]string, error)
	}{
		{"structured", pdfStructured},
		{"binary-scan", pdfBinaryScan},
		{"raw-text", pdfRawText},
	}

	for _, s := range strategies {
		pages, err := s.fn(data)
		if err != nil {
			log.Printf("📄 PDF strategy %q failed: %v", s.name, err)
			continue
		}
		if len(pages) > 0 {
			log.Printf("📄 PDF strategy %q recovered %d pages", s.name, len(pages))
			return pages, nil
		}
		log.Printf("📄 PDF strategy %q produced no pages", s.name)
	}

	return nil, fmt.Errorf("%w: no text found — the PDF may be image-based, encrypted, or corrupted", ErrExtractionFailed)
}

// pdfStructured reads the document's internal page/content-stream model.
func pdfStructured(data []byte) (pages []string, err error) {
	// The parser panics on some malformed xref tables; convert that into
	// a regular error so the next strategy still runs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := reader.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages are image-only; keep the page slot so page
			// numbering stays aligned with the document.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	// Report success only if at least one page carries text.
	for _, p := range pages {
		if p != "" {
			return pages, nil
		}
	}
	return nil, nil
}

// textShowRegex matches parenthesized operands of the Tj and TJ text-show
// operators inside a decoded content stream, e.g. `(Hello world) Tj`.
// Escaped parens and backslashes inside the operand are allowed.
var textShowRegex = regexp.MustCompile(`\(((?:[^()\\]|\\.)+)\)\s*'?\s*T[jJ]`)

// pdfBinaryScan pulls text-show operands out of decompressed content
// streams without consulting the page tree at all. Each stream object
// becomes one pseudo-page.
func pdfBinaryScan(data []byte) ([]string, error) {
	var pages []string

	for _, stream := range findStreams(data) {
		decoded := decodeStream(stream)
		matches := textShowRegex.FindAllSubmatch(decoded, -1)
		if len(matches) == 0 {
			continue
		}
		var b strings.Builder
		for _, m := range matches {
			b.WriteString(unescapePDFString(string(m[1])))
			b.WriteByte(' ')
		}
		text := strings.TrimSpace(b.String())
		if text != "" {
			pages = append(pages, text)
		}
	}

	return pages, nil
}

// findStreams returns the byte ranges between stream/endstream keywords.
func findStreams(data []byte) [][]byte {
	var streams [][]byte
	rest := data
	for {
		start := bytes.Index(rest, []byte("stream"))
		if start < 0 {
			break
		}
		body := rest[start+len("stream"):]
		// The keyword is followed by CRLF or LF before the stream data.
		body = bytes.TrimPrefix(body, []byte("\r\n"))
		body = bytes.TrimPrefix(body, []byte("\n"))

		end := bytes.Index(body, []byte("endstream"))
		if end < 0 {
			break
		}
		streams = append(streams, body[:end])
		rest = body[end+len("endstream"):]
	}
	return streams
}

// decodeStream tries zlib then raw deflate, and falls back to the bytes
// as-is (uncompressed content streams exist in the wild).
func decodeStream(stream []byte) []byte {
	if r, err := zlib.NewReader(bytes.NewReader(stream)); err == nil {
		if decoded, err := io.ReadAll(r); err == nil && len(decoded) > 0 {
			r.Close()
			return decoded
		}
		r.Close()
	}
	fr := flate.NewReader(bytes.NewReader(stream))
	if decoded, err := io.ReadAll(fr); err == nil && len(decoded) > 0 {
		fr.Close()
		return decoded
	}
	fr.Close()
	return stream
}

// unescapePDFString resolves the escape sequences PDF string literals use.
func unescapePDFString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// rawTextPageSize is how many characters of salvaged text make up one
// pseudo-page in the last-resort strategy. Arbitrary — these files have no
// recoverable page structure anyway.
const rawTextPageSize = 3000

// pdfRawText scans the raw bytes for printable-ASCII runs of 10+
// characters and groups them into pseudo-pages.
func pdfRawText(data []byte) ([]string, error) {
	var runs []string
	var current []byte

	flush := func() {
		if len(current) >= 10 {
			runs = append(runs, string(current))
		}
		current = current[:0]
	}

	for _, c := range data {
		if c >= 0x20 && c <= 0x7e {
			current = append(current, c)
		} else {
			flush()
		}
	}
	flush()

	var pages []string
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run)
		b.WriteByte(' ')
		if b.Len() >= rawTextPageSize {
			pages = append(pages, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	if tail := strings.TrimSpace(b.String()); tail != "" {
		pages = append(pages, tail)
	}

	return pages, nil
}
