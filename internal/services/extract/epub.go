// epub.go extracts page-level text and metadata from EPUB containers.
//
// An EPUB is a zip archive with a declared structure: META-INF/container.xml
// points at the package document (OPF), whose spine lists the reading
// order. Real containers are often non-conformant, so extraction runs up
// to epubRetryRounds rounds over four strategies of increasing
// permissiveness:
//  1. Strict spine-based extraction via the declared manifest path.
//  2. The same walk with relaxed lookups (OPF discovered by scanning,
//     any media type accepted, case-insensitive manifest matching).
//  3. Full scan of every HTML/XHTML entry, ranked by filename heuristics
//     instead of trusting the spine at all.
//  4. Raw prose salvage from every non-binary entry.
// The first strategy to return a non-empty page wins. Rounds exist because
// a strategy can be transiently flaky (a malformed zip entry read), and
// retrying the same ordered list can succeed.
//
// If every round fails, a final aggressive pass re-reads every entry under
// multiple text encodings before giving up.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// epubRetryRounds bounds how many times the full strategy list is retried.
const epubRetryRounds = 3

// minProseBlock is the shortest salvaged block we treat as real prose.
const minProseBlock = 200

// --- EPUB package structures ---

type epubContainer struct {
	XMLName   xml.Name       `xml:"container"`
	RootFiles []epubRootFile `xml:"rootfiles>rootfile"`
}

type epubRootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

type epubPackage struct {
	XMLName  xml.Name     `xml:"package"`
	Metadata epubMetadata `xml:"metadata"`
	Manifest epubManifest `xml:"manifest"`
	Spine    epubSpine    `xml:"spine"`
}

type epubMetadata struct {
	Titles   []string   `xml:"title"`
	Creators []string   `xml:"creator"`
	Metas    []epubMeta `xml:"meta"`
}

type epubMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type epubManifest struct {
	Items []epubItem `xml:"item"`
}

type epubItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type epubSpine struct {
	ItemRefs []epubItemRef `xml:"itemref"`
}

type epubItemRef struct {
	IDRef string `xml:"idref,attr"`
}

// --- Text extraction ---

// ExtractEPUB runs the EPUB strategy chain and returns one text block per
// spine item (or per recovered file, for the fallback strategies).
func ExtractEPUB(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable zip container: %v", ErrExtractionFailed, err)
	}

	strategies := []struct {
		name string
		fn   func(*zip.Reader) ([]string, error)
	}{
		{"spine-strict", epubSpineStrict},
		{"spine-relaxed", epubSpineRelaxed},
		{"html-scan", epubHTMLScan},
		{"prose-salvage", epubProseSalvage},
	}

	for round := 1; round <= epubRetryRounds; round++ {
		for _, s := range strategies {
			pages, err := s.fn(zr)
			if err != nil {
				log.Printf("📚 EPUB round %d strategy %q failed: %v", round, s.name, err)
				continue
			}
			if len(pages) > 0 {
				log.Printf("📚 EPUB round %d strategy %q recovered %d pages", round, s.name, len(pages))
				return pages, nil
			}
		}
	}

	// Absolute fallback: every entry under multiple encodings.
	if pages := epubAggressiveSalvage(zr); len(pages) > 0 {
		log.Printf("📚 EPUB aggressive fallback recovered %d pages", len(pages))
		return pages, nil
	}

	return nil, fmt.Errorf("%w: no text found in EPUB container after all strategies", ErrExtractionFailed)
}

// readZipEntry reads a single entry's bytes.
func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// findZipEntry locates an entry by exact name.
func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// openPackage resolves container.xml and parses the package document it
// points at. Returns the parsed package and the OPF's directory (hrefs in
// the manifest are relative to it).
func openPackage(zr *zip.Reader) (*epubPackage, string, error) {
	containerFile := findZipEntry(zr, "META-INF/container.xml")
	if containerFile == nil {
		return nil, "", fmt.Errorf("container.xml not found")
	}

	raw, err := readZipEntry(containerFile)
	if err != nil {
		return nil, "", fmt.Errorf("reading container.xml: %w", err)
	}

	var container epubContainer
	if err := xml.Unmarshal(raw, &container); err != nil {
		return nil, "", fmt.Errorf("parsing container.xml: %w", err)
	}
	if len(container.RootFiles) == 0 {
		return nil, "", fmt.Errorf("no rootfile declared in container.xml")
	}

	opfPath := container.RootFiles[0].FullPath
	return parseOPFAt(zr, opfPath)
}

// parseOPFAt parses the package document at the given zip path.
func parseOPFAt(zr *zip.Reader, opfPath string) (*epubPackage, string, error) {
	opfFile := findZipEntry(zr, opfPath)
	if opfFile == nil {
		return nil, "", fmt.Errorf("package document not found: %s", opfPath)
	}

	raw, err := readZipEntry(opfFile)
	if err != nil {
		return nil, "", fmt.Errorf("reading package document: %w", err)
	}

	var pkg epubPackage
	if err := xml.Unmarshal(raw, &pkg); err != nil {
		return nil, "", fmt.Errorf("parsing package document: %w", err)
	}

	return &pkg, path.Dir(opfPath), nil
}

// epubSpineStrict follows the declared reading order exactly: container →
// OPF → spine, accepting only XHTML/HTML media types.
func epubSpineStrict(zr *zip.Reader) ([]string, error) {
	pkg, opfDir, err := openPackage(zr)
	if err != nil {
		return nil, err
	}

	manifest := make(map[string]epubItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		manifest[item.ID] = item
	}

	var pages []string
	for _, ref := range pkg.Spine.ItemRefs {
		item, ok := manifest[ref.IDRef]
		if !ok {
			continue
		}
		if item.MediaType != "application/xhtml+xml" && item.MediaType != "text/html" {
			continue
		}
		entry := findZipEntry(zr, resolveHref(opfDir, item.Href))
		if entry == nil {
			continue
		}
		raw, err := readZipEntry(entry)
		if err != nil {
			continue
		}
		if text := stripMarkup(string(raw)); text != "" {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

// epubSpineRelaxed repeats the spine walk with relaxed lookups, tolerating
// minor non-conformant markup: the OPF is discovered by scanning when the
// container manifest is broken, spine items of any media type are
// accepted, and manifest hrefs are matched case-insensitively against the
// archive when the exact path is missing.
func epubSpineRelaxed(zr *zip.Reader) ([]string, error) {
	pkg, opfDir, err := openPackage(zr)
	if err != nil {
		// Container path broken — look for any .opf entry instead.
		pkg, opfDir, err = findAnyOPF(zr)
		if err != nil {
			return nil, err
		}
	}

	manifest := make(map[string]epubItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		manifest[strings.ToLower(item.ID)] = item
	}

	refs := pkg.Spine.ItemRefs
	if len(refs) == 0 {
		// No spine at all: fall back to manifest order.
		for _, item := range pkg.Manifest.Items {
			refs = append(refs, epubItemRef{IDRef: item.ID})
		}
	}

	var pages []string
	for _, ref := range refs {
		item, ok := manifest[strings.ToLower(ref.IDRef)]
		if !ok {
			continue
		}
		if strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		entry := findZipEntryRelaxed(zr, resolveHref(opfDir, item.Href))
		if entry == nil {
			continue
		}
		raw, err := readZipEntry(entry)
		if err != nil {
			continue
		}
		if text := stripMarkup(string(raw)); text != "" {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

// findAnyOPF scans the archive for the first parseable .opf entry.
func findAnyOPF(zr *zip.Reader) (*epubPackage, string, error) {
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			if pkg, dir, err := parseOPFAt(zr, f.Name); err == nil {
				return pkg, dir, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no package document found in container")
}

// findZipEntryRelaxed matches an entry by exact name first, then
// case-insensitively, then by basename.
func findZipEntryRelaxed(zr *zip.Reader, name string) *zip.File {
	if f := findZipEntry(zr, name); f != nil {
		return f
	}
	lower := strings.ToLower(name)
	for _, f := range zr.File {
		if strings.ToLower(f.Name) == lower {
			return f
		}
	}
	base := strings.ToLower(path.Base(name))
	for _, f := range zr.File {
		if strings.ToLower(path.Base(f.Name)) == base {
			return f
		}
	}
	return nil
}

// resolveHref joins a manifest href onto the OPF directory and normalizes
// separators for zip lookup.
func resolveHref(opfDir, href string) string {
	if opfDir == "." || opfDir == "" {
		return strings.ReplaceAll(href, "\\", "/")
	}
	return strings.ReplaceAll(path.Join(opfDir, href), "\\", "/")
}

// epubHTMLScan ignores the spine entirely: every HTML/XHTML entry in the
// container is extracted, prioritized by filename heuristics so chapter
// content ranks above navigation, cover and title pages.
func epubHTMLScan(zr *zip.Reader) ([]string, error) {
	type scored struct {
		file  *zip.File
		score int
	}

	var candidates []scored
	for _, f := range zr.File {
		lower := strings.ToLower(f.Name)
		if !strings.HasSuffix(lower, ".html") && !strings.HasSuffix(lower, ".xhtml") && !strings.HasSuffix(lower, ".htm") {
			continue
		}
		candidates = append(candidates, scored{file: f, score: contentNameScore(lower)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].file.Name < candidates[j].file.Name
	})

	var pages []string
	for _, c := range candidates {
		raw, err := readZipEntry(c.file)
		if err != nil {
			continue
		}
		if text := stripMarkup(string(raw)); text != "" {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

// contentNameScore ranks a container path by how likely it is to hold
// chapter prose. Content directories and chapter-like names rank above
// navigation, cover and title files.
func contentNameScore(lower string) int {
	score := 0
	for _, good := range []string{"chapter", "chap", "/text/", "/content/", "oebps", "section", "part"} {
		if strings.Contains(lower, good) {
			score += 2
		}
	}
	for _, bad := range []string{"nav", "toc", "cover", "title", "copyright", "colophon", "index", "acknowledg"} {
		if strings.Contains(lower, bad) {
			score -= 3
		}
	}
	return score
}

// epubProseSalvage strips markup from every non-binary entry and keeps
// whatever looks like prose, spine be damned.
func epubProseSalvage(zr *zip.Reader) ([]string, error) {
	var pages []string
	for _, f := range zr.File {
		if isBinaryName(f.Name) {
			continue
		}
		raw, err := readZipEntry(f)
		if err != nil {
			continue
		}
		if !utf8.Valid(raw) {
			continue
		}
		text := stripMarkup(string(raw))
		if looksLikeProse(text) {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

// epubAggressiveSalvage is the absolute fallback: every entry, decoded
// under several text encodings, kept only if the prose heuristic accepts
// it.
func epubAggressiveSalvage(zr *zip.Reader) []string {
	decoders := []func([]byte) string{
		func(b []byte) string { return string(b) }, // UTF-8 / ASCII
		decodeLatin1,
		decodeUTF16LE,
		decodeUTF16BE,
	}

	var pages []string
	for _, f := range zr.File {
		raw, err := readZipEntry(f)
		if err != nil {
			continue
		}
		for _, decode := range decoders {
			text := stripMarkup(decode(raw))
			if looksLikeProse(text) {
				pages = append(pages, text)
				break
			}
		}
	}
	return pages
}

func isBinaryName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ttf", ".otf", ".woff", ".woff2", ".mp3", ".mp4", ".ogg":
		return true
	}
	return false
}

// looksLikeProse accepts blocks of 200+ characters that contain real
// words and are not dominated by markup leftovers or symbols.
func looksLikeProse(text string) bool {
	if len(text) < minProseBlock {
		return false
	}
	letters, spaces, other := 0, 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			letters++
		case unicode.IsSpace(r):
			spaces++
		default:
			other++
		}
	}
	total := letters + spaces + other
	if letters*100/total < 55 {
		return false
	}
	// Real prose has words, not one endless token.
	words := strings.Fields(text)
	if len(words) < 20 {
		return false
	}
	return true
}

// --- Markup stripping ---

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	htmlEntityRegex = regexp.MustCompile(`&[a-zA-Z][a-zA-Z0-9]*;|&#[0-9]+;|&#x[0-9a-fA-F]+;`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&apos;", "'",
	"&nbsp;", " ",
	"&#8212;", "—",
	"&#8211;", "–",
	"&#8217;", "'",
	"&#8220;", `"`,
	"&#8221;", `"`,
)

// stripMarkup removes tags and entities from HTML/XHTML content and
// collapses whitespace. Good enough for search and summarization — the
// reader UI renders the original markup, not this.
func stripMarkup(content string) string {
	text := htmlTagRegex.ReplaceAllString(content, " ")
	text = entityReplacer.Replace(text)
	text = htmlEntityRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// --- Alternate encodings for the aggressive pass ---

func decodeLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func decodeUTF16LE(b []byte) string {
	if len(b) < 2 {
		return ""
	}
	u16 := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u16 = append(u16, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return string(utf16.Decode(u16))
}

func decodeUTF16BE(b []byte) string {
	if len(b) < 2 {
		return ""
	}
	u16 := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u16 = append(u16, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(u16))
}

// --- Metadata ---

// wordsPerEstimatedPage converts recovered text volume into a page-count
// estimate for EPUBs, which have no fixed pagination.
const wordsPerEstimatedPage = 300

// ExtractEPUBMetadata pulls title, author, cover image and an estimated
// page count from the package document. Independent of text extraction —
// it must be attempted even when every text strategy fails.
func ExtractEPUBMetadata(data []byte) (*Metadata, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a readable zip container: %w", err)
	}

	pkg, opfDir, err := openPackage(zr)
	if err != nil {
		pkg, opfDir, err = findAnyOPF(zr)
		if err != nil {
			return nil, fmt.Errorf("no package document: %w", err)
		}
	}

	md := &Metadata{}
	if len(pkg.Metadata.Titles) > 0 {
		md.Title = strings.TrimSpace(pkg.Metadata.Titles[0])
	}
	if len(pkg.Metadata.Creators) > 0 {
		md.Author = strings.TrimSpace(pkg.Metadata.Creators[0])
	}

	if cover := findCoverItem(pkg); cover != nil {
		if entry := findZipEntryRelaxed(zr, resolveHref(opfDir, cover.Href)); entry != nil {
			if raw, err := readZipEntry(entry); err == nil {
				md.CoverData = raw
				md.CoverMediaType = cover.MediaType
			}
		}
	}

	// Estimate pages from whatever text the strict spine walk can see.
	// This is a best-effort number for the reader UI, not pagination.
	if pages, err := epubSpineStrict(zr); err == nil {
		words := 0
		for _, p := range pages {
			words += countWords(p)
		}
		if words > 0 {
			md.EstimatedPages = (words + wordsPerEstimatedPage - 1) / wordsPerEstimatedPage
		}
	}

	return md, nil
}

// findCoverItem locates the manifest item holding the cover image: the
// EPUB 3 properties attribute first, then the EPUB 2 meta[name=cover]
// convention, then any image item whose id mentions "cover".
func findCoverItem(pkg *epubPackage) *epubItem {
	for i, item := range pkg.Manifest.Items {
		if strings.Contains(item.Properties, "cover-image") {
			return &pkg.Manifest.Items[i]
		}
	}

	coverID := ""
	for _, meta := range pkg.Metadata.Metas {
		if strings.EqualFold(meta.Name, "cover") {
			coverID = meta.Content
			break
		}
	}
	if coverID != "" {
		for i, item := range pkg.Manifest.Items {
			if item.ID == coverID {
				return &pkg.Manifest.Items[i]
			}
		}
	}

	for i, item := range pkg.Manifest.Items {
		if strings.HasPrefix(item.MediaType, "image/") && strings.Contains(strings.ToLower(item.ID), "cover") {
			return &pkg.Manifest.Items[i]
		}
	}
	return nil
}
