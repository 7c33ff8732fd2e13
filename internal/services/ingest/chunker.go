// chunker.go groups normalized page text into fixed-size chunks.
//
// This is a greedy word-count packer, not a semantic splitter: it walks
// each page's words in order and flushes whenever the buffer would
// overflow the target size, and again at every page boundary. It makes no
// attempt to respect sentence or paragraph boundaries beyond what
// whitespace splitting naturally preserves.
package ingest

import (
	"strings"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// DefaultChunkSize is the target words per chunk when none is configured.
const DefaultChunkSize = 500

// minChunkLength filters chunking artifacts: a chunk is only kept when its
// content is longer than this (pure whitespace or stray punctuation runs
// are discarded). Sequence indices stay dense — discarded chunks never
// consume an index.
const minChunkLength = 20

// ChunkPages packs the ordered normalized pages into chunks of at most
// targetWords words each. Chunk indices are assigned globally and
// monotonically across the whole document, not reset per page.
func ChunkPages(documentID string, pages []Page, targetWords int) []models.Chunk {
	if targetWords <= 0 {
		targetWords = DefaultChunkSize
	}

	var chunks []models.Chunk
	index := 0

	appendChunk := func(words []string, pageNum int) {
		content := strings.Join(words, " ")
		if len(content) <= minChunkLength {
			return
		}
		chunks = append(chunks, models.Chunk{
			DocumentID: documentID,
			ChunkIndex: index,
			Content:    content,
			WordCount:  len(words),
			PageStart:  pageNum,
			PageEnd:    pageNum,
		})
		index++
	}

	for _, page := range pages {
		var buf []string
		for _, word := range strings.Fields(page.Text) {
			if len(buf) >= targetWords && len(buf) > 0 {
				appendChunk(buf, page.Num)
				buf = nil
			}
			buf = append(buf, word)
		}
		// Flush whatever remains at the end of the page — chunks never
		// span page boundaries.
		if len(buf) > 0 {
			appendChunk(buf, page.Num)
		}
	}

	return chunks
}
