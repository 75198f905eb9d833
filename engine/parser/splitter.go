package parser

import "github.com/tmc/langchaingo/textsplitter"

// Splitter turns a block of text into semantically-bounded chunks. The
// file-chunking text splitter is an external collaborator per spec; this
// interface is the boundary the parser consumes, and RecursiveSplitter is
// the default implementation wired at the composition root.
type Splitter interface {
	SplitText(text string) []string
}

// RecursiveSplitter wraps langchaingo's RecursiveCharacter splitter, the
// same recursive-separator-descent algorithm (paragraphs, then lines, then
// words, then hard character breaks) the source this spec was distilled
// from used, packing pieces up to chunkSize with chunkOverlap carried
// between adjacent chunks.
type RecursiveSplitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewRecursiveSplitter builds a splitter with the given target chunk size
// and overlap, in runes.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &RecursiveSplitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// SplitText splits text into chunks of at most chunkSize runes, preferring
// to break on the first separator (in order) that yields pieces no larger
// than chunkSize, and carries chunkOverlap runes of context into the next
// chunk. A splitter error (the underlying implementation can only fail on a
// misconfigured separator/lenFunc, never on input text) is treated as no
// chunks, since ParseFile's caller already handles an empty chunk list.
func (s *RecursiveSplitter) SplitText(text string) []string {
	if text == "" {
		return nil
	}
	chunks, err := s.inner.SplitText(text)
	if err != nil {
		return nil
	}
	return chunks
}
