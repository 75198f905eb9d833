// Package parser turns a file on disk into an ordered list of (text, page)
// chunks (spec component E), grounded on a sibling example repo's go-fitz
// usage for PDF text extraction and on the distilled source's streaming
// text-window algorithm for .txt/.md.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/WessleyAI/wessley-mvp/pkg/apperr"
)

// filenameRe is the §4.7 step 3 filename validation pattern.
var filenameRe = regexp.MustCompile(`^[\w\-. ]+$`)

// windowSize is the ~1 MiB streaming read window for .txt/.md files.
const windowSize = 1024 * 1024

// Chunk is one parsed (text, page) pair, prior to persistence.
type Chunk struct {
	Content string
	Page    int // 1-based
}

// Parser parses supported file types into chunks using a pluggable Splitter.
type Parser struct {
	splitter Splitter
}

// New builds a Parser using splitter to break extracted text into chunks.
func New(splitter Splitter) *Parser {
	return &Parser{splitter: splitter}
}

// ParseFile validates filename, dispatches on extension, and returns the
// ordered chunk list. Validation and unsupported-extension failures are
// apperr.ErrValidation (not retried, per §7).
func (p *Parser) ParseFile(filePath, filename string) ([]Chunk, error) {
	if !filenameRe.MatchString(filename) {
		return nil, fmt.Errorf("parser: %w", apperr.NewValidation("filename", filename))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return p.parsePDF(filePath, filename)
	case ".txt", ".md":
		return p.parseText(filePath, filename)
	default:
		return nil, fmt.Errorf("parser: unsupported file type %q: %w", ext, apperr.ErrValidation)
	}
}

// parsePDF extracts text page by page and splits each page's text
// independently, so a chunk never spans a page boundary (§4.7 step 3).
func (p *Parser) parsePDF(filePath, filename string) ([]Chunk, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("parser: open pdf %s: %w", filename, apperr.ErrParseFailed)
	}
	defer doc.Close()

	var chunks []Chunk
	numPages := doc.NumPage()
	for i := 0; i < numPages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue // best-effort: one unreadable page doesn't fail the document
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, piece := range p.splitter.SplitText(text) {
			chunks = append(chunks, Chunk{Content: piece, Page: i + 1})
		}
	}
	return chunks, nil
}

// parseText reads .txt/.md files in ~1 MiB windows, always holding back the
// splitter's last piece as carry-over so the splitter never sees a
// truncated boundary. Page metadata is fixed at 1.
func (p *Parser) parseText(filePath, filename string) ([]Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("parser: open %s: %w", filename, apperr.ErrFileMissing)
	}
	defer f.Close()

	var chunks []Chunk
	reader := bufio.NewReaderSize(f, windowSize)
	buf := make([]byte, windowSize)
	var carry strings.Builder

	for {
		n, readErr := io.ReadFull(reader, buf)
		if n > 0 {
			carry.Write(buf[:n])
			if carry.Len() >= windowSize*2 {
				pieces := p.splitter.SplitText(carry.String())
				toEmit, remainder := splitCarry(pieces)
				for _, piece := range toEmit {
					chunks = append(chunks, Chunk{Content: piece, Page: 1})
				}
				carry.Reset()
				carry.WriteString(remainder)
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("parser: read %s: %w", filename, apperr.ErrParseFailed)
		}
	}

	if strings.TrimSpace(carry.String()) != "" {
		for _, piece := range p.splitter.SplitText(carry.String()) {
			chunks = append(chunks, Chunk{Content: piece, Page: 1})
		}
	}
	return chunks, nil
}

// splitCarry holds back the last splitter piece as overlap carry-over into
// the next window, mirroring the distilled source's buffering rule.
func splitCarry(pieces []string) (toEmit []string, remainder string) {
	if len(pieces) <= 1 {
		if len(pieces) == 1 {
			return nil, pieces[0]
		}
		return nil, ""
	}
	return pieces[:len(pieces)-1], pieces[len(pieces)-1]
}
