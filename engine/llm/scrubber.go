package llm

import "strings"

// startTags and endTags mark the thinking regions that must never reach a
// client (§4.5 thinking-tag scrubbing).
var startTags = []string{"<think>", "<thinking>"}
var endTags = []string{"</think>", "</thinking>"}

// Scrubber strips <think>/<thinking> regions from a stream of text chunks,
// buffering partial tags across chunk boundaries. It is shared logic living
// above the per-vendor Client interface, applied uniformly to every
// backend's raw output.
type Scrubber struct {
	buffer     strings.Builder
	isThinking bool
}

// NewScrubber returns a fresh, idle scrubber.
func NewScrubber() *Scrubber { return &Scrubber{} }

// Feed processes one raw chunk and returns the text, if any, now safe to
// emit to the client.
func (s *Scrubber) Feed(content string) string {
	if content == "" {
		return ""
	}
	s.buffer.WriteString(content)
	buf := s.buffer.String()
	s.buffer.Reset()

	if s.isThinking {
		for _, tag := range endTags {
			if idx := strings.Index(buf, tag); idx != -1 {
				buf = buf[idx+len(tag):]
				s.isThinking = false
				// Fall through: the remainder after the end tag may itself
				// contain more tags or be safe to emit; re-run the
				// non-thinking branch on it.
				return s.feedNotThinking(buf)
			}
		}
		// Still thinking: nothing is safe to emit yet. The discarded content
		// itself is never retained, but a trailing partial end tag must be
		// kept so a split across this chunk boundary (e.g. "...</th" then
		// "ink>...") is still detected once the rest arrives.
		if idx := strings.LastIndexByte(buf, '<'); idx != -1 {
			potential := buf[idx:]
			if isPartialEndTag(potential) {
				s.buffer.WriteString(potential)
			}
		}
		return ""
	}
	return s.feedNotThinking(buf)
}

func (s *Scrubber) feedNotThinking(buf string) string {
	for _, tag := range startTags {
		if idx := strings.Index(buf, tag); idx != -1 {
			pre := buf[:idx]
			post := buf[idx+len(tag):]
			s.isThinking = true
			// Whatever followed the start tag might already contain an end
			// tag (a thinking region fully contained in one chunk); run it
			// back through Feed to resolve that before returning.
			rest := s.Feed(post)
			if pre == "" {
				return rest
			}
			return pre + rest
		}
	}

	if idx := strings.LastIndexByte(buf, '<'); idx != -1 {
		potential := buf[idx:]
		if isPartialStartTag(potential) {
			s.buffer.WriteString(potential)
			return buf[:idx]
		}
	}
	return buf
}

// isPartialStartTag reports whether potential is a strict, incomplete
// prefix of some start tag.
func isPartialStartTag(potential string) bool {
	for _, tag := range startTags {
		if strings.HasPrefix(tag, potential) && potential != tag {
			return true
		}
	}
	return false
}

// isPartialEndTag reports whether potential is a strict, incomplete prefix
// of some end tag, symmetric to isPartialStartTag.
func isPartialEndTag(potential string) bool {
	for _, tag := range endTags {
		if strings.HasPrefix(tag, potential) && potential != tag {
			return true
		}
	}
	return false
}

// Flush returns any remaining buffered content at stream end. Per spec,
// content still inside a thinking region is dropped, never emitted.
func (s *Scrubber) Flush() string {
	if s.isThinking {
		s.buffer.Reset()
		return ""
	}
	out := s.buffer.String()
	s.buffer.Reset()
	return out
}
