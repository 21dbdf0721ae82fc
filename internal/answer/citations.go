package answer

import (
	"regexp"
	"strings"
)

var (
	citationTokenRe      = regexp.MustCompile(`^\[S(\d+)\]`)
	partialTokenPrefixRe = regexp.MustCompile(`^\[S?\d*$`)
)

const maxPreviewRunes = 160

// citationScanner incrementally scans streamed answer text for [S<n>]
// tokens, stripping any that don't resolve to an offered source (spec §4.K
// guarantee (a)) and recording first-appearance order (guarantee (b)).
// Tokens may straddle two streamed chunks, so unresolved trailing brackets
// are held back until either they complete or Flush forces them out as
// literal text.
type citationScanner struct {
	buffer    string
	valid     map[string]struct{}
	seen      map[string]struct{}
	seenOrder []string
}

func newCitationScanner(sources []sourcedChunk) *citationScanner {
	valid := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		valid[s.SourceID] = struct{}{}
	}
	return &citationScanner{valid: valid, seen: make(map[string]struct{})}
}

// Feed appends newly streamed text and returns the portion now safe to
// forward to the caller, with unresolved citation tokens already removed.
func (c *citationScanner) Feed(chunk string) string {
	c.buffer += chunk
	return c.drain(false)
}

// Flush drains any remaining buffered text once the stream has ended;
// a still-incomplete bracket at this point is emitted as literal text.
func (c *citationScanner) Flush() string {
	return c.drain(true)
}

func (c *citationScanner) drain(final bool) string {
	var out strings.Builder
	for {
		idx := strings.IndexByte(c.buffer, '[')
		if idx == -1 {
			out.WriteString(c.buffer)
			c.buffer = ""
			return out.String()
		}
		out.WriteString(c.buffer[:idx])
		rest := c.buffer[idx:]

		if m := citationTokenRe.FindStringSubmatch(rest); m != nil {
			id := "S" + m[1]
			if _, ok := c.valid[id]; ok {
				out.WriteString(m[0])
				if _, seen := c.seen[id]; !seen {
					c.seen[id] = struct{}{}
					c.seenOrder = append(c.seenOrder, id)
				}
			}
			c.buffer = rest[len(m[0]):]
			continue
		}

		if !final && looksLikePartialToken(rest) {
			c.buffer = rest
			return out.String()
		}

		out.WriteByte('[')
		c.buffer = rest[1:]
	}
}

func looksLikePartialToken(s string) bool {
	if strings.Contains(s, "]") {
		return false
	}
	if len(s) > 12 {
		return false
	}
	return partialTokenPrefixRe.MatchString(s)
}

// resolveCitations builds the final citation table in first-appearance
// order, one entry per S<n> actually referenced in the answer text.
func resolveCitations(scanner *citationScanner, sources []sourcedChunk) []Citation {
	bySourceID := make(map[string]sourcedChunk, len(sources))
	for _, s := range sources {
		bySourceID[s.SourceID] = s
	}

	out := make([]Citation, 0, len(scanner.seenOrder))
	for _, id := range scanner.seenOrder {
		s, ok := bySourceID[id]
		if !ok {
			continue
		}
		out = append(out, Citation{
			SourceID: id,
			ChunkID:  s.Hit.ChunkID,
			Preview:  truncateRunes(s.Hit.Text, maxPreviewRunes),
			PageNos:  s.Hit.Metadata.PageNos,
			Score:    s.Hit.Score,
			Metadata: s.Hit.Metadata,
		})
	}
	return out
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
