package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SourceHashPolicy computes the deterministic content hash a Document's
// dedup/versioning decisions key on (spec §3, §4.E): Unicode NFC, line
// endings normalised to LF, trailing whitespace trimmed per line and
// overall.
type SourceHashPolicy interface {
	// ComputeDocID returns the 16-hex-digit doc_id derived from the
	// canonicalised content.
	ComputeDocID(content string) string

	// Canonicalize applies the normalisation rule without hashing, so
	// callers needing the normalised form (e.g. for round-trip checks) don't
	// duplicate the logic.
	Canonicalize(content string) string
}

type sourceHashPolicy struct{}

// NewSourceHashPolicy creates the default SourceHashPolicy.
func NewSourceHashPolicy() SourceHashPolicy {
	return &sourceHashPolicy{}
}

func (p *sourceHashPolicy) Canonicalize(content string) string {
	normalized := norm.NFC.String(content)
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (p *sourceHashPolicy) ComputeDocID(content string) string {
	canonical := p.Canonicalize(content)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8]) // 16 hex chars
}
