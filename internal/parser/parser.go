// Package parser implements the spec §4.A Parsers component: PDF, DOCX, and
// TXT extraction into an ordered sequence of (text, page_no, block_kind)
// blocks ahead of chunking.
package parser

import (
	"path/filepath"
	"strings"

	"rag-orchestrator/internal/domain"
)

// Registry dispatches Parse calls to the parser matching a file's
// extension.
type Registry struct {
	parsers []domain.Parser
}

// New builds a Registry with the TXT, PDF, and DOCX parsers registered.
func New() *Registry {
	return &Registry{parsers: []domain.Parser{
		NewTXTParser(),
		NewPDFParser(),
		NewDOCXParser(),
	}}
}

var _ domain.Parser = (*Registry)(nil)

func (r *Registry) Supports(ext string) bool {
	for _, p := range r.parsers {
		if p.Supports(ext) {
			return true
		}
	}
	return false
}

// Parse looks up filename's extension and delegates to the matching parser.
func (r *Registry) Parse(filename string, data []byte) ([]domain.ParsedBlock, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, p := range r.parsers {
		if p.Supports(ext) {
			return p.Parse(filename, data)
		}
	}
	return nil, domain.NewError(domain.KindParseError, "unsupported file extension "+ext, nil)
}
