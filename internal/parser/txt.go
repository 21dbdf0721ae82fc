package parser

import (
	"strings"

	"rag-orchestrator/internal/domain"
)

// TXTParser yields one paragraph block per non-empty line group (spec
// §4.A): consecutive non-blank lines form one block, separated by one or
// more blank lines.
type TXTParser struct{}

func NewTXTParser() *TXTParser { return &TXTParser{} }

func (p *TXTParser) Supports(ext string) bool { return ext == ".txt" }

func (p *TXTParser) Parse(filename string, data []byte) ([]domain.ParsedBlock, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var blocks []domain.ParsedBlock
	var group []string
	flush := func() {
		if len(group) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(group, "\n"))
		if joined != "" {
			blocks = append(blocks, domain.ParsedBlock{Text: joined, PageNo: 1, BlockKind: domain.BlockParagraph})
		}
		group = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		group = append(group, line)
	}
	flush()

	if len(blocks) == 0 {
		return nil, domain.NewError(domain.KindParseError, filename+": no content", nil)
	}
	return blocks, nil
}
