package answer

import (
	"fmt"
	"strings"

	"rag-orchestrator/internal/domain"
)

// sourcedChunk pairs a retrieved chunk with the "S<n>" label it is offered
// to the model under, assigned by rank order before generation.
type sourcedChunk struct {
	SourceID string
	Hit      domain.SearchResult
}

func assignSourceIDs(hits []domain.SearchResult) []sourcedChunk {
	out := make([]sourcedChunk, len(hits))
	for i, h := range hits {
		out[i] = sourcedChunk{SourceID: fmt.Sprintf("S%d", i+1), Hit: h}
	}
	return out
}

// buildMessages composes the chat messages sent to the LLM: a system
// message carrying citation instructions, and a user message carrying the
// ranked source list plus bounded prior turns and the question, in the
// teacher's XML-tagged-section style (internal/usecase/prompt_builder.go).
func buildMessages(query string, sources []sourcedChunk, history []domain.Turn) []domain.ChatMessage {
	var sys strings.Builder
	sys.WriteString("<instructions>\n")
	sys.WriteString("  <line>你是一个审计合规问答助手，只能依据下方 &lt;sources&gt; 中提供的资料回答问题。</line>\n")
	sys.WriteString("  <line>回答中的每一条事实性陈述后面，必须紧跟引用标记，例如 [S1] 或 [S2][S3]。</line>\n")
	sys.WriteString("  <line>引用标记必须使用 &lt;sources&gt; 中出现过的 source_id，禁止编造资料或引用不存在的编号。</line>\n")
	sys.WriteString("  <line>如果提供的资料都无法回答问题，明确说明资料不足，不要编造答案。</line>\n")
	sys.WriteString("  <line>直接输出回答正文，不要输出 JSON 或其他包装格式。</line>\n")
	sys.WriteString("</instructions>\n")

	var user strings.Builder
	user.WriteString("<sources>\n")
	for _, s := range sources {
		user.WriteString("  <source>\n")
		user.WriteString("    <source_id>" + escape(s.SourceID) + "</source_id>\n")
		user.WriteString("    <filename>" + escape(s.Hit.Metadata.Filename) + "</filename>\n")
		if len(s.Hit.Metadata.SectionPath) > 0 {
			user.WriteString("    <section>" + escape(strings.Join(s.Hit.Metadata.SectionPath, " / ")) + "</section>\n")
		}
		user.WriteString("    <text>" + escape(s.Hit.Text) + "</text>\n")
		user.WriteString("  </source>\n")
	}
	user.WriteString("</sources>\n\n")

	if len(history) > 0 {
		user.WriteString("<history>\n")
		for _, t := range history {
			user.WriteString("  <turn role=\"" + escape(t.Role) + "\">" + escape(t.Content) + "</turn>\n")
		}
		user.WriteString("</history>\n\n")
	}

	user.WriteString("<question>\n" + escape(query) + "\n</question>\n")

	return []domain.ChatMessage{
		{Role: "system", Content: sys.String()},
		{Role: "user", Content: user.String()},
	}
}

func escape(value string) string {
	s := strings.TrimSpace(value)
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}
