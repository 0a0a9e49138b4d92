package ai

import (
	"fmt"
	"strings"
)

const defaultSystemPrompt = "你是一个乐于助人的 AI 助手，请用简洁、准确的中文回答用户的问题。"

// BuildSystemPrompt assembles the system slot of the chat chain. When a
// context document was injected at startup, the model is instructed to
// ground its answers in it.
func BuildSystemPrompt(document string) string {
	document = strings.TrimSpace(document)
	if document == "" {
		return defaultSystemPrompt
	}

	var builder strings.Builder
	builder.WriteString(defaultSystemPrompt)
	builder.WriteString("\n\n请基于以下文档内容来回答用户的问题。\n")
	builder.WriteString(fmt.Sprintf("---\n文档内容：\n%s\n---", document))
	return builder.String()
}
