package service

import (
	"log"
	"strings"
	"unicode/utf8"
)

const maxReportLogRunes = 800

// logReportExchange 输出生成请求/响应的片段，便于排查模型行为。
func logReportExchange(phase, content string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		log.Printf("[AI REPORT] %s: <empty>", phase)
		return
	}

	snippet := trimmed
	if utf8.RuneCountInString(trimmed) > maxReportLogRunes {
		snippet = string([]rune(trimmed)[:maxReportLogRunes]) + "…(truncated)"
	}
	log.Printf("[AI REPORT] %s: %s", phase, snippet)
}
