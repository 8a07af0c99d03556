package reeltools

import (
	"regexp"
	"strings"
)

var markdownFence = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*\\n(.*?)\\n\\s*```\\s*$")

// CleanJSONContent 清理 LLM 返回的 JSON 内容
// 移除 markdown 代码块标记以及 JSON 前后的说明文字
func CleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if matches := markdownFence.FindStringSubmatch(content); len(matches) > 1 {
		content = matches[1]
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// 模型有时在 JSON 前后附带说明，截取最外层的对象或数组
	start := strings.IndexAny(content, "{[")
	if start > 0 {
		content = content[start:]
	}
	if end := strings.LastIndexAny(content, "}]"); end >= 0 && end < len(content)-1 {
		content = content[:end+1]
	}
	return content
}
