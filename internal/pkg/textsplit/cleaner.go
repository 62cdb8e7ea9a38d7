package textsplit

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// 保留汉字、英文、数字、空白和基本标点（含中文标点）
	disallowedRe = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s.,!?;:()"'。，！？；：、“”‘’（）《》【】…]`)
)

// Clean 清理提取出的原始文本：合并空白并移除特殊字符
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// EstimateTokens 估算 token 数
// 非 ASCII 字符约 1.5 token，ASCII 字符约 3 个 1 token
func EstimateTokens(text string) int {
	var nonASCII, ascii int
	for _, r := range text {
		if r > 127 {
			nonASCII++
		} else {
			ascii++
		}
	}
	return int(float64(nonASCII)*1.5 + float64(ascii)/3)
}

// Truncate 按字符截断，超长时追加 "..."
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + "..."
}
