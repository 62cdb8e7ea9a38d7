package textsplit

import "strings"

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// 分割点优先级：句末标点 > 换行 > 空格
var (
	sentenceDelimiters = []rune{'。', '！', '？', '.', '!', '?'}
	lineDelimiters     = []rune{'\n'}
	wordDelimiters     = []rune{' '}
)

// Splitter 文本分块器
// 长度按字符（rune）计算，相邻块之间保留 overlap 个字符的重叠
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter 创建分块器，非法参数回退到默认值
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split 将文本切分为若干块
//
// 每块最长 chunkSize 个字符。非最后一块时在 [start+overlap, end) 内
// 从后往前寻找最合适的分割点，找不到则在 chunkSize 处强制切分。
// 下一块从 end-overlap 开始，保证每轮至少前进一个字符。
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < n {
		end := min(start+s.chunkSize, n)
		if end < n && s.overlap > 0 {
			if p := findSplitPoint(runes, start+s.overlap, end); p > start {
				end = p
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// findSplitPoint 返回分隔符之后的位置，找不到返回 -1
func findSplitPoint(runes []rune, lo, hi int) int {
	if lo >= hi {
		return -1
	}
	for _, group := range [][]rune{sentenceDelimiters, lineDelimiters, wordDelimiters} {
		for _, d := range group {
			if pos := lastIndex(runes, d, lo, hi); pos != -1 {
				return pos + 1
			}
		}
	}
	return -1
}

func lastIndex(runes []rune, r rune, lo, hi int) int {
	for i := hi - 1; i >= lo; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
