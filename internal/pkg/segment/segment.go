package segment

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
	"github.com/rs/zerolog/log"
)

// Segmenter 中英文分词器
// gse 词典加载较慢，进程内共享一个实例
type Segmenter struct {
	seg *gse.Segmenter // 加载失败时为 nil，降级为按字符/空白切分
}

var (
	defaultOnce sync.Once
	defaultSeg  *Segmenter
)

// Default 返回共享分词器
func Default() *Segmenter {
	defaultOnce.Do(func() {
		defaultSeg = New()
	})
	return defaultSeg
}

// New 创建分词器并加载默认词典
func New() *Segmenter {
	seg, err := gse.New()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load gse dictionary, falling back to rune segmentation")
		return &Segmenter{}
	}
	return &Segmenter{seg: &seg}
}

// Words 切分为有效词（小写，去除空白与标点）
func (s *Segmenter) Words(text string) []string {
	var raw []string
	if s.seg != nil {
		raw = s.seg.Cut(text, true)
	} else {
		raw = fallbackCut(text)
	}

	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || !hasLetterOrDigit(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

// Keywords 去重后的关键词，保持出现顺序，忽略单个 ASCII 字符
func (s *Segmenter) Keywords(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range s.Words(text) {
		if len(w) == 1 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// fallbackCut 英文按空白，汉字按单字
func fallbackCut(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			out = append(out, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return out
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
