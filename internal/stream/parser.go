package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Parser 跨字节块维护未完成的行
// 块边界与行边界无关，未以换行结束的尾部保留到下一次 Feed
type Parser struct {
	buffer  []byte
	skipped int
}

// Feed 追加一个字节块并对其中每一条完整行回调 fn
// fn 返回 false 时停止处理，Feed 随即返回 false
func (p *Parser) Feed(chunk []byte, fn func(Event) bool) bool {
	p.buffer = append(p.buffer, chunk...)

	for {
		idx := bytes.IndexByte(p.buffer, '\n')
		if idx == -1 {
			break
		}

		line := strings.TrimRight(string(p.buffer[:idx]), "\r")
		p.buffer = p.buffer[idx+1:]

		if !p.line(line, fn) {
			return false
		}
	}

	if len(p.buffer) == 0 {
		p.buffer = nil
	}
	return true
}

// Flush 把缓冲区剩余内容当作最后一行处理
// 仅在流关闭后调用
func (p *Parser) Flush(fn func(Event) bool) bool {
	if len(p.buffer) == 0 {
		return true
	}
	line := strings.TrimRight(string(p.buffer), "\r")
	p.buffer = nil
	return p.line(line, fn)
}

// Pending 尚未组成完整行的字节数
func (p *Parser) Pending() int {
	return len(p.buffer)
}

// Skipped 被丢弃的无法解析的 data 行数量
func (p *Parser) Skipped() int {
	return p.skipped
}

func (p *Parser) line(line string, fn func(Event) bool) bool {
	ev, ok, malformed := ParseLine(line)
	if malformed {
		p.skipped++
	}
	if !ok {
		return true
	}
	return fn(ev)
}

// ParseLine 解析单行
// ok 为 false 表示该行不产生事件；malformed 表示 data 行载荷不是合法 JSON
func ParseLine(line string) (ev Event, ok bool, malformed bool) {
	if !strings.HasPrefix(line, DataPrefix) {
		return Event{}, false, false
	}
	data := line[len(DataPrefix):]

	if data == DoneSentinel {
		return Event{Type: EventStreamEnd}, true, false
	}

	var frame wireFrame
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		return Event{}, false, true
	}

	if frame.Content != nil && *frame.Content != "" {
		return Event{Type: EventContentDelta, Content: *frame.Content}, true, false
	}
	if usage, valid := frame.Usage.toModel(); valid {
		return Event{Type: EventUsageReport, Usage: usage}, true, false
	}
	if frame.Error != nil {
		msg := *frame.Error
		if msg == "" {
			msg = "AI service error"
		}
		return Event{Type: EventStreamError, Error: msg}, true, false
	}

	return Event{}, false, false
}
