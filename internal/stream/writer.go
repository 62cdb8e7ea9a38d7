package stream

import (
	"encoding/json"
	"io"
	"net/http"

	"docchat/internal/model"
)

// Writer 服务端 SSE 帧编码器，每帧写完立即 flush
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter 创建编码器
func NewWriter(w io.Writer) *Writer {
	f, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: f}
}

// SetHeaders 设置 SSE 响应头
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// WriteContent 写内容帧
func (w *Writer) WriteContent(content string) error {
	return w.writeFrame(Frame{Content: content})
}

// WriteUsage 写用量帧
func (w *Writer) WriteUsage(usage model.TokenUsage) error {
	return w.writeFrame(Frame{Usage: &usage})
}

// WriteError 写错误帧
func (w *Writer) WriteError(message string) error {
	if message == "" {
		message = "AI service error"
	}
	return w.writeFrame(Frame{Error: message})
}

// WriteDone 写结束标记
func (w *Writer) WriteDone() error {
	return w.writeRaw(DoneSentinel)
}

func (w *Writer) writeFrame(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return w.writeRaw(string(data))
}

func (w *Writer) writeRaw(payload string) error {
	if _, err := io.WriteString(w.w, DataPrefix+payload+"\n\n"); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
