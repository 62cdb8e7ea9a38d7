package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	ErrUnsupportedType     = errors.New("不支持的文件类型")
	ErrUnsupportedEncoding = errors.New("不支持的文本编码格式")
	ErrEmptyContent        = errors.New("文档内容为空")
)

// Text 按扩展名从原始文件内容提取纯文本
func Text(ext string, content []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "txt", "md":
		text, err = PlainText(content)
	case "pdf":
		text, err = PDF(content)
	case "docx":
		text, err = DOCX(content)
	case "html", "htm":
		text, err = HTML(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// PlainText UTF-8 解码，失败时按 GBK 解码
func PlainText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return string(content), nil
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(content)
	if err != nil || !utf8.Valid(decoded) {
		return "", ErrUnsupportedEncoding
	}
	return string(decoded), nil
}

// PDF 逐页提取文本，解析库内部 panic 转为错误
func PDF(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("PDF处理失败: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("PDF处理失败: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			return "", fmt.Errorf("PDF处理失败: 第 %d 页: %w", i, perr)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// DOCX 读取 word/document.xml 中的文本段落
func DOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("DOCX处理失败: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("DOCX处理失败: %w", err)
		}
		defer rc.Close()
		return docxParagraphs(rc)
	}
	return "", fmt.Errorf("DOCX处理失败: 缺少 word/document.xml")
}

// docxParagraphs 收集 w:t 文本，每个 w:p 结束换行
func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("DOCX处理失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

var (
	htmlSkipped = map[atom.Atom]bool{atom.Script: true, atom.Style: true, atom.Head: true, atom.Noscript: true}
	htmlBlocks  = map[atom.Atom]bool{
		atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true,
		atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	}
)

// HTML 去掉标签，保留块级元素的换行
func HTML(content []byte) (string, error) {
	text, err := PlainText(content)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return sb.String(), nil
			}
			return "", z.Err()
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if htmlSkipped[a] {
				skip++
			} else if a == atom.Br {
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if htmlSkipped[a] {
				if skip > 0 {
					skip--
				}
			} else if htmlBlocks[a] {
				sb.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Br {
				sb.WriteByte('\n')
			}
		}
	}
}
