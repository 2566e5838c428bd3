package visualize

import (
	"html"
	"strings"
)

// Palette 是片段背景色, 按片段序号对长度取模循环使用.
var Palette = [...]string{
	"rgba(107,64,216,.3)",
	"rgba(104,222,122,.4)",
	"rgba(244,172,54,.4)",
	"rgba(239,65,70,.4)",
	"rgba(39,181,234,.4)",
}

const (
	containerOpen  = `<div style="font-family: monospace; line-height: 1.5; font-size: 16px; border: 1px solid #ddd; padding: 10px; border-radius: 5px; white-space: pre-wrap; background-color: #fff; color: #000;">`
	containerClose = `</div>`
)

// ColorAt 返回第 i 个片段的背景色.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

// Render 把片段渲染为一段可直接嵌入页面的 HTML.
//
// 空输入返回 "". 每个片段都会转义 < > & ' ", 空白字符原样保留,
// 由容器的 white-space: pre-wrap 负责显示.
func Render(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(containerOpen) + len(containerClose) + len(fragments)*64)
	b.WriteString(containerOpen)
	for i, f := range fragments {
		b.WriteString(`<span style="background-color: `)
		b.WriteString(ColorAt(i))
		b.WriteString(`;">`)
		b.WriteString(html.EscapeString(f))
		b.WriteString(`</span>`)
	}
	b.WriteString(containerClose)
	return b.String()
}
