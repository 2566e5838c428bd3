package visualize

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// terminalPalette 是 Palette 叠加在白底上的近似不透明色.
var terminalPalette = [len(Palette)]lipgloss.Color{
	"#D3C6F3",
	"#C3F2CA",
	"#FBDEAF",
	"#F9B3B5",
	"#A9E1F7",
}

// ANSIRenderer 用终端背景色显示片段, 供 CLI 的 count 子命令使用.
type ANSIRenderer struct {
	styles [len(Palette)]lipgloss.Style
}

// NewANSIRenderer 基于给定的 lipgloss.Renderer 创建渲染器;
// r 为 nil 时使用默认渲染器 (根据 stdout 探测颜色能力).
func NewANSIRenderer(r *lipgloss.Renderer) *ANSIRenderer {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	a := &ANSIRenderer{}
	for i, c := range terminalPalette {
		a.styles[i] = r.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#000000")).
			TabWidth(lipgloss.NoTabConversion)
	}
	return a
}

// Render 按 Palette 的顺序为每个片段着色.
// 换行符不着色, 以免 lipgloss 把多行片段补齐成等宽块.
func (a *ANSIRenderer) Render(fragments []string) string {
	var b strings.Builder
	for i, f := range fragments {
		style := a.styles[i%len(a.styles)]
		for j, line := range strings.Split(f, "\n") {
			if j > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
	}
	return b.String()
}

// RenderANSI 使用默认渲染器着色.
func RenderANSI(fragments []string) string {
	return NewANSIRenderer(nil).Render(fragments)
}
