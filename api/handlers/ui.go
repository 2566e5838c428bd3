package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/tokencounter/tokenizer"
	"github.com/BaSui01/tokencounter/types"
	"github.com/BaSui01/tokencounter/visualize"
)

// =============================================================================
// 🖥️ 交互页面 Handler
// =============================================================================

//go:embed templates/token.html
var templateFS embed.FS

var tokenPage = template.Must(template.ParseFS(templateFS, "templates/token.html"))

// exampleInputs 页面底部的示例文本
var exampleInputs = []string{
	"你好，今天过得怎么样？",
	"The quick brown fox jumps over the lazy dog.",
	"这是一个较长的示例文本，用于演示此工具的 Token 计算功能。如您所见，文本越长，Token 数量越多。",
}

// uiChoiceOrder 单选框顺序
var uiChoiceOrder = []string{tokenizer.KeyDeepSeek, tokenizer.KeyTiktoken, tokenizer.KeyGPTOSS}

type uiChoice struct {
	Key     string
	Checked bool
}

type uiPage struct {
	Action        string
	Text          string
	Selected      string
	Choices       []uiChoice
	Examples      []string
	HasResult     bool
	Count         int
	Visualization template.HTML
	Error         string
}

// UIHandler 渲染 /token 页面
type UIHandler struct {
	dispatcher       *tokenizer.Dispatcher
	defaultTokenizer string
	maxBodyBytes     int64
	logger           *zap.Logger
}

// NewUIHandler 创建页面处理器. defaultTokenizer 为空时使用 deepseek3.1.
func NewUIHandler(dispatcher *tokenizer.Dispatcher, defaultTokenizer string, maxBodyBytes int64, logger *zap.Logger) *UIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTokenizer == "" {
		defaultTokenizer = tokenizer.KeyDeepSeek
	}
	return &UIHandler{
		dispatcher:       dispatcher,
		defaultTokenizer: defaultTokenizer,
		maxBodyBytes:     maxBodyBytes,
		logger:           logger.With(zap.String("handler", "ui")),
	}
}

// ServeHTTP GET 显示表单 (?text= 与 ?tokenizer= 预填), POST 计算并回显结果.
func (h *UIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := uiPage{
		Action:   r.URL.Path,
		Examples: exampleInputs,
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		q := r.URL.Query()
		page.Text = q.Get("text")
		page.Selected = h.selected(q.Get("tokenizer"))

	case http.MethodPost:
		if h.maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		}
		if err := r.ParseForm(); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		page.Text = r.PostForm.Get("text")
		page.Selected = h.selected(r.PostForm.Get("tokenizer"))

		res, err := h.dispatcher.CountAndTokenize(r.Context(), page.Text, page.Selected)
		if err != nil {
			h.logger.Warn("page tokenization failed",
				zap.String("tokenizer", page.Selected),
				zap.String("code", string(types.GetErrorCode(err))),
				zap.Error(err),
			)
			page.Error = "分词失败: " + err.Error()
			h.render(w, http.StatusInternalServerError, page)
			return
		}
		page.HasResult = true
		page.Count = res.Count
		// Render 已转义每个片段
		page.Visualization = template.HTML(visualize.Render(res.Tokens))

	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.render(w, http.StatusOK, page)
}

// selected 把空选项替换为默认分词器. 未知的值原样交给 Dispatcher 回退.
func (h *UIHandler) selected(key string) string {
	if key == "" {
		return h.defaultTokenizer
	}
	return key
}

func (h *UIHandler) render(w http.ResponseWriter, status int, page uiPage) {
	page.Choices = make([]uiChoice, 0, len(uiChoiceOrder))
	for _, key := range uiChoiceOrder {
		page.Choices = append(page.Choices, uiChoice{Key: key, Checked: key == page.Selected})
	}

	var buf bytes.Buffer
	if err := tokenPage.Execute(&buf, page); err != nil {
		h.logger.Error("render page failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
