package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/tokencounter/api"
	"github.com/BaSui01/tokencounter/tokenizer"
	"github.com/BaSui01/tokencounter/types"
)

// =============================================================================
// 🔢 Token 计算 Handler
// =============================================================================

// TokenHandler 处理 /api/token 与 /api/tokenizers
type TokenHandler struct {
	dispatcher   *tokenizer.Dispatcher
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewTokenHandler 创建 Token 计算处理器; maxBodyBytes <= 0 表示不限制.
func NewTokenHandler(dispatcher *tokenizer.Dispatcher, maxBodyBytes int64, logger *zap.Logger) *TokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenHandler{
		dispatcher:   dispatcher,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.With(zap.String("handler", "token")),
	}
}

// HandleCountTokens 处理 POST /api/token
// @Summary 计算文本 Token
// @Description 根据指定的文本和分词器类型，计算 Token 数量并返回 Token 列表。未知的分词器类型回退到 tiktoken。
// @Tags token
// @Accept json
// @Produce json
// @Param request body api.TokenRequest true "Token 计算请求"
// @Success 200 {object} api.TokenResponse "计算结果"
// @Failure 400 {object} Response "请求格式错误"
// @Failure 500 {object} Response "分词失败"
// @Router /api/token [post]
func (h *TokenHandler) HandleCountTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		WriteRequestError(w, r, types.NewError(types.ErrMethodNotAllowed, "method not allowed").
			WithHTTPStatus(http.StatusMethodNotAllowed), h.logger)
		return
	}

	var req api.TokenRequest
	if err := DecodeJSONBody(w, r, &req, h.maxBodyBytes, h.logger); err != nil {
		return
	}
	if req.Text == nil {
		WriteRequestError(w, r, types.NewError(types.ErrInvalidRequest, "text is required").
			WithHTTPStatus(http.StatusBadRequest), h.logger)
		return
	}

	key := req.TokenizerType
	if key == "" {
		key = tokenizer.DefaultKey
	}

	res, err := h.dispatcher.CountAndTokenize(r.Context(), *req.Text, key)
	if err != nil {
		apiErr, ok := types.AsError(err)
		if !ok {
			apiErr = types.NewError(types.ErrInternalError, "tokenization failed").WithCause(err)
		}
		WriteRequestError(w, r, apiErr, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.TokenResponse{
		Count:  res.Count,
		Tokens: res.Tokens,
	})
}

// HandleListTokenizers 处理 GET /api/tokenizers
// @Summary 分词后端列表
// @Tags token
// @Produce json
// @Success 200 {object} Response{data=api.TokenizersResponse} "后端列表"
// @Router /api/tokenizers [get]
func (h *TokenHandler) HandleListTokenizers(w http.ResponseWriter, r *http.Request) {
	infos := h.dispatcher.Registry().Describe()
	out := api.TokenizersResponse{
		Default:    tokenizer.DefaultKey,
		Tokenizers: make([]api.TokenizerInfo, 0, len(infos)),
	}
	for _, info := range infos {
		out.Tokenizers = append(out.Tokenizers, api.TokenizerInfo{
			Key:       info.Key,
			Backend:   info.Name,
			VocabSize: info.VocabSize,
			Offsets:   info.Offsets,
			Default:   info.Default,
		})
	}
	WriteSuccess(w, out)
}
