package api

// =============================================================================
// Token 计算类型
// =============================================================================

// TokenRequest 是 POST /api/token 的请求体.
// @Description Token 计算请求结构
type TokenRequest struct {
	// 需要计算 Token 的文本内容, 必填 (可以为空串)
	Text *string `json:"text" example:"你好，世界！"`
	// 分词器类型: tiktoken (默认), deepseek3.1, gpt-oss-120b.
	// 未知值静默回退到 tiktoken.
	TokenizerType string `json:"tokenizer_type,omitempty" example:"deepseek3.1"`
}

// TokenResponse 是 POST /api/token 的成功响应, 不使用统一信封.
// @Description Token 计算结果
type TokenResponse struct {
	// Token 数量, 恒等于 len(Tokens)
	Count int `json:"count" example:"7"`
	// 每个 Token 对应的文本片段
	Tokens []string `json:"tokens"`
}

// =============================================================================
// 分词器描述类型
// =============================================================================

// TokenizerInfo 描述一个可用的分词后端.
// @Description 分词后端信息
type TokenizerInfo struct {
	// 请求中使用的键
	Key string `json:"key" example:"deepseek3.1"`
	// 后端描述
	Backend string `json:"backend" example:"huggingface[deepseek3.1/BPE]"`
	// 词表大小, 未知时省略
	VocabSize int `json:"vocab_size,omitempty" example:"128815"`
	// 片段是否直接切自输入 (否则为逐 token 解码)
	Offsets bool `json:"offsets"`
	// 是否为未知键的回退目标
	Default bool `json:"default"`
}

// TokenizersResponse 是 GET /api/tokenizers 的数据部分.
// @Description 分词后端列表
type TokenizersResponse struct {
	// 未知键回退到的后端
	Default string `json:"default" example:"tiktoken"`
	// 按页面顺序排列的后端
	Tokenizers []TokenizerInfo `json:"tokenizers"`
}
