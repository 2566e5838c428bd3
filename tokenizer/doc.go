// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

/*
Package tokenizer 把 (文本, 后端键) 路由到三个分词后端之一, 并产出 token 数量与
token 片段。

# 后端

后端键是封闭集合:

  - tiktoken: 基于 github.com/pkoukk/tiktoken-go 的 cl100k_base 编码, 不提供偏移,
    片段通过逐个解码 token 得到, 非法 UTF-8 字节替换为 U+FFFD
  - deepseek3.1 / gpt-oss-120b: 本地 HuggingFace tokenizer.json, 由子包
    tokenizer/hftokenizer 解析, 提供字节偏移, 片段直接切自输入

未知键 (包括空串) 静默回退到 tiktoken。

# 核心类型

  - Backend: 统一后端接口, 可选实现 TokenDecoder 与 VocabSizer
  - Registry: 启动时构建的只读注册表, 负责键解析与回退
  - Dispatcher: 无状态分发器, CountAndTokenize 保证 Count == len(Tokens)
  - Load: 按配置并发加载全部后端, 任一失败返回 TOKENIZER_NOT_LOADED

# 使用示例

	reg, err := tokenizer.Load(ctx, cfg.Tokenizers, logger)
	if err != nil {
		return err
	}
	d := tokenizer.NewDispatcher(reg, logger, tokenizer.WithObserver(collector))
	res, err := d.CountAndTokenize(ctx, "你好，今天过得怎么样？", "deepseek3.1")
*/
package tokenizer
