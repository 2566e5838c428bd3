// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

/*
Package types 提供 tokencounter 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 tokenizer、api、
cmd 等上层模块提供统一的错误与上下文契约。

# 核心类型

  - Error / ErrorCode - 结构化错误，含 HTTP 状态码与出错的分词器名称
  - WithRequestID / RequestID - 请求 ID 在 context 中的传播
  - WithTraceID / TraceID     - 追踪 ID 在 context 中的传播
*/
package types
