// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 TokenCounter HTTP 接口与交互页面的请求处理器。

# 概述

handlers 包实现 Token 计算 API、分词后端列表、/token 交互页面、
健康检查以及统一的响应/错误处理。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - TokenHandler          - POST /api/token 与 GET /api/tokenizers
  - UIHandler             - /token 页面（表单 + 彩色 Token 可视化）
  - HealthHandler         - 服务健康检查（/health, /healthz, /ready）
  - TokenizerHealthCheck  - 逐个探测已加载的分词后端
  - Response / ErrorInfo  - 统一 JSON 响应与结构化错误
  - ResponseWriter        - 包装 http.ResponseWriter 以捕获状态码

# 响应格式

/api/token 成功时直接返回 {"count": N, "tokens": [...]}，失败时返回
Response 包装的错误。其余 JSON 接口统一使用 WriteSuccess / WriteError。

# 请求验证

DecodeJSONBody 限制请求体大小（超出返回 413），忽略未知字段，
并拒绝包含多个 JSON 值的请求体。
*/
package handlers
