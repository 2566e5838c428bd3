// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP 与分词两大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制。所有指标按 namespace 隔离，测试中可以通过
NewCollectorWithRegisterer 注册到独立的 Registry。

# 核心类型

  - Collector：指标收集器，同时实现 tokenizer.Observer。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 分词指标：调用次数（backend/status）、耗时、产出 token 总数、
    未知键回退次数（empty/unknown），以及各后端词表大小。
*/
package metrics
