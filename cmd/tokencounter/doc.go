// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

/*
Package main 提供 TokenCounter 服务端程序入口。

# 概述

cmd/tokencounter 是 Token 计算服务的可执行入口，提供 HTTP 服务、
终端计算、健康检查和版本查询等子命令。程序支持 YAML 配置文件加载、
结构化日志（zap）、Prometheus 指标采集以及 OpenTelemetry 追踪。

# 核心类型

  - Server      - 主服务器，管理 API 与 Metrics 双端口及优雅关闭
  - Middleware  - HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、count（终端彩色输出）、version、health
  - 启动时并行加载三个分词后端，任一失败即退出
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    Metrics、OTelTracing、CORS、RateLimiter（基于 IP）、APIKeyAuth
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：SIGINT/SIGTERM → 关闭 HTTP → 关闭 Metrics → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
