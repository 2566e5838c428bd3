// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动与优雅关闭。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。tokencounter 为 API 服务与 metrics 服务
各创建一个 Manager。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与异步错误通道，
    提供 Start/Shutdown/Wait 等生命周期方法。
  - Config：监听地址、读写超时、空闲超时、最大请求头大小与
    优雅关闭超时。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 优雅关闭：Shutdown 在配置的超时内完成请求排空，可重复调用。
  - 等待退出：Wait 在 ctx 结束 (由 signal.NotifyContext 触发) 或
    服务异常退出时关闭服务器。
  - 状态查询：IsRunning/Addr，Addr 在监听 ":0" 时返回实际端口。
*/
package server
