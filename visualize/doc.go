// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

// Package visualize 把 token 片段渲染成带颜色的标记.
//
// Render 生成 HTML (用于 /token 页面), ANSIRenderer 生成终端彩色输出
// (用于 CLI). 两者都使用同一个 5 色循环调色板, 都是纯函数.
package visualize
