// Package tlsutil 提供集中式 TLS 配置,
// API 服务端 (可选 HTTPS) 与 health 子命令的客户端共用同一套加固参数（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
