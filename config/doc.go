// Package config 提供 TokenCounter 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量 (TOKENCOUNTER_ 前缀) 的顺序叠加,
// 加载后由 Validate 做一次性校验。配置只在启动时读取, 不支持热重载。
package config
