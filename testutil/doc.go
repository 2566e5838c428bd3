// Copyright (c) TokenCounter Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 tokencounter 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，避免重复实现
相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / CancelledContext
  - 分词断言: AssertFragmentsTile 检查片段拼接还原输入，
    AssertValidUTF8 检查解码片段均为合法 UTF-8
  - 异步等待: WaitFor
  - 数据工具: MustJSON

# 子包

  - testutil/mocks: 分词后端模拟实现 RuneBackend（带偏移）、
    ByteBackend（无偏移，逐字节）、FuncBackend（错误 / panic 注入），
    以及一键构建完整注册表的 NewRegistry
  - testutil/fixtures: 生成小型字节级 BPE tokenizer.json，
    以及界面示例输入 ExampleInputs

# 使用示例

	reg, _ := mocks.NewRegistry()
	d := tokenizer.NewDispatcher(reg, zap.NewNop())
	res, err := d.CountAndTokenize(testutil.TestContext(t), "hi", "deepseek3.1")
	testutil.AssertFragmentsTile(t, "hi", res.Tokens)
*/
package testutil
