// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 middleware 提供请求发送到上游模型服务之前的改写器链机制，用于在
请求离开调度器之前插入可组合的参数清理与转换逻辑。

# 核心接口

  - RequestRewriter：请求改写器接口，包含 Rewrite 与 Name 方法。
  - RewriterChain：改写器链，按顺序执行多个 RequestRewriter，任一失败
    即中断并返回带改写器名称的错误。

# 内置改写器

  - EmptyToolsCleaner：清理空的 tools 字段，避免部分上游 API 在收到
    长度为零的工具列表时报错。

dispatch.Dispatcher 与各 provider 适配器都持有自己的 RewriterChain 实例，
由 orchestrator 在装配阶段按 provider 组装具体的改写器顺序。
*/
package middleware
