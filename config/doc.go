// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config 提供 llmcore 的配置管理功能。

# 概述

config 包负责应用配置的加载与校验。配置按
"默认值 -> YAML 文件 -> 环境变量" 的优先级合并。

# 核心结构

  - Config: 顶层配置聚合，涵盖 Providers（三个上游服务商的
    端点/成本闸门）、Credential（冷却曲线、压力告警阈值）、
    Cache（响应缓存 TTL 与容量）、Enrichment（富化缓存 TTL）、
    Dispatch（限流、重试）、Redis、Log、Telemetry
  - Loader: 配置加载器，支持 Builder 模式链式设置
    文件路径、环境变量前缀与自定义验证器

# 主要能力

  - 多源加载: YAML 文件、环境变量（LLMCORE_ 前缀）、默认值
  - 配置验证: 内置基础校验（限流、冷却曲线、缓存容量）+
    自定义验证器钩子

# 使用示例

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		WithEnvPrefix("LLMCORE").
		Load()
*/
package config
