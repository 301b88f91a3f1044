// Package biz 提供 EvoRAG 的业务逻辑层。
//
// 组件自底向上：
//   - DeriveChunkID: 基于来源、序号和内容的确定性块 ID
//   - Chunker: 按标题感知、字数受限的语义分块
//   - IngestionPipeline: 转换、分块、批量向量化、写入与删除
//   - Orchestrator: 查询重写、检索、答案生成，并异步派发评估任务
package biz
