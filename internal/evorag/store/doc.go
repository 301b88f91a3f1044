// Package store 提供 EvoRAG 的向量存储抽象。
//
// VectorStore 接口屏蔽具体向量数据库，Milvus 为生产实现，
// Memory 为进程内实现，供测试和本地调试使用。
package store
