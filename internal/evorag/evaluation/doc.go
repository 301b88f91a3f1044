// Package evaluation 提供异步评估流水线。
//
// 每次问答完成后，Orchestrator 将交互记录作为 judge_and_log 任务投递到队列；
// 后台 worker 调用 Judge 打分，再由 Sink 追加写入评估日志。
// 评估过程与用户请求完全解耦，任何失败都不会影响已返回的答案。
package evaluation
