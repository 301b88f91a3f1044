package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Ingestion errors.
var (
	// ErrConversion indicates an unreadable or unsupported document.
	ErrConversion = Register(&Errno{
		Code:      MakeCode(ServiceIngestion, CategoryRequest, 0),
		HTTP:      http.StatusUnprocessableEntity,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Document conversion failed",
		MessageZH: "文档转换失败",
	})

	// ErrNoChunks indicates that a document produced no qualifying chunks.
	ErrNoChunks = Register(&Errno{
		Code:      MakeCode(ServiceIngestion, CategoryRequest, 1),
		HTTP:      http.StatusUnprocessableEntity,
		GRPCCode:  codes.FailedPrecondition,
		MessageEN: "No text chunks could be extracted",
		MessageZH: "未能提取任何文本块",
	})

	// ErrEmbedding indicates an embedding service failure.
	ErrEmbedding = Register(&Errno{
		Code:      MakeCode(ServiceIngestion, CategoryNetwork, 0),
		HTTP:      http.StatusBadGateway,
		GRPCCode:  codes.Unavailable,
		MessageEN: "Embedding service failure",
		MessageZH: "向量化服务失败",
	})

	// ErrVectorStore indicates a vector store failure.
	ErrVectorStore = Register(&Errno{
		Code:      MakeCode(ServiceIngestion, CategoryDatabase, 0),
		HTTP:      http.StatusBadGateway,
		GRPCCode:  codes.Unavailable,
		MessageEN: "Vector store failure",
		MessageZH: "向量存储失败",
	})
)

// Query errors.
var (
	// ErrGeneration indicates a generative model failure.
	ErrGeneration = Register(&Errno{
		Code:      MakeCode(ServiceQuery, CategoryNetwork, 0),
		HTTP:      http.StatusBadGateway,
		GRPCCode:  codes.Unavailable,
		MessageEN: "Generative model failure",
		MessageZH: "生成模型调用失败",
	})
)

// Evaluation errors.
var (
	// ErrJudgeParse indicates a malformed structured response from the judge model.
	ErrJudgeParse = Register(&Errno{
		Code:      MakeCode(ServiceEvaluation, CategoryInternal, 0),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Judge response could not be parsed",
		MessageZH: "评估结果解析失败",
	})

	// ErrQueueFull indicates that the evaluation queue rejected a job.
	ErrQueueFull = Register(&Errno{
		Code:      MakeCode(ServiceEvaluation, CategoryConflict, 0),
		HTTP:      http.StatusServiceUnavailable,
		GRPCCode:  codes.ResourceExhausted,
		MessageEN: "Evaluation queue is full",
		MessageZH: "评估队列已满",
	})
)
