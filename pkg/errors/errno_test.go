package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	code := MakeCode(ServiceIngestion, CategoryRequest, 1)
	assert.Equal(t, 2001001, code)
	assert.Equal(t, ServiceIngestion, GetService(code))
	assert.Equal(t, CategoryRequest, GetCategory(code))
}

func TestErrno_WithCauseKeepsIdentity(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ErrVectorStore.WithCause(cause)

	assert.True(t, stderrors.Is(err, ErrVectorStore))
	assert.True(t, stderrors.Is(err, cause))
	assert.False(t, stderrors.Is(err, ErrEmbedding))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
	assert.Equal(t, codes.Unavailable, err.GRPCStatus())
	// 原始错误不应被修改
	assert.Nil(t, ErrVectorStore.Unwrap())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("ingest: %w", ErrNoChunks)
	assert.Equal(t, ErrNoChunks.Code, FromError(wrapped).Code)
	assert.True(t, IsCode(wrapped, ErrNoChunks.Code))

	plain := FromError(stderrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
}

func TestErrno_Message(t *testing.T) {
	assert.Equal(t, "未能提取任何文本块", ErrNoChunks.Message("zh-CN"))
	assert.Equal(t, "No text chunks could be extracted", ErrNoChunks.Message("en"))
	assert.Equal(t, "query is required", ErrInvalidParam.WithMessage("query is required").Message("en"))

	e := ErrInvalidParam.WithMessage("query must not be blank").WithMessageZH("query不能为空白")
	assert.Equal(t, "query不能为空白", e.Message("zh"))
	assert.Equal(t, "query must not be blank", e.Message("en"))
	assert.NotEqual(t, "query不能为空白", ErrInvalidParam.Message("zh"))
}

func TestRegister_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(&Errno{Code: ErrInternal.Code, MessageEN: "dup"})
	})
	e, ok := Lookup(ErrTimeout.Code)
	assert.True(t, ok)
	assert.Equal(t, http.StatusRequestTimeout, e.HTTPStatus())
}
