package component

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string               { return f.name }
func (f fakeChecker) Ping(context.Context) error { return f.err }

func TestCheckAll(t *testing.T) {
	down := errors.New("down")
	got := CheckAll(context.Background(), fakeChecker{"a", nil}, nil, fakeChecker{"b", down})

	assert.Len(t, got, 2)
	assert.NoError(t, got["a"])
	assert.Equal(t, down, got["b"])
}
