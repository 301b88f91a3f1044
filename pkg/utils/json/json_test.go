package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answer struct {
	Answer    string   `json:"answer"`
	CitedDocs []string `json:"cited_docs"`
}

func TestMarshalLine(t *testing.T) {
	line, err := MarshalLine(answer{Answer: "multi\nline", CitedDocs: []string{"a.pdf"}})
	require.NoError(t, err)

	s := string(line)
	assert.True(t, strings.HasSuffix(s, "\n"))
	// 内容中的换行必须被转义，保证一条记录占一行
	assert.Equal(t, 1, strings.Count(s, "\n"))

	var got answer
	require.NoError(t, Unmarshal(line, &got))
	assert.Equal(t, "multi\nline", got.Answer)
	assert.Equal(t, []string{"a.pdf"}, got.CitedDocs)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(map[string]string{"rewritten_query": "q"}))

	var got map[string]string
	require.NoError(t, NewDecoder(&buf).Decode(&got))
	assert.Equal(t, "q", got["rewritten_query"])
}

func TestUnmarshal_Invalid(t *testing.T) {
	var got answer
	assert.Error(t, Unmarshal([]byte(`{"answer":`), &got))
}
