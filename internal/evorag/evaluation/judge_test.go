package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/internal/model"
	"github.com/kart-io/evorag/pkg/llm"
)

const validJudgeJSON = `{
  "query_evaluation": {"reasoning": "Adds useful synonyms.", "score": 4, "identified_issue": "NONE"},
  "answer_evaluation": {"reasoning": "Grounded and complete.", "relevance_score": 5, "correctness_score": 5, "completeness_score": 4, "identified_issue": "NONE"}
}`

type fakeGenerator struct {
	out    string
	err    error
	prompt string
	calls  int
}

var _ llm.StructuredGenerator = (*fakeGenerator)(nil)

func (f *fakeGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.out, f.err
}

func TestJudge_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		out        string
		err        error
		wantFailed bool
	}{
		{name: "合法输出", out: validJudgeJSON},
		{name: "带代码块的输出", out: "```json\n" + validJudgeJSON + "\n```"},
		{name: "调用失败", err: errors.New("503 unavailable"), wantFailed: true},
		{name: "非 JSON 输出", out: "I think it is fine.", wantFailed: true},
		{name: "分数越界", out: strings.Replace(validJudgeJSON, `"score": 4`, `"score": 7`, 1), wantFailed: true},
		{name: "未知问题标签", out: strings.Replace(validJudgeJSON, `"identified_issue": "NONE"}`, `"identified_issue": "MAYBE"}`, 1), wantFailed: true},
		{name: "分数为字符串", out: strings.Replace(validJudgeJSON, `"score": 4`, `"score": "4"`, 1), wantFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{out: tt.out, err: tt.err}
			eval := NewJudge(gen).Evaluate(context.Background(), "orig", "rewritten", "ctx", "answer")
			require.NotNil(t, eval)
			assert.Equal(t, tt.wantFailed, eval.Failed())

			if tt.wantFailed {
				assert.NotEmpty(t, eval.Error)
				assert.Equal(t, model.IssueJudgeFailure, eval.AnswerEvaluation.IdentifiedIssue)
				assert.Equal(t, model.JudgeFailureReasoning, eval.QueryEvaluation.Reasoning)
				assert.Zero(t, eval.QueryEvaluation.Score)
				assert.Zero(t, eval.AnswerEvaluation.RelevanceScore)
				assert.Zero(t, eval.AnswerEvaluation.CorrectnessScore)
				assert.Zero(t, eval.AnswerEvaluation.CompletenessScore)
				return
			}
			assert.Empty(t, eval.Error)
			assert.Equal(t, 4, eval.QueryEvaluation.Score)
			assert.Equal(t, 5, eval.AnswerEvaluation.RelevanceScore)
			assert.Equal(t, model.AnswerIssueNone, eval.AnswerEvaluation.IdentifiedIssue)
		})
	}
}

func TestBuildJudgePrompt(t *testing.T) {
	p := BuildJudgePrompt("what is x", "define x", "[Source: a.md]\nx is y\n---\n", "x is y {answer}")

	assert.Contains(t, p, "PART 1: EVALUATE THE QUERY REWRITE")
	assert.Contains(t, p, "PART 2: EVALUATE THE FINAL ANSWER")
	assert.Contains(t, p, "[ORIGINAL QUERY]: what is x")
	assert.Contains(t, p, "[REWRITTEN QUERY]: define x")
	assert.Contains(t, p, "[RETRIEVED CONTEXT]:\n[Source: a.md]\nx is y\n---\n")
	assert.Contains(t, p, "[FINAL ANSWER]:\nx is y {answer}")
	assert.Contains(t, p, `"identified_issue": "Choose ONE: 'NONE', 'HALLUCINATION', 'INCOMPLETE', 'OUT_OF_CONTEXT'"`)
}
