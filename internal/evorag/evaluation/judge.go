package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/evorag/internal/model"
	errno "github.com/kart-io/evorag/pkg/errors"
	"github.com/kart-io/evorag/pkg/infra/tracing"
	"github.com/kart-io/evorag/pkg/llm"
	"github.com/kart-io/evorag/pkg/utils/json"
)

// Evaluator grades one interaction. It never fails: errors yield the
// failure sentinel.
type Evaluator interface {
	Evaluate(ctx context.Context, originalQuery, rewrittenQuery, context, answer string) *model.Evaluation
}

var _ Evaluator = (*Judge)(nil)

// Judge grades the query rewrite and the final answer with one structured
// prompt to a high-capability model.
type Judge struct {
	generator llm.StructuredGenerator
	validate  *validator.Validate
}

// NewJudge 创建评估器实例。
func NewJudge(generator llm.StructuredGenerator) *Judge {
	return &Judge{
		generator: generator,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Evaluate implements Evaluator.
func (j *Judge) Evaluate(ctx context.Context, originalQuery, rewrittenQuery, retrieved, answer string) *model.Evaluation {
	ctx, span := tracing.StartSpan(ctx, "evaluation.Judge",
		attribute.Int("context.length", len(retrieved)))

	eval, err := j.evaluate(ctx, originalQuery, rewrittenQuery, retrieved, answer)
	tracing.End(span, err)
	if err != nil {
		logger.Errorw("Judge failed, recording failure sentinel", "error", err.Error())
		return model.NewFailedEvaluation(err)
	}
	return eval
}

func (j *Judge) evaluate(ctx context.Context, originalQuery, rewrittenQuery, retrieved, answer string) (*model.Evaluation, error) {
	prompt := BuildJudgePrompt(originalQuery, rewrittenQuery, retrieved, answer)

	raw, err := j.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var eval model.Evaluation
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &eval); err != nil {
		return nil, errno.ErrJudgeParse.WithCause(err)
	}
	if err := j.validate.Struct(&eval); err != nil {
		return nil, errno.ErrJudgeParse.WithCause(fmt.Errorf("judge output failed validation: %w", err))
	}
	eval.Error = ""
	return &eval, nil
}

// stripCodeFence removes a surrounding ```json fence some models emit even
// in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

const judgePromptTemplate = `You are a meticulous AI evaluator for a multi-step RAG (Retrieval-Augmented Generation) pipeline. Your task is to assess two distinct stages and output your findings in a single, valid JSON object that strictly adheres to the provided schema.

**---------------- PART 1: EVALUATE THE QUERY REWRITE ----------------**

**Instructions:**
Analyze the ` + "`[ORIGINAL QUERY]`" + ` and the ` + "`[REWRITTEN QUERY]`" + `. The goal of the rewrite is to improve the query for a vector database search by adding context, keywords, and synonyms without losing the original intent.

**---------------- PART 2: EVALUATE THE FINAL ANSWER ----------------**

**Instructions:**
Analyze the ` + "`[FINAL ANSWER]`" + ` based ONLY on the ` + "`[RETRIEVED CONTEXT]`" + `. The answer must be fully grounded in the provided context and must directly address the ` + "`[ORIGINAL QUERY]`" + `.

**---------------- DATA TO EVALUATE ----------------**

[ORIGINAL QUERY]: {original_query}

[REWRITTEN QUERY]: {rewritten_query}

[RETRIEVED CONTEXT]:
{context}

[FINAL ANSWER]:
{answer}

**---------------- YOUR JSON EVALUATION ----------------**

**Instructions for JSON Output:**
Your entire response must be a single JSON object. Do not include any text before or after it. Use the exact keys as specified in the schema below.

**JSON Schema:**
` + "```json" + `
{
  "query_evaluation": {
    "reasoning": "Provide a step-by-step analysis of the query rewrite here. Explain why it was good or bad.",
    "score": "Integer between 1 and 5. 1=made it worse, 3=no real change, 5=significant improvement.",
    "identified_issue": "Choose ONE: 'NONE', 'LOST_INTENT', 'TOO_BROAD', 'HALLUCINATED_DETAILS'"
  },
  "answer_evaluation": {
    "reasoning": "Provide a step-by-step analysis of the final answer's quality based on the context. Explain its correctness, relevance, and completeness.",
    "relevance_score": "Integer between 1 and 5.",
    "correctness_score": "Integer between 1 and 5.",
    "completeness_score": "Integer between 1 and 5.",
    "identified_issue": "Choose ONE: 'NONE', 'HALLUCINATION', 'INCOMPLETE', 'OUT_OF_CONTEXT'"
  }
}
` + "```" + `
`

// BuildJudgePrompt fills the judge template. Placeholders are replaced in a
// single pass so user text containing placeholder names is left intact.
func BuildJudgePrompt(originalQuery, rewrittenQuery, retrieved, answer string) string {
	return strings.NewReplacer(
		"{original_query}", originalQuery,
		"{rewritten_query}", rewrittenQuery,
		"{context}", retrieved,
		"{answer}", answer,
	).Replace(judgePromptTemplate)
}
