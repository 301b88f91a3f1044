package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/model"
	"github.com/kart-io/evorag/pkg/utils/json"
)

const sinkTimeout = 10 * time.Second

// errJudgeRetry asks the executor to run the handler again.
var errJudgeRetry = errors.New("judge failed, retrying")

// NewJudgeAndLogHandler returns the judge_and_log handler. The evaluator and
// sink are bound once here and shared by every job.
//
// A failed judgement is retried while attempts remain; the last attempt logs
// the failure sentinel. The record is appended at most once per job, so sink
// errors are logged and not retried.
func NewJudgeAndLogHandler(judge Evaluator, sink Sink, m *metrics.Metrics) Handler {
	if m == nil {
		m = metrics.Global()
	}
	return func(ctx context.Context, payload []byte) error {
		var in model.Interaction
		if err := json.Unmarshal(payload, &in); err != nil {
			logger.Errorw("Discarding malformed judge_and_log payload", "error", err.Error())
			return nil
		}

		eval := judge.Evaluate(ctx, in.OriginalQuery, in.RewrittenQuery, in.Context, in.Answer)
		m.RecordJudge(eval.Failed())
		if eval.Failed() && !FinalAttempt(ctx) {
			return errJudgeRetry
		}

		// the judge may have used up the job deadline
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		defer cancel()

		record := model.NewEvaluationRecord(&in, eval)
		err := sink.Append(writeCtx, record)
		m.RecordLogged(err)
		if err != nil {
			logger.Errorw("Failed to log evaluation", "error", err.Error())
			return nil
		}

		logger.Infow("Evaluation logged",
			"query_score", eval.QueryEvaluation.Score,
			"relevance", eval.AnswerEvaluation.RelevanceScore,
			"correctness", eval.AnswerEvaluation.CorrectnessScore,
			"judge_failed", eval.Failed())
		return nil
	}
}
