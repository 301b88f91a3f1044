package model

import "time"

// Query rewrite issue tags.
const (
	QueryIssueNone                = "NONE"
	QueryIssueLostIntent          = "LOST_INTENT"
	QueryIssueTooBroad            = "TOO_BROAD"
	QueryIssueHallucinatedDetails = "HALLUCINATED_DETAILS"
)

// Answer issue tags.
const (
	AnswerIssueNone          = "NONE"
	AnswerIssueHallucination = "HALLUCINATION"
	AnswerIssueIncomplete    = "INCOMPLETE"
	AnswerIssueOutOfContext  = "OUT_OF_CONTEXT"
)

// IssueJudgeFailure tags an evaluation the judge could not produce.
const IssueJudgeFailure = "JUDGE_FAILURE"

// JudgeFailureReasoning is the reasoning text of a failed evaluation.
const JudgeFailureReasoning = "Failed to generate evaluation due to an API error."

// QueryEvaluation grades the rewritten query against the original.
type QueryEvaluation struct {
	Reasoning       string `json:"reasoning" validate:"required"`
	Score           int    `json:"score" validate:"min=1,max=5"`
	IdentifiedIssue string `json:"identified_issue" validate:"oneof=NONE LOST_INTENT TOO_BROAD HALLUCINATED_DETAILS"`
}

// AnswerEvaluation grades the final answer against the retrieved context.
type AnswerEvaluation struct {
	Reasoning         string `json:"reasoning" validate:"required"`
	RelevanceScore    int    `json:"relevance_score" validate:"min=1,max=5"`
	CorrectnessScore  int    `json:"correctness_score" validate:"min=1,max=5"`
	CompletenessScore int    `json:"completeness_score" validate:"min=1,max=5"`
	IdentifiedIssue   string `json:"identified_issue" validate:"oneof=NONE HALLUCINATION INCOMPLETE OUT_OF_CONTEXT"`
}

// Evaluation is the judge's structured verdict.
// Error is set only on the failure sentinel.
type Evaluation struct {
	Error            string           `json:"error,omitempty" validate:"-"`
	QueryEvaluation  QueryEvaluation  `json:"query_evaluation"`
	AnswerEvaluation AnswerEvaluation `json:"answer_evaluation"`
}

// Failed reports whether e is the failure sentinel.
func (e *Evaluation) Failed() bool {
	return e.QueryEvaluation.IdentifiedIssue == IssueJudgeFailure
}

// NewFailedEvaluation returns the zero-score sentinel for a judge failure.
func NewFailedEvaluation(err error) *Evaluation {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Evaluation{
		Error: msg,
		QueryEvaluation: QueryEvaluation{
			Reasoning:       JudgeFailureReasoning,
			IdentifiedIssue: IssueJudgeFailure,
		},
		AnswerEvaluation: AnswerEvaluation{
			Reasoning:       JudgeFailureReasoning,
			IdentifiedIssue: IssueJudgeFailure,
		},
	}
}

// EvaluationRecord is one line of the evaluation log.
type EvaluationRecord struct {
	OriginalQuery    string          `json:"original_query" bson:"original_query"`
	RewrittenQuery   string          `json:"rewritten_query" bson:"rewritten_query"`
	RetrievedContext string          `json:"retrieved_context" bson:"retrieved_context"`
	GeneratedAnswer  GeneratedAnswer `json:"generated_answer" bson:"generated_answer"`
	Evaluation       *Evaluation     `json:"evaluation" bson:"evaluation"`
	Timestamp        time.Time       `json:"timestamp" bson:"timestamp"`
}

// NewEvaluationRecord builds a record from an interaction and its evaluation.
// Timestamp is left for the sink to set at write time.
func NewEvaluationRecord(in *Interaction, eval *Evaluation) *EvaluationRecord {
	return &EvaluationRecord{
		OriginalQuery:    in.OriginalQuery,
		RewrittenQuery:   in.RewrittenQuery,
		RetrievedContext: in.Context,
		GeneratedAnswer: GeneratedAnswer{
			Answer:    in.Answer,
			CitedDocs: in.CitedDocs,
		},
		Evaluation: eval,
	}
}
