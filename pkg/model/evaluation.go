package model

import (
	"time"

	"github.com/google/uuid"
)

type InterviewType string

const (
	InterviewDocument  InterviewType = "DOCUMENT"
	InterviewAI        InterviewType = "AI"
	InterviewPractical InterviewType = "PRACTICAL"
	InterviewExecutive InterviewType = "EXECUTIVE"
)

// Stage returns the pipeline stage an interview type evaluates.
func (t InterviewType) Stage() (StageName, bool) {
	switch t {
	case InterviewDocument:
		return StageDocument, true
	case InterviewAI:
		return StageAIInterview, true
	case InterviewPractical:
		return StagePracticalInterview, true
	case InterviewExecutive:
		return StageExecutiveInterview, true
	}
	return "", false
}

type ItemKind string

const (
	// ItemKindMetric carries a raw behavioural metric to be graded.
	ItemKindMetric ItemKind = "metric"
	// ItemKindScore carries a criterion already scored by a human.
	ItemKindScore ItemKind = "score"
)

const (
	CategoryTechnical   = "technical"
	CategoryPersonality = "personality"
)

type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

type Evaluation struct {
	EvaluationID    int64            `json:"evaluation_id" db:"evaluation_id"`
	SubmissionID    *uuid.UUID       `json:"submission_id,omitempty" db:"submission_id"`
	ApplicationID   int64            `json:"application_id" db:"application_id"`
	EvaluatorID     *int64           `json:"evaluator_id" db:"evaluator_id"`
	InterviewType   InterviewType    `json:"interview_type" db:"interview_type"`
	StageName       StageName        `json:"stage_name" db:"stage_name"`
	TotalScore      float64          `json:"total_score" db:"total_score"`
	NormalizedScore float64          `json:"normalized_score" db:"normalized_score"`
	Verdict         Verdict          `json:"verdict" db:"verdict"`
	Summary         *string          `json:"summary" db:"summary"`
	Forced          bool             `json:"forced" db:"forced"`
	SupersededAt    *time.Time       `json:"superseded_at,omitempty" db:"superseded_at"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	Items           []EvaluationItem `json:"items" db:"-"`
}

// IsAI reports whether the evaluation came from the automated evaluator.
func (e Evaluation) IsAI() bool {
	return e.EvaluatorID == nil
}

type EvaluationItem struct {
	ItemID       int64    `json:"item_id" db:"item_id"`
	EvaluationID int64    `json:"evaluation_id" db:"evaluation_id"`
	Position     int      `json:"position" db:"position"`
	Kind         ItemKind `json:"kind" db:"kind"`
	EvaluateType string   `json:"evaluate_type" db:"evaluate_type"`
	Category     *string  `json:"category,omitempty" db:"category"`
	RawValue     *float64 `json:"raw_value,omitempty" db:"raw_value"`
	Score        float64  `json:"score" db:"score"`
	Weight       *float64 `json:"weight,omitempty" db:"weight"`
	Grade        *string  `json:"grade,omitempty" db:"grade"`
	Comment      *string  `json:"comment,omitempty" db:"comment"`
}

// ItemInput is one criterion of a submission. Metric items use Metric+Value,
// score items use EvaluateType+Score and optional Weight.
type ItemInput struct {
	Kind         ItemKind `json:"kind" binding:"required,oneof=metric score"`
	Metric       string   `json:"metric,omitempty"`
	Value        *float64 `json:"value,omitempty"`
	EvaluateType string   `json:"evaluate_type,omitempty"`
	Category     string   `json:"category,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Comment      string   `json:"comment,omitempty"`
}

type SubmitEvaluationReq struct {
	InterviewType InterviewType `json:"interview_type" binding:"required"`
	EvaluatorID   *int64        `json:"evaluator_id"`
	SubmissionID  *uuid.UUID    `json:"submission_id"`
	Items         []ItemInput   `json:"items" binding:"required,min=1,dive"`
	Summary       string        `json:"summary"`
	Force         bool          `json:"force"`
}

type EvaluationResult struct {
	EvaluationID    int64       `json:"evaluation_id"`
	Stage           StageName   `json:"stage"`
	Verdict         Verdict     `json:"verdict"`
	NumericScore    float64     `json:"numeric_score"`
	NormalizedScore float64     `json:"normalized_score"`
	StageStatus     StageStatus `json:"stage_status"`
	Summary         []string    `json:"summary,omitempty"`
	Replayed        bool        `json:"replayed"`
}
