package model

import "time"

type StageName string

const (
	StageDocument           StageName = "DOCUMENT"
	StageAIInterview        StageName = "AI_INTERVIEW"
	StagePracticalInterview StageName = "PRACTICAL_INTERVIEW"
	StageExecutiveInterview StageName = "EXECUTIVE_INTERVIEW"
	StageFinalResult        StageName = "FINAL_RESULT"
)

// StageSequence is the pipeline order. A stage's order is its index + 1.
var StageSequence = []StageName{
	StageDocument,
	StageAIInterview,
	StagePracticalInterview,
	StageExecutiveInterview,
	StageFinalResult,
}

// Order returns the 1-based position of the stage, or 0 for an unknown name.
func (s StageName) Order() int {
	for i, name := range StageSequence {
		if name == s {
			return i + 1
		}
	}
	return 0
}

func (s StageName) Valid() bool {
	return s.Order() > 0
}

// Successor returns the next stage and false when s is the last one.
func (s StageName) Successor() (StageName, bool) {
	o := s.Order()
	if o == 0 || o == len(StageSequence) {
		return "", false
	}
	return StageSequence[o], true
}

type StageStatus string

const (
	StageStatusPending    StageStatus = "PENDING"
	StageStatusScheduled  StageStatus = "SCHEDULED"
	StageStatusInProgress StageStatus = "IN_PROGRESS"
	StageStatusCompleted  StageStatus = "COMPLETED"
	StageStatusPassed     StageStatus = "PASSED"
	StageStatusFailed     StageStatus = "FAILED"
)

func (s StageStatus) Valid() bool {
	switch s {
	case StageStatusPending, StageStatusScheduled, StageStatusInProgress,
		StageStatusCompleted, StageStatusPassed, StageStatusFailed:
		return true
	}
	return false
}

// Rank orders statuses within one stage: PENDING, SCHEDULED, IN_PROGRESS,
// COMPLETED, then either verdict. Unknown statuses rank 0.
func (s StageStatus) Rank() int {
	switch s {
	case StageStatusPending:
		return 1
	case StageStatusScheduled:
		return 2
	case StageStatusInProgress:
		return 3
	case StageStatusCompleted:
		return 4
	case StageStatusPassed, StageStatusFailed:
		return 5
	}
	return 0
}

// Resolved reports whether the status is a verdict.
func (s StageStatus) Resolved() bool {
	return s == StageStatusPassed || s == StageStatusFailed
}

type OverallStatus string

const (
	OverallInProgress OverallStatus = "IN_PROGRESS"
	OverallPassed     OverallStatus = "PASSED"
	OverallRejected   OverallStatus = "REJECTED"
)

// Closed reports whether no further stage may change.
func (s OverallStatus) Closed() bool {
	return s == OverallPassed || s == OverallRejected
}

type Application struct {
	ApplicationID int64              `json:"application_id" db:"application_id"`
	JobPostID     int64              `json:"job_post_id" db:"job_post_id"`
	UserID        int64              `json:"user_id" db:"user_id"`
	CurrentStage  StageName          `json:"current_stage" db:"current_stage"`
	OverallStatus OverallStatus      `json:"overall_status" db:"overall_status"`
	FinalScore    *float64           `json:"final_score" db:"final_score"`
	AppliedAt     time.Time          `json:"applied_at" db:"applied_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
	Stages        []ApplicationStage `json:"stages,omitempty" db:"-"`
}

type ApplicationStage struct {
	StageID       int64       `json:"stage_id" db:"stage_id"`
	ApplicationID int64       `json:"application_id" db:"application_id"`
	StageName     StageName   `json:"stage_name" db:"stage_name"`
	StageOrder    int         `json:"stage_order" db:"stage_order"`
	Status        StageStatus `json:"status" db:"status"`
	Score         *float64    `json:"score" db:"score"`
	PassReason    *string     `json:"pass_reason" db:"pass_reason"`
	FailReason    *string     `json:"fail_reason" db:"fail_reason"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

type CreateApplicationReq struct {
	JobPostID int64 `json:"job_post_id" binding:"required,min=1"`
	UserID    int64 `json:"user_id" binding:"required,min=1"`
}

type AdvanceStageReq struct {
	Status StageStatus `json:"status" binding:"required"`
	Score  *float64    `json:"score"`
	Reason *string     `json:"reason"`
}
