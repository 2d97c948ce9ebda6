package model

import "time"

type ProfileChange string

const (
	ChangeProfileCreated  ProfileChange = "profile_created"
	ChangeEvaluationAdded ProfileChange = "evaluation_added"
	ChangeDeactivated     ProfileChange = "deactivated"
	ChangeReactivated     ProfileChange = "reactivated"
)

// ProfileScores are the components of an evaluator's fingerprint, each on 0-100.
type ProfileScores struct {
	Strictness       float64 `json:"strictness_score"`
	Consistency      float64 `json:"consistency_score"`
	TechFocus        float64 `json:"tech_focus_score"`
	PersonalityFocus float64 `json:"personality_focus_score"`
	Experience       float64 `json:"experience_score"`
	AvgScoreGiven    float64 `json:"avg_score_given"`
	TotalInterviews  int     `json:"total_interviews"`
	ConfidenceLevel  float64 `json:"confidence_level"`
}

type InterviewerProfile struct {
	ProfileID   int64 `json:"profile_id" db:"profile_id"`
	EvaluatorID int64 `json:"evaluator_id" db:"evaluator_id"`
	ProfileScores
	LatestEvaluationID *int64    `json:"latest_evaluation_id" db:"latest_evaluation_id"`
	ProfileVersion     int       `json:"profile_version" db:"profile_version"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

type InterviewerProfileHistory struct {
	HistoryID    int64         `json:"history_id" db:"history_id"`
	ProfileID    int64         `json:"profile_id" db:"profile_id"`
	EvaluationID *int64        `json:"evaluation_id" db:"evaluation_id"`
	ChangeType   ProfileChange `json:"change_type" db:"change_type"`
	OldValues    ProfileScores `json:"old_values" db:"old_values"`
	NewValues    ProfileScores `json:"new_values" db:"new_values"`
	ChangeReason string        `json:"change_reason" db:"change_reason"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// Characteristics is the read-only projection served to schedulers.
type Characteristics struct {
	EvaluatorID int64 `json:"evaluator_id"`
	ProfileScores
	IsActive bool     `json:"is_active"`
	Known    bool     `json:"known"`
	Labels   []string `json:"characteristics"`
	Summary  string   `json:"summary"`
}

type SetActiveReq struct {
	Active *bool `json:"active" binding:"required"`
}

type ListHistoryQuery struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=500"`
}
