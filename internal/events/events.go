// Package events defines the pipeline's outbound events and their publishers.
package events

import (
	"context"
	"time"

	"github.com/abhishek622/hiringpipeline/pkg/model"
)

const (
	KeyEvaluationSubmitted = "evaluation.submitted"
	KeyStageTransitioned   = "stage.transitioned"
)

type Event interface {
	RoutingKey() string
}

// EvaluationSubmitted is raised once per stored evaluation.
type EvaluationSubmitted struct {
	EvaluationID    int64               `json:"evaluation_id"`
	ApplicationID   int64               `json:"application_id"`
	Stage           model.StageName     `json:"stage"`
	InterviewType   model.InterviewType `json:"interview_type"`
	EvaluatorID     *int64              `json:"evaluator_id"`
	Verdict         model.Verdict       `json:"verdict"`
	NumericScore    float64             `json:"numeric_score"`
	NormalizedScore float64             `json:"normalized_score"`
	Forced          bool                `json:"forced"`
	OccurredAt      time.Time           `json:"occurred_at"`
}

func (EvaluationSubmitted) RoutingKey() string { return KeyEvaluationSubmitted }

// StageTransitioned is raised when a stage row or the application's progress changed.
type StageTransitioned struct {
	ApplicationID int64               `json:"application_id"`
	Stage         model.StageName     `json:"stage"`
	Status        model.StageStatus   `json:"status"`
	CurrentStage  model.StageName     `json:"current_stage"`
	OverallStatus model.OverallStatus `json:"overall_status"`
	Score         *float64            `json:"score,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

func (StageTransitioned) RoutingKey() string { return KeyStageTransitioned }

// Publisher delivers events to external collaborators after commit.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error { return nil }
