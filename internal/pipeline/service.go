// Package pipeline runs the hiring pipeline: it turns submitted evaluations
// into verdicts and moves applications through their stages.
//
// A submission stores the evaluation, resolves the stage it belongs to and
// updates the evaluator's profile in one transaction. Events for external
// collaborators are published only after that transaction commits.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/internal/events"
	"github.com/abhishek622/hiringpipeline/internal/grading"
	"github.com/abhishek622/hiringpipeline/internal/profile"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// StagePolicy configures how one interview type is scored.
type StagePolicy struct {
	// Scale is the maximum score of a criterion, 10 or 100.
	Scale float64
	// PassThreshold is on the native scale.
	PassThreshold float64
	// RequiredEvaluations is how many evaluations resolve the stage.
	RequiredEvaluations int
}

var DefaultStagePolicy = StagePolicy{Scale: 100, PassThreshold: 70, RequiredEvaluations: 1}

// NormalizedThreshold is the pass threshold on 0-100.
func (p StagePolicy) NormalizedThreshold() float64 {
	return p.PassThreshold * 100 / p.Scale
}

type Policies map[model.InterviewType]StagePolicy

func (ps Policies) For(t model.InterviewType) StagePolicy {
	p, ok := ps[t]
	if !ok {
		p = DefaultStagePolicy
	}
	if p.Scale <= 0 {
		p.Scale = DefaultStagePolicy.Scale
	}
	if p.PassThreshold < 0 || p.PassThreshold > p.Scale {
		p.PassThreshold = DefaultStagePolicy.PassThreshold * p.Scale / DefaultStagePolicy.Scale
	}
	if p.RequiredEvaluations < 1 {
		p.RequiredEvaluations = 1
	}
	return p
}

type Service struct {
	store     Store
	grader    *grading.Engine
	tracker   *profile.Tracker
	publisher events.Publisher
	policies  Policies
	logger    *zap.Logger
	now       func() time.Time
}

type Deps struct {
	Store     Store
	Grader    *grading.Engine
	Tracker   *profile.Tracker
	Publisher events.Publisher
	Policies  Policies
	Logger    *zap.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		store:     d.Store,
		grader:    d.Grader,
		tracker:   d.Tracker,
		publisher: d.Publisher,
		policies:  d.Policies,
		logger:    d.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.grader == nil {
		s.grader = grading.NewEngine(grading.DefaultPolicy)
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *Service) CreateApplication(ctx context.Context, jobPostID, userID int64) (model.Application, error) {
	if jobPostID <= 0 || userID <= 0 {
		return model.Application{}, apperr.Validation("job post id and user id must be positive")
	}
	app := model.Application{
		JobPostID:     jobPostID,
		UserID:        userID,
		CurrentStage:  model.StageDocument,
		OverallStatus: model.OverallInProgress,
	}
	if err := s.store.CreateApplication(ctx, &app); err != nil {
		return model.Application{}, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

// GetApplication returns the application with its stage rows in stage order.
func (s *Service) GetApplication(ctx context.Context, applicationID int64) (model.Application, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return model.Application{}, err
	}
	stages, err := s.store.ListStages(ctx, applicationID)
	if err != nil {
		return model.Application{}, fmt.Errorf("list stages: %w", err)
	}
	app.Stages = stages
	return app, nil
}

func (s *Service) ListEvaluations(ctx context.Context, applicationID int64) ([]model.Evaluation, error) {
	if _, err := s.store.GetApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	evs, err := s.store.ListEvaluations(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evs, nil
}

// publish runs after commit; a failure never undoes committed state.
func (s *Service) publish(ctx context.Context, evs ...events.Event) {
	for _, ev := range evs {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("publish event", zap.String("key", ev.RoutingKey()), zap.Error(err))
		}
	}
}
