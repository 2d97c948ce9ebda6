package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/internal/events"
	"github.com/abhishek622/hiringpipeline/pkg"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeStale means the stage is behind the application's current stage;
	// nothing was written.
	OutcomeStale Outcome = "stale"
)

type AdvanceRequest struct {
	ApplicationID int64
	Stage         model.StageName
	Status        model.StageStatus
	Score         *float64
	Reason        *string
}

type Transition struct {
	Outcome     Outcome                 `json:"outcome"`
	Application model.Application       `json:"application"`
	Stage       *model.ApplicationStage `json:"stage,omitempty"`
}

func (r AdvanceRequest) validate() error {
	if r.ApplicationID <= 0 {
		return apperr.Validation("application id must be positive")
	}
	if !r.Stage.Valid() {
		return apperr.Validation("unknown stage %q", r.Stage)
	}
	if !r.Status.Valid() {
		return apperr.Validation("unknown stage status %q", r.Status)
	}
	if r.Score != nil && (!pkg.Finite(*r.Score) || *r.Score < 0 || *r.Score > 100) {
		return apperr.Validation("stage score must be within [0, 100]")
	}
	return nil
}

// Advance records a stage status. Transitions behind the current stage, and
// statuses that would move a stage row backwards, are reported as stale
// instead of failing, so duplicate or late deliveries are harmless.
func (s *Service) Advance(ctx context.Context, req AdvanceRequest) (Transition, error) {
	if err := req.validate(); err != nil {
		return Transition{}, err
	}

	var tr Transition
	err := s.store.InTx(ctx, func(tx Tx) error {
		app, err := tx.ApplicationForUpdate(ctx, req.ApplicationID)
		if err != nil {
			return err
		}
		tr, err = s.transition(ctx, tx, app, req, false)
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrStaleTransition) {
			return tr, nil
		}
		return Transition{}, err
	}

	if tr.Outcome == OutcomeApplied {
		s.publish(ctx, s.transitionEvent(tr))
	}
	return tr, nil
}

// transition applies req to the locked app. rewrite lets a forced re-evaluation
// rewrite a stage behind the current one; the current stage still never moves back.
// A stale request returns the stale Transition together with apperr.ErrStaleTransition.
func (s *Service) transition(ctx context.Context, tx Tx, app model.Application, req AdvanceRequest, rewrite bool) (Transition, error) {
	order := req.Stage.Order()
	current := app.CurrentStage.Order()

	existing, err := tx.GetStage(ctx, app.ApplicationID, req.Stage)
	if err != nil {
		return Transition{}, fmt.Errorf("get stage: %w", err)
	}

	if order < current && !rewrite {
		s.logger.Info("stale stage transition ignored",
			zap.Int64("application_id", app.ApplicationID),
			zap.String("stage", string(req.Stage)),
			zap.String("status", string(req.Status)),
			zap.String("current_stage", string(app.CurrentStage)),
		)
		return Transition{Outcome: OutcomeStale, Application: app, Stage: existing},
			fmt.Errorf("%s behind %s: %w", req.Stage, app.CurrentStage, apperr.ErrStaleTransition)
	}

	if existing != nil && sameState(existing, req) {
		return Transition{Outcome: OutcomeUnchanged, Application: app, Stage: existing}, nil
	}

	if app.OverallStatus.Closed() {
		return Transition{}, apperr.StageResolved("application %d is %s", app.ApplicationID, app.OverallStatus)
	}
	if order > current && req.Status.Resolved() {
		return Transition{}, apperr.Validation("stage %s not reached, application is at %s", req.Stage, app.CurrentStage)
	}
	if existing != nil && !rewrite && req.Status.Rank() < existing.Status.Rank() {
		s.logger.Info("backward stage status ignored",
			zap.Int64("application_id", app.ApplicationID),
			zap.String("stage", string(req.Stage)),
			zap.String("status", string(req.Status)),
			zap.String("existing_status", string(existing.Status)),
		)
		return Transition{Outcome: OutcomeStale, Application: app, Stage: existing},
			fmt.Errorf("%s %s after %s: %w", req.Stage, req.Status, existing.Status, apperr.ErrStaleTransition)
	}

	st := model.ApplicationStage{
		ApplicationID: app.ApplicationID,
		StageName:     req.Stage,
		StageOrder:    order,
		Status:        req.Status,
		Score:         req.Score,
	}
	switch req.Status {
	case model.StageStatusPassed:
		st.PassReason = req.Reason
	case model.StageStatusFailed:
		st.FailReason = req.Reason
	}
	if err := tx.UpsertStage(ctx, &st); err != nil {
		return Transition{}, fmt.Errorf("upsert stage: %w", err)
	}

	progressed := false
	switch req.Status {
	case model.StageStatusPassed:
		if next, ok := req.Stage.Successor(); ok {
			if next.Order() > current {
				app.CurrentStage = next
				progressed = true
			}
		} else {
			app.OverallStatus = model.OverallPassed
			score := req.Score
			if score == nil {
				score, err = resolvedMean(ctx, tx, app.ApplicationID)
				if err != nil {
					return Transition{}, err
				}
			}
			app.FinalScore = score
			progressed = true
		}
	case model.StageStatusFailed:
		app.OverallStatus = model.OverallRejected
		progressed = true
	}

	if progressed {
		if err := tx.UpdateApplicationProgress(ctx, &app); err != nil {
			return Transition{}, fmt.Errorf("update application progress: %w", err)
		}
	}

	return Transition{Outcome: OutcomeApplied, Application: app, Stage: &st}, nil
}

func sameState(st *model.ApplicationStage, req AdvanceRequest) bool {
	if st.Status != req.Status || !sameFloat(st.Score, req.Score) {
		return false
	}
	switch req.Status {
	case model.StageStatusPassed:
		return sameString(st.PassReason, req.Reason)
	case model.StageStatusFailed:
		return sameString(st.FailReason, req.Reason)
	}
	return true
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// resolvedMean is the mean score of the decided stages before FINAL_RESULT.
func resolvedMean(ctx context.Context, tx Tx, applicationID int64) (*float64, error) {
	stages, err := tx.ListStages(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	var scores []float64
	for _, st := range stages {
		if st.StageName == model.StageFinalResult || !st.Status.Resolved() || st.Score == nil {
			continue
		}
		scores = append(scores, *st.Score)
	}
	if len(scores) == 0 {
		return nil, nil
	}
	m := pkg.Round2(pkg.Mean(scores))
	return &m, nil
}

func (s *Service) transitionEvent(tr Transition) events.StageTransitioned {
	ev := events.StageTransitioned{
		ApplicationID: tr.Application.ApplicationID,
		CurrentStage:  tr.Application.CurrentStage,
		OverallStatus: tr.Application.OverallStatus,
		OccurredAt:    s.now(),
	}
	if tr.Stage != nil {
		ev.Stage = tr.Stage.StageName
		ev.Status = tr.Stage.Status
		ev.Score = tr.Stage.Score
	}
	return ev
}
