package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/internal/events"
	"github.com/abhishek622/hiringpipeline/internal/profile"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

type Submission struct {
	ApplicationID int64
	InterviewType model.InterviewType
	// EvaluatorID is nil for AI evaluations.
	EvaluatorID *int64
	// SubmissionID makes retries safe: a repeated id replays the stored result.
	SubmissionID *uuid.UUID
	Items        []model.ItemInput
	Summary      string
	// Force re-evaluates a resolved or earlier stage, superseding its evaluations.
	Force bool
}

func (sub Submission) validate() (model.StageName, error) {
	if sub.ApplicationID <= 0 {
		return "", apperr.Validation("application id must be positive")
	}
	stage, ok := sub.InterviewType.Stage()
	if !ok {
		return "", apperr.Validation("unknown interview type %q", sub.InterviewType)
	}
	if sub.InterviewType == model.InterviewAI {
		if sub.EvaluatorID != nil {
			return "", apperr.Validation("AI evaluations have no evaluator")
		}
	} else if sub.EvaluatorID == nil || *sub.EvaluatorID <= 0 {
		return "", apperr.Validation("%s evaluations need a positive evaluator id", sub.InterviewType)
	}
	return stage, nil
}

// SubmitEvaluation scores a submission, stores it and lets it drive the stage
// and the evaluator's profile, all in one transaction.
func (s *Service) SubmitEvaluation(ctx context.Context, sub Submission) (model.EvaluationResult, error) {
	stage, err := sub.validate()
	if err != nil {
		return model.EvaluationResult{}, err
	}
	sc, err := s.score(sub.InterviewType, sub.Items, sub.Summary)
	if err != nil {
		return model.EvaluationResult{}, err
	}
	policy := s.policies.For(sub.InterviewType)

	var (
		result    model.EvaluationResult
		submitted events.EvaluationSubmitted
		tr        Transition
	)
	err = s.store.InTx(ctx, func(tx Tx) error {
		app, err := tx.ApplicationForUpdate(ctx, sub.ApplicationID)
		if err != nil {
			return err
		}

		if sub.SubmissionID != nil {
			prev, err := tx.EvaluationBySubmission(ctx, *sub.SubmissionID)
			if err != nil {
				return fmt.Errorf("find submission: %w", err)
			}
			if prev != nil {
				if prev.ApplicationID != app.ApplicationID {
					return apperr.Conflict("submission %s belongs to another application", *sub.SubmissionID)
				}
				result, err = replay(ctx, tx, prev)
				return err
			}
		}

		row, err := tx.GetStage(ctx, app.ApplicationID, stage)
		if err != nil {
			return fmt.Errorf("get stage: %w", err)
		}
		if err := eligible(app, stage, row, sub.Force); err != nil {
			return err
		}

		if sub.Force {
			if _, err := tx.SupersedeStageEvaluations(ctx, app.ApplicationID, stage, s.now()); err != nil {
				return fmt.Errorf("supersede evaluations: %w", err)
			}
		}

		ev := &model.Evaluation{
			SubmissionID:    sub.SubmissionID,
			ApplicationID:   app.ApplicationID,
			EvaluatorID:     sub.EvaluatorID,
			InterviewType:   sub.InterviewType,
			StageName:       stage,
			TotalScore:      sc.total,
			NormalizedScore: sc.normalized,
			Verdict:         sc.verdict,
			Forced:          sub.Force,
			Items:           sc.items,
		}
		if len(sc.summary) > 0 {
			joined := strings.Join(sc.summary, "\n")
			ev.Summary = &joined
		}
		if err := tx.InsertEvaluation(ctx, ev); err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}

		submitted = events.EvaluationSubmitted{
			EvaluationID:    ev.EvaluationID,
			ApplicationID:   ev.ApplicationID,
			Stage:           stage,
			InterviewType:   ev.InterviewType,
			EvaluatorID:     ev.EvaluatorID,
			Verdict:         ev.Verdict,
			NumericScore:    ev.TotalScore,
			NormalizedScore: ev.NormalizedScore,
			Forced:          ev.Forced,
			OccurredAt:      s.now(),
		}
		tr, err = s.dispatch(ctx, tx, app, policy, ev)
		if err != nil {
			return err
		}

		result = model.EvaluationResult{
			EvaluationID:    ev.EvaluationID,
			Stage:           stage,
			Verdict:         ev.Verdict,
			NumericScore:    ev.TotalScore,
			NormalizedScore: ev.NormalizedScore,
			StageStatus:     tr.Stage.Status,
			Summary:         sc.summary,
		}
		return nil
	})
	if err != nil {
		return model.EvaluationResult{}, err
	}
	if result.Replayed {
		return result, nil
	}

	if sub.EvaluatorID != nil && s.tracker != nil {
		s.tracker.Invalidate(ctx, *sub.EvaluatorID)
	}
	pending := []events.Event{submitted}
	if tr.Outcome == OutcomeApplied {
		pending = append(pending, s.transitionEvent(tr))
	}
	s.publish(ctx, pending...)

	return result, nil
}

// dispatch hands a stored evaluation to its in-transaction consumers: the
// stage it belongs to and, for human evaluations, the evaluator's profile.
func (s *Service) dispatch(ctx context.Context, tx Tx, app model.Application, policy StagePolicy, ev *model.Evaluation) (Transition, error) {
	active, err := tx.ActiveStageEvaluations(ctx, app.ApplicationID, ev.StageName)
	if err != nil {
		return Transition{}, fmt.Errorf("list stage evaluations: %w", err)
	}
	// A forced evaluation behind the current stage cannot be joined by
	// regular ones, so it decides the stage on its own.
	if ev.Forced && ev.StageName.Order() < app.CurrentStage.Order() {
		policy.RequiredEvaluations = 1
	}
	status, score := stageDecision(policy, active)
	reason := decisionReason(policy, active, score)

	tr, err := s.transition(ctx, tx, app, AdvanceRequest{
		ApplicationID: app.ApplicationID,
		Stage:         ev.StageName,
		Status:        status,
		Score:         &score,
		Reason:        &reason,
	}, ev.Forced)
	// an undecided stage never drags a COMPLETED row back to IN_PROGRESS
	if err != nil && !errors.Is(err, apperr.ErrStaleTransition) {
		return Transition{}, err
	}
	if tr.Stage == nil {
		return Transition{}, errors.New("stage transition returned no stage row")
	}

	if ev.EvaluatorID != nil && s.tracker != nil {
		_, err := s.tracker.RecordEvaluation(ctx, tx, profile.Observation{
			EvaluatorID:  *ev.EvaluatorID,
			EvaluationID: ev.EvaluationID,
			Given:        ev.NormalizedScore,
			Items:        ev.Items,
		})
		if err != nil {
			return Transition{}, fmt.Errorf("record evaluation on profile: %w", err)
		}
	}
	return tr, nil
}

func decisionReason(p StagePolicy, evs []model.Evaluation, mean float64) string {
	if len(evs) < p.RequiredEvaluations {
		return fmt.Sprintf("%d of %d evaluations recorded", len(evs), p.RequiredEvaluations)
	}
	if evs[0].IsAI() {
		passes := 0
		for _, ev := range evs {
			if ev.Verdict == model.VerdictPass {
				passes++
			}
		}
		return fmt.Sprintf("%d of %d AI evaluations passed, mean %.2f", passes, len(evs), mean)
	}
	return fmt.Sprintf("%d evaluation(s), mean %.2f against threshold %.2f", len(evs), mean, p.NormalizedThreshold())
}

func eligible(app model.Application, stage model.StageName, row *model.ApplicationStage, force bool) error {
	if app.OverallStatus.Closed() {
		return apperr.StageResolved("application %d is %s", app.ApplicationID, app.OverallStatus)
	}
	order, current := stage.Order(), app.CurrentStage.Order()
	if order > current {
		return apperr.Validation("stage %s not reached, application is at %s", stage, app.CurrentStage)
	}
	if force {
		return nil
	}
	if row != nil && row.Status.Resolved() {
		return apperr.StageResolved("stage %s is already %s", stage, row.Status)
	}
	if order < current {
		return apperr.StageResolved("stage %s is behind current stage %s", stage, app.CurrentStage)
	}
	return nil
}

func replay(ctx context.Context, tx Tx, ev *model.Evaluation) (model.EvaluationResult, error) {
	status := model.StageStatusInProgress
	row, err := tx.GetStage(ctx, ev.ApplicationID, ev.StageName)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("get stage: %w", err)
	}
	if row != nil {
		status = row.Status
	}
	res := model.EvaluationResult{
		EvaluationID:    ev.EvaluationID,
		Stage:           ev.StageName,
		Verdict:         ev.Verdict,
		NumericScore:    ev.TotalScore,
		NormalizedScore: ev.NormalizedScore,
		StageStatus:     status,
		Replayed:        true,
	}
	if ev.Summary != nil && *ev.Summary != "" {
		res.Summary = strings.Split(*ev.Summary, "\n")
	}
	return res, nil
}
