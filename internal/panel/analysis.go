package panel

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// minAnalysed is the smallest panel a relative analysis makes sense for.
const minAnalysed = 2

// EvaluationSource reads the live evaluations of an application.
type EvaluationSource interface {
	GetApplication(ctx context.Context, applicationID int64) (model.Application, error)
	ActiveStageEvaluations(ctx context.Context, applicationID int64, stage model.StageName) ([]model.Evaluation, error)
}

// AnalyzeStage compares the human evaluators of one stage against each other
// and against their profiles. Superseded and AI evaluations are ignored.
func (s *Service) AnalyzeStage(ctx context.Context, applicationID int64, stage model.StageName) (model.PanelAnalysis, error) {
	if applicationID <= 0 {
		return model.PanelAnalysis{}, apperr.Validation("application id must be positive")
	}
	if !stage.Valid() {
		return model.PanelAnalysis{}, apperr.Validation("unknown stage %q", stage)
	}
	if _, err := s.evaluations.GetApplication(ctx, applicationID); err != nil {
		return model.PanelAnalysis{}, err
	}

	evs, err := s.evaluations.ActiveStageEvaluations(ctx, applicationID, stage)
	if err != nil {
		return model.PanelAnalysis{}, fmt.Errorf("list stage evaluations: %w", err)
	}
	scores := make(map[int64]float64, len(evs))
	for _, ev := range evs {
		if ev.EvaluatorID != nil {
			scores[*ev.EvaluatorID] = ev.NormalizedScore
		}
	}
	if len(scores) < minAnalysed {
		return model.PanelAnalysis{}, apperr.Validation("stage %s has %d human evaluation(s), at least %d are needed",
			stage, len(scores), minAnalysed)
	}

	ids := make([]int64, 0, len(scores))
	values := make([]float64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, id := range ids {
		v := scores[id]
		values = append(values, v)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	profiles, err := s.profiles.Profiles(ctx, ids)
	if err != nil {
		return model.PanelAnalysis{}, fmt.Errorf("load panel profiles: %w", err)
	}
	strictness := make(map[int64]float64, len(profiles))
	for _, p := range profiles {
		strictness[p.EvaluatorID] = p.Strictness
	}

	mean := pkg.Mean(values)
	total := mean * float64(len(values))
	members := make([]model.PanelMember, len(ids))
	for i, id := range ids {
		score := scores[id]
		others := (total - score) / float64(len(values)-1)
		members[i] = model.PanelMember{
			EvaluatorID:         id,
			Score:               score,
			RelativeStrictness:  pkg.Round2(relativeStrictness(score, mean)),
			RelativeConsistency: pkg.Round2(relativeConsistency(score, others)),
			Objectivity:         pkg.Round2(objectivity(score, strictness[id])),
		}
	}

	s.logger.Debug("stage panel analysed",
		zap.Int64("application_id", applicationID),
		zap.String("stage", string(stage)),
		zap.Int("evaluators", len(ids)),
	)

	return model.PanelAnalysis{
		ApplicationID:  applicationID,
		Stage:          stage,
		EvaluatorCount: len(ids),
		MeanScore:      pkg.Round2(mean),
		ScoreVariance:  pkg.Round2(pkg.SampleVariance(values)),
		ScoreRange:     pkg.Round2(hi - lo),
		Members:        members,
	}, nil
}

func relativeStrictness(score, mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	return (mean - score) / mean
}

func relativeConsistency(score, others float64) float64 {
	if others <= 0 {
		return 0
	}
	return 1 - math.Abs(score-others)/others
}

// objectivity compares score with the score the evaluator's strictness
// predicts: 100 for a strictness of 0, down to 60 for a strictness of 100.
func objectivity(score, strictness float64) float64 {
	expected := 100 - 0.4*strictness
	return math.Max(0, 1-math.Abs(expected-score)/100)
}
