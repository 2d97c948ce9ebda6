package pipeline

import (
	"strings"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/internal/grading"
	"github.com/abhishek622/hiringpipeline/pkg"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// scored is a submission after validation and scoring, before persistence.
type scored struct {
	items      []model.EvaluationItem
	total      float64
	normalized float64
	verdict    model.Verdict
	summary    []string
}

// score validates the items of one submission and computes its total and verdict.
func (s *Service) score(t model.InterviewType, items []model.ItemInput, humanSummary string) (scored, error) {
	if len(items) == 0 {
		return scored{}, apperr.Validation("at least one item is required")
	}
	kind := items[0].Kind
	for i, it := range items {
		if it.Kind != model.ItemKindMetric && it.Kind != model.ItemKindScore {
			return scored{}, apperr.Validation("item %d: unknown kind %q", i, it.Kind)
		}
		if it.Kind != kind {
			return scored{}, apperr.Validation("items mix %s and %s kinds", kind, it.Kind)
		}
	}

	if t == model.InterviewAI {
		if kind != model.ItemKindMetric {
			return scored{}, apperr.Validation("AI evaluations carry metric items")
		}
		return s.scoreMetrics(items)
	}
	if kind != model.ItemKindScore {
		return scored{}, apperr.Validation("%s evaluations carry score items", t)
	}
	return scoreCriteria(s.policies.For(t), items, humanSummary)
}

func (s *Service) scoreMetrics(items []model.ItemInput) (scored, error) {
	gs := make([]grading.Graded, 0, len(items))
	for i, it := range items {
		if it.Value == nil {
			return scored{}, apperr.Validation("item %d: metric value is required", i)
		}
		g, err := s.grader.Grade(it.Metric, *it.Value)
		if err != nil {
			return scored{}, err
		}
		gs = append(gs, g)
	}

	res := s.grader.Aggregate(gs)
	out := scored{
		total:      float64(res.Score),
		normalized: res.Normalized(),
		verdict:    res.Verdict,
		summary:    res.Summary,
		items:      make([]model.EvaluationItem, len(gs)),
	}
	for i, g := range gs {
		raw := g.Value
		grade := string(g.Grade)
		rationale := g.Rationale
		out.items[i] = model.EvaluationItem{
			Position:     i + 1,
			Kind:         model.ItemKindMetric,
			EvaluateType: g.Metric,
			RawValue:     &raw,
			Score:        float64(g.Grade.Points()),
			Grade:        &grade,
			Comment:      &rationale,
		}
	}
	return out, nil
}

func scoreCriteria(p StagePolicy, items []model.ItemInput, humanSummary string) (scored, error) {
	weighted := items[0].Weight != nil
	var sum, weightSum float64
	out := scored{items: make([]model.EvaluationItem, len(items))}

	for i, it := range items {
		if strings.TrimSpace(it.EvaluateType) == "" {
			return scored{}, apperr.Validation("item %d: evaluate type is required", i)
		}
		if it.Score == nil {
			return scored{}, apperr.Validation("item %d: score is required", i)
		}
		v := *it.Score
		if !pkg.Finite(v) || v < 0 || v > p.Scale {
			return scored{}, apperr.Validation("item %d: score %g outside [0, %g]", i, v, p.Scale)
		}
		if (it.Weight != nil) != weighted {
			return scored{}, apperr.Validation("weights must be given for every item or for none")
		}

		w := 1.0
		if weighted {
			w = *it.Weight
			if !pkg.Finite(w) || w < 0 {
				return scored{}, apperr.Validation("item %d: weight must be a non-negative number", i)
			}
		}
		sum += v * w
		weightSum += w

		item := model.EvaluationItem{
			Position:     i + 1,
			Kind:         model.ItemKindScore,
			EvaluateType: strings.TrimSpace(it.EvaluateType),
			Score:        v,
			Weight:       it.Weight,
		}
		if c := strings.ToLower(strings.TrimSpace(it.Category)); c != "" {
			item.Category = &c
		}
		if c := strings.TrimSpace(it.Comment); c != "" {
			item.Comment = &c
		}
		out.items[i] = item
	}
	if weightSum <= 0 {
		return scored{}, apperr.Validation("item weights must sum to a positive number")
	}

	out.total = pkg.Round2(sum / weightSum)
	out.normalized = pkg.Round2(out.total * 100 / p.Scale)
	out.verdict = model.VerdictFail
	if out.total >= p.PassThreshold {
		out.verdict = model.VerdictPass
	}
	if s := strings.TrimSpace(humanSummary); s != "" {
		out.summary = []string{s}
	}
	return out, nil
}

// stageDecision folds the active evaluations of a stage into its status and score.
func stageDecision(p StagePolicy, evs []model.Evaluation) (model.StageStatus, float64) {
	scores := make([]float64, len(evs))
	passes := 0
	for i, ev := range evs {
		scores[i] = ev.NormalizedScore
		if ev.Verdict == model.VerdictPass {
			passes++
		}
	}
	mean := pkg.Round2(pkg.Mean(scores))

	if len(evs) < p.RequiredEvaluations {
		return model.StageStatusInProgress, mean
	}
	if len(evs) == 1 {
		if evs[0].Verdict == model.VerdictPass {
			return model.StageStatusPassed, mean
		}
		return model.StageStatusFailed, mean
	}

	pass := false
	if evs[0].IsAI() {
		pass = 2*passes > len(evs)
	} else {
		pass = mean >= pkg.Round2(p.NormalizedThreshold())
	}
	if pass {
		return model.StageStatusPassed, mean
	}
	return model.StageStatusFailed, mean
}
