package panel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// ProfileSource loads profiles without locking. Unknown ids come back neutral.
type ProfileSource interface {
	Profiles(ctx context.Context, evaluatorIDs []int64) ([]model.InterviewerProfile, error)
}

type Service struct {
	profiles    ProfileSource
	evaluations EvaluationSource
	balancer    *Balancer
	logger      *zap.Logger
}

func NewService(profiles ProfileSource, evaluations EvaluationSource, balancer *Balancer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{profiles: profiles, evaluations: evaluations, balancer: balancer, logger: logger}
}

// RecommendPanel picks requiredCount evaluators out of candidateIDs.
func (s *Service) RecommendPanel(ctx context.Context, candidateIDs []int64, requiredCount int) (model.PanelRecommendation, error) {
	if requiredCount < 1 {
		return model.PanelRecommendation{}, apperr.Validation("required count must be at least 1, got %d", requiredCount)
	}
	for _, id := range candidateIDs {
		if id <= 0 {
			return model.PanelRecommendation{}, apperr.Validation("evaluator id must be positive, got %d", id)
		}
	}

	ids := dedupe(candidateIDs)
	if len(ids) < requiredCount {
		return model.PanelRecommendation{}, apperr.InsufficientCandidates(len(ids), requiredCount)
	}

	profiles, err := s.profiles.Profiles(ctx, ids)
	if err != nil {
		return model.PanelRecommendation{}, fmt.Errorf("load candidate profiles: %w", err)
	}

	sel, err := s.balancer.Balance(profiles, requiredCount)
	if err != nil {
		return model.PanelRecommendation{}, err
	}

	s.logger.Debug("panel recommended",
		zap.Int64s("selected", sel.IDs()),
		zap.Float64("score", sel.Score),
		zap.String("strategy", sel.Strategy),
	)

	return model.PanelRecommendation{
		SelectedIDs:  sel.IDs(),
		BalanceScore: pkg.Round2(sel.Score),
		Strategy:     sel.Strategy,
		Spread:       pkg.Round2(sel.Spread),
		Coverage:     pkg.Round2(sel.Coverage),
		Experience:   pkg.Round2(sel.Experience),
	}, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
