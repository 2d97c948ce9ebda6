package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// Store is the transactional view the tracker writes through.
type Store interface {
	// EnsureProfileForUpdate creates a neutral profile row when absent and locks it.
	EnsureProfileForUpdate(ctx context.Context, evaluatorID int64, neutral model.ProfileScores) (model.InterviewerProfile, error)
	// ProfileForUpdate locks an existing profile, apperr.ErrNotFound otherwise.
	ProfileForUpdate(ctx context.Context, evaluatorID int64) (model.InterviewerProfile, error)
	SaveProfile(ctx context.Context, p *model.InterviewerProfile) error
	InsertProfileHistory(ctx context.Context, h *model.InterviewerProfileHistory) error
	// PoolStats summarises active evaluations of everyone except excludeEvaluatorID.
	PoolStats(ctx context.Context, excludeEvaluatorID int64) (PoolStats, error)
}

// Repository is the non-transactional side of profile persistence.
type Repository interface {
	InProfileTx(ctx context.Context, fn func(Store) error) error
	GetProfiles(ctx context.Context, evaluatorIDs []int64) ([]model.InterviewerProfile, error)
	ListProfileHistory(ctx context.Context, evaluatorID int64, limit int) ([]model.InterviewerProfileHistory, error)
}

// Cache holds characteristics projections. Failures are logged, never returned to callers.
type Cache interface {
	GetCharacteristics(ctx context.Context, evaluatorID int64) (*model.Characteristics, error)
	SetCharacteristics(ctx context.Context, c *model.Characteristics) error
	Invalidate(ctx context.Context, evaluatorIDs ...int64) error
}

type Tracker struct {
	repo     Repository
	cache    Cache
	settings Settings
	logger   *zap.Logger
}

// NewTracker builds a tracker. cache may be nil.
func NewTracker(repo Repository, cache Cache, settings Settings, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		repo:     repo,
		cache:    cache,
		settings: settings.withDefaults(),
		logger:   logger,
	}
}

func (t *Tracker) Settings() Settings { return t.settings }

// RecordEvaluation folds one human evaluation into the evaluator's profile.
// It runs inside the caller's transaction; the caller invalidates the cache after commit.
func (t *Tracker) RecordEvaluation(ctx context.Context, store Store, obs Observation) (model.InterviewerProfile, error) {
	if obs.EvaluatorID <= 0 {
		return model.InterviewerProfile{}, apperr.Validation("evaluator id must be positive")
	}

	pool, err := store.PoolStats(ctx, obs.EvaluatorID)
	if err != nil {
		return model.InterviewerProfile{}, fmt.Errorf("load pool stats: %w", err)
	}

	p, err := store.EnsureProfileForUpdate(ctx, obs.EvaluatorID, t.settings.NeutralScores())
	if err != nil {
		return model.InterviewerProfile{}, fmt.Errorf("lock profile: %w", err)
	}

	old := p.ProfileScores
	sig := t.settings.ComputeSignals(obs, old, pool)
	next := t.settings.Apply(old, sig, obs.Given, pool.MaxInterviews)

	change := model.ChangeEvaluationAdded
	if old.TotalInterviews == 0 {
		change = model.ChangeProfileCreated
	}

	evalID := obs.EvaluationID
	p.ProfileScores = next
	p.LatestEvaluationID = &evalID
	p.ProfileVersion++
	if err := store.SaveProfile(ctx, &p); err != nil {
		return model.InterviewerProfile{}, fmt.Errorf("save profile: %w", err)
	}

	h := &model.InterviewerProfileHistory{
		ProfileID:    p.ProfileID,
		EvaluationID: &evalID,
		ChangeType:   change,
		OldValues:    old,
		NewValues:    next,
		ChangeReason: changeReason(evalID, old, next),
	}
	if err := store.InsertProfileHistory(ctx, h); err != nil {
		return model.InterviewerProfile{}, fmt.Errorf("insert profile history: %w", err)
	}

	return p, nil
}

// GetCharacteristics is read-only. Unknown evaluators get the neutral fingerprint.
func (t *Tracker) GetCharacteristics(ctx context.Context, evaluatorID int64) (model.Characteristics, error) {
	if evaluatorID <= 0 {
		return model.Characteristics{}, apperr.Validation("evaluator id must be positive")
	}

	if t.cache != nil {
		c, err := t.cache.GetCharacteristics(ctx, evaluatorID)
		if err != nil {
			t.logger.Warn("read characteristics cache", zap.Int64("evaluator_id", evaluatorID), zap.Error(err))
		} else if c != nil {
			return *c, nil
		}
	}

	profiles, err := t.Profiles(ctx, []int64{evaluatorID})
	if err != nil {
		return model.Characteristics{}, err
	}
	c := t.describe(profiles[0])

	if t.cache != nil && c.Known {
		if err := t.cache.SetCharacteristics(ctx, &c); err != nil {
			t.logger.Warn("write characteristics cache", zap.Int64("evaluator_id", evaluatorID), zap.Error(err))
		}
	}
	return c, nil
}

// Profiles returns one profile per id, in input order. Ids without a row get a
// neutral, active profile with ProfileID zero.
func (t *Tracker) Profiles(ctx context.Context, evaluatorIDs []int64) ([]model.InterviewerProfile, error) {
	stored, err := t.repo.GetProfiles(ctx, evaluatorIDs)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	byID := make(map[int64]model.InterviewerProfile, len(stored))
	for _, p := range stored {
		byID[p.EvaluatorID] = p
	}

	out := make([]model.InterviewerProfile, len(evaluatorIDs))
	for i, id := range evaluatorIDs {
		p, ok := byID[id]
		if !ok {
			p = model.InterviewerProfile{
				EvaluatorID:   id,
				ProfileScores: t.settings.NeutralScores(),
				IsActive:      true,
			}
		}
		out[i] = p
	}
	return out, nil
}

func (t *Tracker) describe(p model.InterviewerProfile) model.Characteristics {
	labels := Labels(p.ProfileScores)
	if p.ProfileID == 0 || p.TotalInterviews == 0 {
		labels = []string{"balanced evaluator"}
	}
	return model.Characteristics{
		EvaluatorID:   p.EvaluatorID,
		ProfileScores: p.ProfileScores,
		IsActive:      p.IsActive,
		Known:         p.ProfileID != 0,
		Labels:        labels,
		Summary:       fmt.Sprintf("confidence %.0f%% | %s", p.ConfidenceLevel, strings.Join(labels, ", ")),
	}
}

// History lists the newest profile changes first.
func (t *Tracker) History(ctx context.Context, evaluatorID int64, limit int) ([]model.InterviewerProfileHistory, error) {
	if evaluatorID <= 0 {
		return nil, apperr.Validation("evaluator id must be positive")
	}
	if limit < 1 {
		limit = 50
	}
	hs, err := t.repo.ListProfileHistory(ctx, evaluatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list profile history: %w", err)
	}
	return hs, nil
}

// SetActive soft-(de)activates an evaluator. Setting the current value is a no-op.
func (t *Tracker) SetActive(ctx context.Context, evaluatorID int64, active bool) (model.InterviewerProfile, error) {
	if evaluatorID <= 0 {
		return model.InterviewerProfile{}, apperr.Validation("evaluator id must be positive")
	}

	var out model.InterviewerProfile
	changed := false
	err := t.repo.InProfileTx(ctx, func(store Store) error {
		p, err := store.ProfileForUpdate(ctx, evaluatorID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.NotFound("interviewer profile", evaluatorID)
			}
			return fmt.Errorf("lock profile: %w", err)
		}
		out = p
		if p.IsActive == active {
			return nil
		}

		change, reason := model.ChangeDeactivated, "evaluator deactivated"
		if active {
			change, reason = model.ChangeReactivated, "evaluator reactivated"
		}
		p.IsActive = active
		p.ProfileVersion++
		if err := store.SaveProfile(ctx, &p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		if err := store.InsertProfileHistory(ctx, &model.InterviewerProfileHistory{
			ProfileID:    p.ProfileID,
			ChangeType:   change,
			OldValues:    p.ProfileScores,
			NewValues:    p.ProfileScores,
			ChangeReason: reason,
		}); err != nil {
			return fmt.Errorf("insert profile history: %w", err)
		}
		out = p
		changed = true
		return nil
	})
	if err != nil {
		return model.InterviewerProfile{}, err
	}

	if changed {
		t.Invalidate(ctx, evaluatorID)
	}
	return out, nil
}

// Invalidate drops cached projections; call after the owning transaction commits.
func (t *Tracker) Invalidate(ctx context.Context, evaluatorIDs ...int64) {
	if t.cache == nil || len(evaluatorIDs) == 0 {
		return
	}
	if err := t.cache.Invalidate(ctx, evaluatorIDs...); err != nil {
		t.logger.Warn("invalidate characteristics cache", zap.Int64s("evaluator_ids", evaluatorIDs), zap.Error(err))
	}
}
