package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/internal/profile"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

const profileColumns = `profile_id, evaluator_id, strictness_score, consistency_score, tech_focus_score,
	personality_focus_score, experience_score, avg_score_given, total_interviews, confidence_level,
	latest_evaluation_id, profile_version, is_active, created_at, updated_at`

func scanProfile(row pgx.Row) (model.InterviewerProfile, error) {
	var p model.InterviewerProfile
	err := row.Scan(
		&p.ProfileID, &p.EvaluatorID, &p.Strictness, &p.Consistency, &p.TechFocus,
		&p.PersonalityFocus, &p.Experience, &p.AvgScoreGiven, &p.TotalInterviews, &p.ConfidenceLevel,
		&p.LatestEvaluationID, &p.ProfileVersion, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (q *Queries) EnsureProfileForUpdate(ctx context.Context, evaluatorID int64, neutral model.ProfileScores) (model.InterviewerProfile, error) {
	const insert = `
INSERT INTO interviewer_profiles (
	evaluator_id, strictness_score, consistency_score, tech_focus_score,
	personality_focus_score, experience_score, avg_score_given, total_interviews, confidence_level
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (evaluator_id) DO NOTHING
`
	if _, err := q.db.Exec(ctx, insert,
		evaluatorID, neutral.Strictness, neutral.Consistency, neutral.TechFocus,
		neutral.PersonalityFocus, neutral.Experience, neutral.AvgScoreGiven, neutral.TotalInterviews, neutral.ConfidenceLevel,
	); err != nil {
		return model.InterviewerProfile{}, fmt.Errorf("ensure profile: %w", err)
	}
	return q.ProfileForUpdate(ctx, evaluatorID)
}

func (q *Queries) ProfileForUpdate(ctx context.Context, evaluatorID int64) (model.InterviewerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM interviewer_profiles WHERE evaluator_id = $1 FOR UPDATE`
	p, err := scanProfile(q.db.QueryRow(ctx, query, evaluatorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.InterviewerProfile{}, apperr.NotFound("interviewer profile", evaluatorID)
		}
		return model.InterviewerProfile{}, fmt.Errorf("lock profile: %w", err)
	}
	return p, nil
}

func (q *Queries) SaveProfile(ctx context.Context, p *model.InterviewerProfile) error {
	const query = `
UPDATE interviewer_profiles
SET strictness_score = $2, consistency_score = $3, tech_focus_score = $4, personality_focus_score = $5,
    experience_score = $6, avg_score_given = $7, total_interviews = $8, confidence_level = $9,
    latest_evaluation_id = $10, profile_version = $11, is_active = $12, updated_at = NOW()
WHERE profile_id = $1
RETURNING updated_at
`
	row := q.db.QueryRow(ctx, query,
		p.ProfileID, p.Strictness, p.Consistency, p.TechFocus, p.PersonalityFocus,
		p.Experience, p.AvgScoreGiven, p.TotalInterviews, p.ConfidenceLevel,
		p.LatestEvaluationID, p.ProfileVersion, p.IsActive,
	)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("interviewer profile", p.EvaluatorID)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (q *Queries) InsertProfileHistory(ctx context.Context, h *model.InterviewerProfileHistory) error {
	oldValues, err := json.Marshal(h.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newValues, err := json.Marshal(h.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	const query = `
INSERT INTO interviewer_profile_history (profile_id, evaluation_id, change_type, old_values, new_values, change_reason)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING history_id, created_at
`
	row := q.db.QueryRow(ctx, query, h.ProfileID, h.EvaluationID, h.ChangeType, oldValues, newValues, h.ChangeReason)
	if err := row.Scan(&h.HistoryID, &h.CreatedAt); err != nil {
		return fmt.Errorf("insert profile history: %w", err)
	}
	return nil
}

// PoolStats averages the active human evaluations of other evaluators.
func (q *Queries) PoolStats(ctx context.Context, excludeEvaluatorID int64) (profile.PoolStats, error) {
	const query = `
SELECT
	COALESCE((SELECT AVG(normalized_score) FROM evaluations
	          WHERE evaluator_id IS NOT NULL AND evaluator_id <> $1 AND superseded_at IS NULL), 0),
	(SELECT COUNT(*) FROM evaluations
	 WHERE evaluator_id IS NOT NULL AND evaluator_id <> $1 AND superseded_at IS NULL),
	COALESCE((SELECT MAX(total_interviews) FROM interviewer_profiles WHERE evaluator_id <> $1), 0)
`
	var s profile.PoolStats
	if err := q.db.QueryRow(ctx, query, excludeEvaluatorID).Scan(&s.AvgScore, &s.Evaluations, &s.MaxInterviews); err != nil {
		return profile.PoolStats{}, fmt.Errorf("pool stats: %w", err)
	}
	return s, nil
}

func (q *Queries) GetProfiles(ctx context.Context, evaluatorIDs []int64) ([]model.InterviewerProfile, error) {
	if len(evaluatorIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + profileColumns + ` FROM interviewer_profiles WHERE evaluator_id = ANY($1) ORDER BY evaluator_id`
	rows, err := q.db.Query(ctx, query, evaluatorIDs)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []model.InterviewerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func (q *Queries) ListProfileHistory(ctx context.Context, evaluatorID int64, limit int) ([]model.InterviewerProfileHistory, error) {
	const query = `
SELECT h.history_id, h.profile_id, h.evaluation_id, h.change_type, h.old_values, h.new_values, h.change_reason, h.created_at
FROM interviewer_profile_history h
JOIN interviewer_profiles p ON p.profile_id = h.profile_id
WHERE p.evaluator_id = $1
ORDER BY h.history_id DESC
LIMIT $2
`
	rows, err := q.db.Query(ctx, query, evaluatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query profile history: %w", err)
	}
	defer rows.Close()

	var out []model.InterviewerProfileHistory
	for rows.Next() {
		var (
			h              model.InterviewerProfileHistory
			oldRaw, newRaw []byte
		)
		if err := rows.Scan(&h.HistoryID, &h.ProfileID, &h.EvaluationID, &h.ChangeType,
			&oldRaw, &newRaw, &h.ChangeReason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile history: %w", err)
		}
		if err := json.Unmarshal(oldRaw, &h.OldValues); err != nil {
			return nil, fmt.Errorf("decode old values: %w", err)
		}
		if err := json.Unmarshal(newRaw, &h.NewValues); err != nil {
			return nil, fmt.Errorf("decode new values: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile history: %w", err)
	}
	return out, nil
}
