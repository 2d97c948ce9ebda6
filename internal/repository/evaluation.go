package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

const evaluationColumns = `evaluation_id, submission_id, application_id, evaluator_id, interview_type,
	stage_name, total_score, normalized_score, verdict, summary, forced, superseded_at, created_at`

func scanEvaluation(row pgx.Row) (model.Evaluation, error) {
	var e model.Evaluation
	err := row.Scan(
		&e.EvaluationID, &e.SubmissionID, &e.ApplicationID, &e.EvaluatorID, &e.InterviewType,
		&e.StageName, &e.TotalScore, &e.NormalizedScore, &e.Verdict, &e.Summary, &e.Forced,
		&e.SupersededAt, &e.CreatedAt,
	)
	return e, err
}

// InsertEvaluation stores the evaluation and its items.
func (q *Queries) InsertEvaluation(ctx context.Context, ev *model.Evaluation) error {
	const query = `
INSERT INTO evaluations (
	submission_id, application_id, evaluator_id, interview_type, stage_name,
	total_score, normalized_score, verdict, summary, forced
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING evaluation_id, created_at
`
	row := q.db.QueryRow(ctx, query,
		ev.SubmissionID, ev.ApplicationID, ev.EvaluatorID, ev.InterviewType, ev.StageName,
		ev.TotalScore, ev.NormalizedScore, ev.Verdict, ev.Summary, ev.Forced,
	)
	if err := row.Scan(&ev.EvaluationID, &ev.CreatedAt); err != nil {
		switch {
		case isUniqueViolation(err, "evaluations_active_evaluator_key"):
			return apperr.Conflict("evaluator %d already evaluated %s of application %d",
				deref(ev.EvaluatorID), ev.StageName, ev.ApplicationID)
		case isUniqueViolation(err, "evaluations_submission_id_key"):
			return apperr.Conflict("submission %s already stored", ev.SubmissionID)
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}

	const itemQuery = `
INSERT INTO evaluation_items (
	evaluation_id, position, kind, evaluate_type, category, raw_value, score, weight, grade, comment
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING item_id
`
	for i := range ev.Items {
		it := &ev.Items[i]
		it.EvaluationID = ev.EvaluationID
		row := q.db.QueryRow(ctx, itemQuery,
			it.EvaluationID, it.Position, it.Kind, it.EvaluateType, it.Category,
			it.RawValue, it.Score, it.Weight, it.Grade, it.Comment,
		)
		if err := row.Scan(&it.ItemID); err != nil {
			return fmt.Errorf("insert evaluation item %d: %w", it.Position, err)
		}
	}
	return nil
}

func (q *Queries) EvaluationBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE submission_id = $1`
	e, err := scanEvaluation(q.db.QueryRow(ctx, query, submissionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get evaluation by submission: %w", err)
	}
	return &e, nil
}

func (q *Queries) ActiveStageEvaluations(ctx context.Context, applicationID int64, stage model.StageName) ([]model.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations
WHERE application_id = $1 AND stage_name = $2 AND superseded_at IS NULL
ORDER BY evaluation_id`
	return q.queryEvaluations(ctx, query, applicationID, stage)
}

func (q *Queries) SupersedeStageEvaluations(ctx context.Context, applicationID int64, stage model.StageName, at time.Time) (int64, error) {
	const query = `
UPDATE evaluations SET superseded_at = $3
WHERE application_id = $1 AND stage_name = $2 AND superseded_at IS NULL
`
	tag, err := q.db.Exec(ctx, query, applicationID, stage, at)
	if err != nil {
		return 0, fmt.Errorf("supersede evaluations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListEvaluations returns every evaluation of the application with its items, oldest first.
func (q *Queries) ListEvaluations(ctx context.Context, applicationID int64) ([]model.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE application_id = $1 ORDER BY evaluation_id`
	evs, err := q.queryEvaluations(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	if len(evs) == 0 {
		return evs, nil
	}

	ids := make([]int64, len(evs))
	byID := make(map[int64]int, len(evs))
	for i, e := range evs {
		ids[i] = e.EvaluationID
		byID[e.EvaluationID] = i
	}

	const itemQuery = `
SELECT item_id, evaluation_id, position, kind, evaluate_type, category, raw_value, score, weight, grade, comment
FROM evaluation_items WHERE evaluation_id = ANY($1) ORDER BY evaluation_id, position
`
	rows, err := q.db.Query(ctx, itemQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("query evaluation items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.EvaluationItem
		if err := rows.Scan(
			&it.ItemID, &it.EvaluationID, &it.Position, &it.Kind, &it.EvaluateType, &it.Category,
			&it.RawValue, &it.Score, &it.Weight, &it.Grade, &it.Comment,
		); err != nil {
			return nil, fmt.Errorf("scan evaluation item: %w", err)
		}
		i := byID[it.EvaluationID]
		evs[i].Items = append(evs[i].Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation items: %w", err)
	}
	return evs, nil
}

func (q *Queries) queryEvaluations(ctx context.Context, query string, args ...any) ([]model.Evaluation, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []model.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return out, nil
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
