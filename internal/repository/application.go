package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

const applicationColumns = `application_id, job_post_id, user_id, current_stage, overall_status,
	final_score, applied_at, updated_at`

func scanApplication(row pgx.Row) (model.Application, error) {
	var a model.Application
	err := row.Scan(
		&a.ApplicationID, &a.JobPostID, &a.UserID, &a.CurrentStage, &a.OverallStatus,
		&a.FinalScore, &a.AppliedAt, &a.UpdatedAt,
	)
	return a, err
}

func (q *Queries) CreateApplication(ctx context.Context, app *model.Application) error {
	const query = `
INSERT INTO applications (job_post_id, user_id, current_stage, overall_status)
VALUES ($1, $2, $3, $4)
RETURNING application_id, applied_at, updated_at
`
	row := q.db.QueryRow(ctx, query, app.JobPostID, app.UserID, app.CurrentStage, app.OverallStatus)
	if err := row.Scan(&app.ApplicationID, &app.AppliedAt, &app.UpdatedAt); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (q *Queries) GetApplication(ctx context.Context, applicationID int64) (model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE application_id = $1`
	a, err := scanApplication(q.db.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Application{}, apperr.NotFound("application", applicationID)
		}
		return model.Application{}, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// ApplicationForUpdate locks the application row until the transaction ends.
func (q *Queries) ApplicationForUpdate(ctx context.Context, applicationID int64) (model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE application_id = $1 FOR UPDATE`
	a, err := scanApplication(q.db.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Application{}, apperr.NotFound("application", applicationID)
		}
		return model.Application{}, fmt.Errorf("lock application: %w", err)
	}
	return a, nil
}

func (q *Queries) UpdateApplicationProgress(ctx context.Context, app *model.Application) error {
	const query = `
UPDATE applications
SET current_stage = $2, overall_status = $3, final_score = $4, updated_at = NOW()
WHERE application_id = $1
RETURNING updated_at
`
	row := q.db.QueryRow(ctx, query, app.ApplicationID, app.CurrentStage, app.OverallStatus, app.FinalScore)
	if err := row.Scan(&app.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("application", app.ApplicationID)
		}
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}

const stageColumns = `stage_id, application_id, stage_name, stage_order, status, score,
	pass_reason, fail_reason, created_at, updated_at`

func scanStage(row pgx.Row) (model.ApplicationStage, error) {
	var s model.ApplicationStage
	err := row.Scan(
		&s.StageID, &s.ApplicationID, &s.StageName, &s.StageOrder, &s.Status, &s.Score,
		&s.PassReason, &s.FailReason, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (q *Queries) GetStage(ctx context.Context, applicationID int64, stage model.StageName) (*model.ApplicationStage, error) {
	query := `SELECT ` + stageColumns + ` FROM application_stages WHERE application_id = $1 AND stage_name = $2`
	s, err := scanStage(q.db.QueryRow(ctx, query, applicationID, stage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stage: %w", err)
	}
	return &s, nil
}

func (q *Queries) ListStages(ctx context.Context, applicationID int64) ([]model.ApplicationStage, error) {
	query := `SELECT ` + stageColumns + ` FROM application_stages WHERE application_id = $1 ORDER BY stage_order`
	rows, err := q.db.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	out := make([]model.ApplicationStage, 0, len(model.StageSequence))
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return out, nil
}

// UpsertStage writes the (application, stage) row. Retrying with the same
// input leaves exactly one row with the same content.
func (q *Queries) UpsertStage(ctx context.Context, st *model.ApplicationStage) error {
	const query = `
INSERT INTO application_stages (application_id, stage_name, stage_order, status, score, pass_reason, fail_reason)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (application_id, stage_name) DO UPDATE
SET status = EXCLUDED.status,
    score = EXCLUDED.score,
    pass_reason = EXCLUDED.pass_reason,
    fail_reason = EXCLUDED.fail_reason,
    updated_at = NOW()
RETURNING stage_id, created_at, updated_at
`
	row := q.db.QueryRow(ctx, query,
		st.ApplicationID, st.StageName, st.StageOrder, st.Status, st.Score, st.PassReason, st.FailReason,
	)
	if err := row.Scan(&st.StageID, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return fmt.Errorf("upsert stage: %w", err)
	}
	return nil
}
