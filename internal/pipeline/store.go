package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abhishek622/hiringpipeline/internal/profile"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// Tx is everything a submission or transition touches inside one transaction.
// Implementations lock the application row in ApplicationForUpdate; every other
// write of the transaction happens under that lock.
type Tx interface {
	profile.Store

	ApplicationForUpdate(ctx context.Context, applicationID int64) (model.Application, error)
	UpdateApplicationProgress(ctx context.Context, app *model.Application) error

	// GetStage returns nil when the stage row does not exist yet.
	GetStage(ctx context.Context, applicationID int64, stage model.StageName) (*model.ApplicationStage, error)
	ListStages(ctx context.Context, applicationID int64) ([]model.ApplicationStage, error)
	// UpsertStage inserts or updates the (application, stage) row in place.
	UpsertStage(ctx context.Context, st *model.ApplicationStage) error

	// EvaluationBySubmission returns nil when the submission id is unused.
	EvaluationBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.Evaluation, error)
	// InsertEvaluation stores the evaluation with its items. A second active
	// evaluation by the same evaluator on one stage fails with apperr.ErrConflict.
	InsertEvaluation(ctx context.Context, ev *model.Evaluation) error
	ActiveStageEvaluations(ctx context.Context, applicationID int64, stage model.StageName) ([]model.Evaluation, error)
	SupersedeStageEvaluations(ctx context.Context, applicationID int64, stage model.StageName, at time.Time) (int64, error)
}

// Store opens transactions and serves the read side.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error

	CreateApplication(ctx context.Context, app *model.Application) error
	GetApplication(ctx context.Context, applicationID int64) (model.Application, error)
	ListStages(ctx context.Context, applicationID int64) ([]model.ApplicationStage, error)
	ListEvaluations(ctx context.Context, applicationID int64) ([]model.Evaluation, error)
}
