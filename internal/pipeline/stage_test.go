package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

func adv(appID int64, stage model.StageName, status model.StageStatus) AdvanceRequest {
	return AdvanceRequest{ApplicationID: appID, Stage: stage, Status: status}
}

func TestAdvanceWalksThePipeline(t *testing.T) {
	t.Parallel()

	svc, store, rec := newTestService(t, nil)
	ctx := context.Background()
	app, err := svc.CreateApplication(ctx, 3, 4)
	require.NoError(t, err)
	id := app.ApplicationID
	assert.Equal(t, model.StageDocument, app.CurrentStage)

	tr, err := svc.Advance(ctx, adv(id, model.StageDocument, model.StageStatusScheduled))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, tr.Outcome)

	tr, err = svc.Advance(ctx, adv(id, model.StageDocument, model.StageStatusScheduled))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, tr.Outcome)
	assert.Len(t, store.snapshot().stages, 1)

	pass := adv(id, model.StageDocument, model.StageStatusPassed)
	pass.Score = ptr(80.0)
	pass.Reason = ptr("strong resume")
	tr, err = svc.Advance(ctx, pass)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, tr.Outcome)
	assert.Equal(t, model.StageAIInterview, tr.Application.CurrentStage)
	require.NotNil(t, tr.Stage)
	assert.Equal(t, "strong resume", *tr.Stage.PassReason)
	assert.Nil(t, tr.Stage.FailReason)

	// the successor row is not created eagerly
	snap := store.snapshot()
	assert.Len(t, snap.stages, 1)
	assert.Equal(t, model.StageAIInterview, snap.apps[id].CurrentStage)

	published := len(rec.Events())

	// duplicates and late deliveries behind the current stage are stale
	tr, err = svc.Advance(ctx, pass)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, tr.Outcome)

	tr, err = svc.Advance(ctx, adv(id, model.StageDocument, model.StageStatusFailed))
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, tr.Outcome)
	assert.Equal(t, model.OverallInProgress, tr.Application.OverallStatus)

	assert.Equal(t, snap.stages, store.snapshot().stages)
	assert.Equal(t, snap.apps, store.snapshot().apps)
	assert.Len(t, rec.Events(), published)

	// a later stage may be scheduled but not decided
	tr, err = svc.Advance(ctx, adv(id, model.StagePracticalInterview, model.StageStatusScheduled))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, tr.Outcome)
	assert.Equal(t, model.StageAIInterview, tr.Application.CurrentStage)

	_, err = svc.Advance(ctx, adv(id, model.StagePracticalInterview, model.StageStatusPassed))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	fail := adv(id, model.StageAIInterview, model.StageStatusFailed)
	fail.Reason = ptr("no show")
	tr, err = svc.Advance(ctx, fail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, tr.Outcome)
	assert.Equal(t, model.OverallRejected, tr.Application.OverallStatus)
	assert.Equal(t, model.StageAIInterview, tr.Application.CurrentStage)
	assert.Equal(t, "no show", *tr.Stage.FailReason)

	tr, err = svc.Advance(ctx, fail)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, tr.Outcome)

	_, err = svc.Advance(ctx, adv(id, model.StageAIInterview, model.StageStatusPassed))
	assert.ErrorIs(t, err, apperr.ErrStageResolved)

	got, err := svc.GetApplication(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Stages, 3)
	assert.Equal(t, model.StageDocument, got.Stages[0].StageName)
	assert.Equal(t, model.StageAIInterview, got.Stages[1].StageName)
	assert.Equal(t, model.StagePracticalInterview, got.Stages[2].StageName)
}

func TestAdvanceFinalResult(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t, nil)
	ctx := context.Background()

	app := store.seed(model.Application{JobPostID: 1, UserID: 1, CurrentStage: model.StageFinalResult})
	store.state.stages[stageKey{app.ApplicationID, model.StageDocument}] = model.ApplicationStage{
		ApplicationID: app.ApplicationID, StageName: model.StageDocument, StageOrder: 1,
		Status: model.StageStatusPassed, Score: ptr(80.0),
	}
	store.state.stages[stageKey{app.ApplicationID, model.StageAIInterview}] = model.ApplicationStage{
		ApplicationID: app.ApplicationID, StageName: model.StageAIInterview, StageOrder: 2,
		Status: model.StageStatusPassed, Score: ptr(60.0),
	}
	store.state.stages[stageKey{app.ApplicationID, model.StagePracticalInterview}] = model.ApplicationStage{
		ApplicationID: app.ApplicationID, StageName: model.StagePracticalInterview, StageOrder: 3,
		Status: model.StageStatusScheduled, Score: ptr(10.0),
	}

	tr, err := svc.Advance(ctx, adv(app.ApplicationID, model.StageFinalResult, model.StageStatusPassed))
	require.NoError(t, err)
	assert.Equal(t, model.OverallPassed, tr.Application.OverallStatus)
	require.NotNil(t, tr.Application.FinalScore)
	assert.Equal(t, 70.0, *tr.Application.FinalScore)

	_, err = svc.Advance(ctx, adv(app.ApplicationID, model.StageFinalResult, model.StageStatusFailed))
	assert.ErrorIs(t, err, apperr.ErrStageResolved)

	explicit := store.seed(model.Application{JobPostID: 1, UserID: 2, CurrentStage: model.StageFinalResult})
	req := adv(explicit.ApplicationID, model.StageFinalResult, model.StageStatusPassed)
	req.Score = ptr(91.5)
	tr, err = svc.Advance(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 91.5, *tr.Application.FinalScore)
}

func TestAdvanceRejectsBadRequests(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t, nil)
	ctx := context.Background()
	app := store.seed(model.Application{JobPostID: 1, UserID: 1})

	_, err := svc.Advance(ctx, adv(404, model.StageDocument, model.StageStatusPassed))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Advance(ctx, adv(app.ApplicationID, "LUNCH", model.StageStatusPassed))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Advance(ctx, adv(app.ApplicationID, model.StageDocument, "MAYBE"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req := adv(app.ApplicationID, model.StageDocument, model.StageStatusPassed)
	req.Score = ptr(150.0)
	_, err = svc.Advance(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Empty(t, store.snapshot().stages)
}

func TestCreateApplicationValidates(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, nil)
	_, err := svc.CreateApplication(context.Background(), 0, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.GetApplication(context.Background(), 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ListEvaluations(context.Background(), 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdvanceNeverMovesAStageBackwards(t *testing.T) {
	t.Parallel()

	svc, store, rec := newTestService(t, nil)
	ctx := context.Background()
	app := store.seed(model.Application{JobPostID: 1, UserID: 1})
	id := app.ApplicationID

	tr, err := svc.Advance(ctx, adv(id, model.StageDocument, model.StageStatusCompleted))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, tr.Outcome)
	published := len(rec.Events())

	for _, status := range []model.StageStatus{
		model.StageStatusPending, model.StageStatusScheduled, model.StageStatusInProgress,
	} {
		tr, err = svc.Advance(ctx, adv(id, model.StageDocument, status))
		require.NoError(t, err)
		assert.Equal(t, OutcomeStale, tr.Outcome, status)
		require.NotNil(t, tr.Stage)
		assert.Equal(t, model.StageStatusCompleted, tr.Stage.Status)
	}
	assert.Equal(t, model.StageStatusCompleted, store.snapshot().stages[stageKey{id, model.StageDocument}].Status)
	assert.Len(t, rec.Events(), published)

	// a later stage scheduled ahead of time follows the same order
	_, err = svc.Advance(ctx, adv(id, model.StageAIInterview, model.StageStatusScheduled))
	require.NoError(t, err)
	tr, err = svc.Advance(ctx, adv(id, model.StageAIInterview, model.StageStatusPending))
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, tr.Outcome)

	tr, err = svc.Advance(ctx, adv(id, model.StageDocument, model.StageStatusPassed))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, tr.Outcome)
	assert.Equal(t, model.StageAIInterview, tr.Application.CurrentStage)
}

func TestStageStatusRank(t *testing.T) {
	order := []model.StageStatus{
		model.StageStatusPending, model.StageStatusScheduled,
		model.StageStatusInProgress, model.StageStatusCompleted, model.StageStatusPassed,
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1].Rank(), order[i].Rank())
	}
	assert.Equal(t, model.StageStatusPassed.Rank(), model.StageStatusFailed.Rank())
	assert.Zero(t, model.StageStatus("MAYBE").Rank())
}

// Random interleavings of advances, in and out of order, never move the
// current stage back, never regress a stage row and never reopen a closed
// application.
func TestAdvanceRandomInterleavings(t *testing.T) {
	t.Parallel()

	statuses := []model.StageStatus{
		model.StageStatusPending, model.StageStatusScheduled, model.StageStatusInProgress,
		model.StageStatusCompleted, model.StageStatusPassed, model.StageStatusFailed,
	}
	rng := rand.New(rand.NewSource(20261014))
	ctx := context.Background()

	for run := 0; run < 200; run++ {
		svc, store, _ := newTestService(t, nil)
		app := store.seed(model.Application{JobPostID: 1, UserID: int64(run + 1)})
		id := app.ApplicationID

		prev := store.snapshot()
		for step := 0; step < 30; step++ {
			req := adv(id,
				model.StageSequence[rng.Intn(len(model.StageSequence))],
				statuses[rng.Intn(len(statuses))])
			_, err := svc.Advance(ctx, req)
			if err != nil && !errors.Is(err, apperr.ErrValidation) && !errors.Is(err, apperr.ErrStageResolved) {
				require.NoError(t, err, "run %d step %d: %+v", run, step, req)
			}

			cur := store.snapshot()
			before, after := prev.apps[id], cur.apps[id]
			require.GreaterOrEqual(t, after.CurrentStage.Order(), before.CurrentStage.Order(),
				"run %d step %d: current stage moved back", run, step)
			if before.OverallStatus.Closed() {
				require.Equal(t, before, after, "run %d step %d: closed application changed", run, step)
				require.Equal(t, prev.stages, cur.stages, "run %d step %d: closed application stages changed", run, step)
			}
			for k, st := range prev.stages {
				now := cur.stages[k]
				require.GreaterOrEqual(t, now.Status.Rank(), st.Status.Rank(),
					"run %d step %d: %s went from %s to %s", run, step, k.stage, st.Status, now.Status)
				if st.Status.Resolved() {
					require.Equal(t, st.Status, now.Status, "run %d step %d: verdict on %s changed", run, step, k.stage)
				}
			}
			prev = cur
		}
	}
}
