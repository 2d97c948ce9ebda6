package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/internal/pipeline"
	"github.com/abhishek622/hiringpipeline/internal/testutil"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

type fakePipeline struct {
	submitted pipeline.Submission
	advanced  pipeline.AdvanceRequest
	result    model.EvaluationResult
	outcome   pipeline.Outcome
	err       error
}

func (f *fakePipeline) CreateApplication(_ context.Context, jobPostID, userID int64) (model.Application, error) {
	return model.Application{
		ApplicationID: 1, JobPostID: jobPostID, UserID: userID,
		CurrentStage: model.StageDocument, OverallStatus: model.OverallInProgress,
	}, f.err
}

func (f *fakePipeline) GetApplication(_ context.Context, id int64) (model.Application, error) {
	if f.err != nil {
		return model.Application{}, f.err
	}
	return model.Application{ApplicationID: id, CurrentStage: model.StageAIInterview}, nil
}

func (f *fakePipeline) ListEvaluations(context.Context, int64) ([]model.Evaluation, error) {
	return nil, f.err
}

func (f *fakePipeline) SubmitEvaluation(_ context.Context, sub pipeline.Submission) (model.EvaluationResult, error) {
	f.submitted = sub
	return f.result, f.err
}

func (f *fakePipeline) Advance(_ context.Context, req pipeline.AdvanceRequest) (pipeline.Transition, error) {
	f.advanced = req
	return pipeline.Transition{Outcome: f.outcome}, f.err
}

type fakeProfiles struct {
	limit  int
	active bool
	err    error
}

func (f *fakeProfiles) GetCharacteristics(_ context.Context, id int64) (model.Characteristics, error) {
	return model.Characteristics{EvaluatorID: id, Labels: []string{"balanced evaluator"}}, f.err
}

func (f *fakeProfiles) History(_ context.Context, _ int64, limit int) ([]model.InterviewerProfileHistory, error) {
	f.limit = limit
	return nil, f.err
}

func (f *fakeProfiles) SetActive(_ context.Context, id int64, active bool) (model.InterviewerProfile, error) {
	f.active = active
	return model.InterviewerProfile{EvaluatorID: id, IsActive: active}, f.err
}

type fakePanels struct {
	stage model.StageName
	err   error
}

func (f *fakePanels) RecommendPanel(_ context.Context, ids []int64, k int) (model.PanelRecommendation, error) {
	if f.err != nil {
		return model.PanelRecommendation{}, f.err
	}
	return model.PanelRecommendation{SelectedIDs: ids[:k], Strategy: "exhaustive"}, nil
}

func (f *fakePanels) AnalyzeStage(_ context.Context, id int64, stage model.StageName) (model.PanelAnalysis, error) {
	f.stage = stage
	if f.err != nil {
		return model.PanelAnalysis{}, f.err
	}
	return model.PanelAnalysis{ApplicationID: id, Stage: stage, EvaluatorCount: 2}, nil
}

func newRouter(p *fakePipeline, pr *fakeProfiles, pn *fakePanels, checks map[string]HealthCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{Logger: zap.NewNop(), Pipeline: p, Profiles: pr, Panels: pn, Checks: checks}
	r := gin.New()
	h.Register(r)
	return r
}

func TestCreateApplication(t *testing.T) {
	r := newRouter(&fakePipeline{}, &fakeProfiles{}, &fakePanels{}, nil)

	w := testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications", model.CreateApplicationReq{JobPostID: 3, UserID: 4})
	require.Equal(t, http.StatusCreated, w.Code)
	var app model.Application
	testutil.DecodeEnvelope(t, w, &app)
	assert.Equal(t, int64(3), app.JobPostID)
	assert.Equal(t, model.StageDocument, app.CurrentStage)

	w = testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications", map[string]int{"job_post_id": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetApplicationErrors(t *testing.T) {
	p := &fakePipeline{}
	r := newRouter(p, &fakeProfiles{}, &fakePanels{}, nil)

	w := testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/applications/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	p.err = apperr.NotFound("application", 9)
	w = testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/applications/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	p.err = errors.New("pool closed")
	w = testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/applications/9", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pool closed")
}

func TestListEvaluationsReturnsEmptyList(t *testing.T) {
	r := newRouter(&fakePipeline{}, &fakeProfiles{}, &fakePanels{}, nil)

	w := testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/applications/1/evaluations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var evs []model.Evaluation
	testutil.DecodeEnvelope(t, w, &evs)
	assert.NotNil(t, evs)
	assert.Empty(t, evs)
}

func TestSubmitEvaluation(t *testing.T) {
	p := &fakePipeline{result: model.EvaluationResult{EvaluationID: 5, Stage: model.StageDocument, Verdict: model.VerdictPass}}
	r := newRouter(p, &fakeProfiles{}, &fakePanels{}, nil)

	score := 90.0
	evaluator := int64(11)
	sid := uuid.New()
	body := model.SubmitEvaluationReq{
		InterviewType: "document",
		EvaluatorID:   &evaluator,
		SubmissionID:  &sid,
		Items:         []model.ItemInput{{Kind: model.ItemKindScore, EvaluateType: "resume", Score: &score}},
	}
	w := testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications/7/evaluations", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(7), p.submitted.ApplicationID)
	assert.Equal(t, model.InterviewDocument, p.submitted.InterviewType)
	assert.Equal(t, sid, *p.submitted.SubmissionID)

	p.result.Replayed = true
	w = testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications/7/evaluations", body)
	assert.Equal(t, http.StatusOK, w.Code)

	p.err = apperr.StageResolved("stage %s already resolved", model.StageDocument)
	w = testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications/7/evaluations", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	body.Items[0].Kind = "guess"
	w = testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications/7/evaluations", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvanceStageStaleIsOK(t *testing.T) {
	p := &fakePipeline{outcome: pipeline.OutcomeStale}
	r := newRouter(p, &fakeProfiles{}, &fakePanels{}, nil)

	w := testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications/2/stages/document",
		map[string]string{"status": "passed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StageDocument, p.advanced.Stage)
	assert.Equal(t, model.StageStatusPassed, p.advanced.Status)

	var tr pipeline.Transition
	testutil.DecodeEnvelope(t, w, &tr)
	assert.Equal(t, pipeline.OutcomeStale, tr.Outcome)

	p.err = apperr.Validation("unknown stage")
	w = testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/applications/2/stages/lunch",
		map[string]string{"status": "PASSED"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRecommendPanel(t *testing.T) {
	pn := &fakePanels{}
	r := newRouter(&fakePipeline{}, &fakeProfiles{}, pn, nil)

	w := testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/panels/recommend",
		model.RecommendPanelReq{CandidateEvaluatorIDs: []int64{1, 2, 3}, RequiredCount: 2})
	require.Equal(t, http.StatusOK, w.Code)
	var rec model.PanelRecommendation
	testutil.DecodeEnvelope(t, w, &rec)
	assert.Equal(t, []int64{1, 2}, rec.SelectedIDs)

	pn.err = apperr.InsufficientCandidates(1, 2)
	w = testutil.MakeJSONRequest(t, r, http.MethodPost, "/api/v1/panels/recommend",
		model.RecommendPanelReq{CandidateEvaluatorIDs: []int64{1}, RequiredCount: 2})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errInfo := testutil.DecodeEnvelope(t, w, nil)
	assert.Equal(t, "INSUFFICIENT_CANDIDATES", errInfo["code"])
}

func TestAnalyzePanel(t *testing.T) {
	pn := &fakePanels{}
	r := newRouter(&fakePipeline{}, &fakeProfiles{}, pn, nil)

	w := testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/applications/5/stages/practical_interview/panel-analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StagePracticalInterview, pn.stage)
	var got model.PanelAnalysis
	testutil.DecodeEnvelope(t, w, &got)
	assert.Equal(t, int64(5), got.ApplicationID)
	assert.Equal(t, 2, got.EvaluatorCount)

	w = testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/applications/x/stages/document/panel-analysis", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pn.err = apperr.Validation("stage DOCUMENT has 1 human evaluation(s), at least 2 are needed")
	w = testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/applications/5/stages/document/panel-analysis", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInterviewerEndpoints(t *testing.T) {
	pr := &fakeProfiles{}
	r := newRouter(&fakePipeline{}, pr, &fakePanels{}, nil)

	w := testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/interviewers/4/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ch model.Characteristics
	testutil.DecodeEnvelope(t, w, &ch)
	assert.Equal(t, int64(4), ch.EvaluatorID)

	w = testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/interviewers/4/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, pr.limit)

	w = testutil.MakeJSONRequest(t, r, http.MethodGet, "/api/v1/interviewers/4/history?limit=5000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.MakeJSONRequest(t, r, http.MethodPatch, "/api/v1/interviewers/4/active", map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, pr.active)

	w = testutil.MakeJSONRequest(t, r, http.MethodPatch, "/api/v1/interviewers/4/active", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pr.err = apperr.NotFound("interviewer profile", 4)
	w = testutil.MakeJSONRequest(t, r, http.MethodPatch, "/api/v1/interviewers/4/active", map[string]bool{"active": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	down := errors.New("refused")
	checks := map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}
	r := newRouter(&fakePipeline{}, &fakeProfiles{}, &fakePanels{}, checks)

	w := testutil.MakeJSONRequest(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]string
	testutil.DecodeEnvelope(t, w, &status)
	assert.Equal(t, "up", status["database"])

	checks["redis"] = func(context.Context) error { return down }
	w = testutil.MakeJSONRequest(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	testutil.DecodeEnvelope(t, w, &status)
	assert.Equal(t, "down", status["redis"])
}
