package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/pipeline"
	"github.com/abhishek622/hiringpipeline/pkg/model"
	"github.com/abhishek622/hiringpipeline/pkg/response"
)

type PipelineService interface {
	CreateApplication(ctx context.Context, jobPostID, userID int64) (model.Application, error)
	GetApplication(ctx context.Context, applicationID int64) (model.Application, error)
	ListEvaluations(ctx context.Context, applicationID int64) ([]model.Evaluation, error)
	SubmitEvaluation(ctx context.Context, sub pipeline.Submission) (model.EvaluationResult, error)
	Advance(ctx context.Context, req pipeline.AdvanceRequest) (pipeline.Transition, error)
}

type ProfileService interface {
	GetCharacteristics(ctx context.Context, evaluatorID int64) (model.Characteristics, error)
	History(ctx context.Context, evaluatorID int64, limit int) ([]model.InterviewerProfileHistory, error)
	SetActive(ctx context.Context, evaluatorID int64, active bool) (model.InterviewerProfile, error)
}

type PanelService interface {
	RecommendPanel(ctx context.Context, candidateIDs []int64, requiredCount int) (model.PanelRecommendation, error)
	AnalyzeStage(ctx context.Context, applicationID int64, stage model.StageName) (model.PanelAnalysis, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	Logger   *zap.Logger
	Pipeline PipelineService
	Profiles ProfileService
	Panels   PanelService
	Checks   map[string]HealthCheck
}

// respondError logs unexpected failures before mapping err to a status.
func (h *Handler) respondError(c *gin.Context, op string, err error) {
	if status := response.StatusOf(err); status >= 500 {
		h.Logger.Error(op, zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Error(c, err)
}

// pathID parses a positive int64 path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
