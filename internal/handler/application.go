package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/pipeline"
	"github.com/abhishek622/hiringpipeline/pkg/model"
	"github.com/abhishek622/hiringpipeline/pkg/response"
)

func (h *Handler) CreateApplication(c *gin.Context) {
	var req model.CreateApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.Pipeline.CreateApplication(c.Request.Context(), req.JobPostID, req.UserID)
	if err != nil {
		h.respondError(c, "create application", err)
		return
	}
	response.Created(c, app)
}

func (h *Handler) GetApplication(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	app, err := h.Pipeline.GetApplication(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get application", err)
		return
	}
	response.OK(c, app)
}

func (h *Handler) ListEvaluations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	evs, err := h.Pipeline.ListEvaluations(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list evaluations", err)
		return
	}
	if evs == nil {
		evs = []model.Evaluation{}
	}
	response.OKWithMeta(c, evs, &response.Meta{Total: len(evs)})
}

// SubmitEvaluation answers 201 for a new evaluation and 200 for a replayed submission id.
func (h *Handler) SubmitEvaluation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.SubmitEvaluationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.Pipeline.SubmitEvaluation(c.Request.Context(), pipeline.Submission{
		ApplicationID: id,
		InterviewType: model.InterviewType(strings.ToUpper(string(req.InterviewType))),
		EvaluatorID:   req.EvaluatorID,
		SubmissionID:  req.SubmissionID,
		Items:         req.Items,
		Summary:       req.Summary,
		Force:         req.Force,
	})
	if err != nil {
		h.respondError(c, "submit evaluation", err)
		return
	}

	h.Logger.Info("evaluation submitted",
		zap.Int64("application_id", id),
		zap.Int64("evaluation_id", res.EvaluationID),
		zap.String("stage", string(res.Stage)),
		zap.String("stage_status", string(res.StageStatus)),
		zap.Bool("replayed", res.Replayed),
	)
	if res.Replayed {
		response.OK(c, res)
		return
	}
	response.Created(c, res)
}

// AdvanceStage answers 200 for every outcome, stale included.
func (h *Handler) AdvanceStage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.AdvanceStageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tr, err := h.Pipeline.Advance(c.Request.Context(), pipeline.AdvanceRequest{
		ApplicationID: id,
		Stage:         model.StageName(strings.ToUpper(c.Param("stage"))),
		Status:        model.StageStatus(strings.ToUpper(string(req.Status))),
		Score:         req.Score,
		Reason:        req.Reason,
	})
	if err != nil {
		h.respondError(c, "advance stage", err)
		return
	}
	response.OK(c, tr)
}
