package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhishek622/hiringpipeline/pkg/model"
	"github.com/abhishek622/hiringpipeline/pkg/response"
)

func (h *Handler) RecommendPanel(c *gin.Context) {
	var req model.RecommendPanelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rec, err := h.Panels.RecommendPanel(c.Request.Context(), req.CandidateEvaluatorIDs, req.RequiredCount)
	if err != nil {
		h.respondError(c, "recommend panel", err)
		return
	}
	response.OK(c, rec)
}

func (h *Handler) AnalyzePanel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	stage := model.StageName(strings.ToUpper(c.Param("stage")))
	analysis, err := h.Panels.AnalyzeStage(c.Request.Context(), id, stage)
	if err != nil {
		h.respondError(c, "analyze panel", err)
		return
	}
	response.OK(c, analysis)
}
