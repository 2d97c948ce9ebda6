package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/pkg/model"
	"github.com/abhishek622/hiringpipeline/pkg/response"
)

func (h *Handler) GetCharacteristics(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ch, err := h.Profiles.GetCharacteristics(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get characteristics", err)
		return
	}
	response.OK(c, ch)
}

func (h *Handler) ListProfileHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q model.ListHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hs, err := h.Profiles.History(c.Request.Context(), id, q.Limit)
	if err != nil {
		h.respondError(c, "list profile history", err)
		return
	}
	if hs == nil {
		hs = []model.InterviewerProfileHistory{}
	}
	response.OKWithMeta(c, hs, &response.Meta{PageSize: q.Limit, Total: len(hs)})
}

func (h *Handler) SetInterviewerActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.SetActiveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.Profiles.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.respondError(c, "set interviewer active", err)
		return
	}
	h.Logger.Info("interviewer activity set", zap.Int64("evaluator_id", id), zap.Bool("active", p.IsActive))
	response.OK(c, p)
}
