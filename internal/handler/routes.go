package handler

import "github.com/gin-gonic/gin"

// Register mounts the API on r; callers add middleware first.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/applications", h.CreateApplication)
		v1.GET("/applications/:id", h.GetApplication)
		v1.GET("/applications/:id/evaluations", h.ListEvaluations)
		v1.POST("/applications/:id/evaluations", h.SubmitEvaluation)
		v1.POST("/applications/:id/stages/:stage", h.AdvanceStage)
		v1.GET("/applications/:id/stages/:stage/panel-analysis", h.AnalyzePanel)

		v1.POST("/panels/recommend", h.RecommendPanel)

		v1.GET("/interviewers/:id/profile", h.GetCharacteristics)
		v1.GET("/interviewers/:id/history", h.ListProfileHistory)
		v1.PATCH("/interviewers/:id/active", h.SetInterviewerActive)
	}
}
