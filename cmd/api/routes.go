package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(app.accessLog())
	r.Use(app.corsMiddleware())
	if app.Config.Limiter.Enabled && app.Config.Limiter.RPS > 0 {
		r.Use(app.rateLimiter())
	}

	app.Handler.Register(r)
	return r
}
