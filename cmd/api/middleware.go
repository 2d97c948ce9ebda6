package main

import (
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/pkg/response"
)

// accessLog logs one line per request.
func (app *application) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func (app *application) corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     app.Config.GetCORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", "Content-Length", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// rateLimiter allows Burst requests per window, where the window is sized so
// the long-run rate is RPS per client IP.
func (app *application) rateLimiter() gin.HandlerFunc {
	cfg := app.Config.Limiter
	window := time.Duration(float64(cfg.Burst) / cfg.RPS * float64(time.Second))
	if window < time.Second {
		window = time.Second
	}

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  window,
		Limit: uint(cfg.Burst),
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc: func(c *gin.Context) string { return "ip: " + c.ClientIP() },
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			response.TooManyRequests(c, "")
			c.Abort()
		},
	})
}
