package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a JSON production logger, or a console logger for development and test.
func NewLogger(env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch env {
	case "development", "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	return cfg.Build(zap.Fields(zap.String("service", "hiringpipeline")))
}
