package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger for env: colored development output for "dev" and
// "qa", JSON on stdout for everything else.
func New(env string) (*zap.Logger, error) {
	var config zap.Config

	if env == "dev" || env == "qa" {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else { // pre. prod, or default
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	}

	return config.Build(zap.AddStacktrace(zap.DPanicLevel))
}
