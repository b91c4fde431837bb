package logger

import (
	"context"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// New builds the process logger. In production it emits JSON with ISO8601
// timestamps; elsewhere it uses the colored development console. When sink
// is non-nil every entry is also written to it as JSON.
func New(env string, sink io.Writer) (*zap.Logger, error) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if sink == nil {
		return config.Build()
	}

	level := zap.NewAtomicLevelAt(config.Level.Level())
	console := zapcore.NewCore(zapcore.NewConsoleEncoder(config.EncoderConfig), zapcore.AddSync(os.Stdout), level)

	jsonCfg := config.EncoderConfig
	jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	remote := zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(sink), level)

	return zap.New(zapcore.NewTee(console, remote), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// FromContext returns the global logger annotated with the request ID when
// ctx is a gin context that carries one.
func FromContext(ctx context.Context) *zap.Logger {
	if rid := requestID(ctx); rid != "" {
		return zap.L().With(zap.String("request_id", rid))
	}
	return zap.L()
}

func requestID(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		return ginCtx.GetString(RequestIDKey)
	}
	return ""
}
