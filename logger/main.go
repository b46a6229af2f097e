package logger

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFilePath = "logs/hlsgate.log"

var (
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	encoderConf = zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     simpleTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
)

func simpleTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}

func Init(logLevel string) {
	atomicLevel.SetLevel(getZapLevel(logLevel))
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConf),
		zapcore.Lock(os.Stdout),
		atomicLevel,
	)
	replaceGlobals(core)
}

func SetLevel(logLevel string) {
	atomicLevel.SetLevel(getZapLevel(logLevel))
}

// tees the console output into logFilePath.
// file output is written without colors
func SetLogFile(enabled bool) {
	if !enabled {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		zap.S().Warnf("failed to create log directory: %v", err)
		return
	}
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		zap.S().Warnf("failed to open log file: %v", err)
		return
	}
	fileEncoderConf := encoderConf
	fileEncoderConf.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConf),
			zapcore.Lock(os.Stdout),
			atomicLevel,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(fileEncoderConf),
			zapcore.AddSync(file),
			atomicLevel,
		),
	)
	replaceGlobals(core)
}

func replaceGlobals(core zapcore.Core) {
	logger := zap.New(
		core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	zap.ReplaceGlobals(logger)
}

func getZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func Sync() error {
	return zap.L().Sync()
}
