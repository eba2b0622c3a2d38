package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide sugared logger. It is a no-op until Init is called,
// which keeps library tests quiet without any setup.
var Log = zap.NewNop().Sugar()

// Init configures the global logger. With an empty path, logs go to stderr in
// console encoding; otherwise to a size-rotated JSON file.
func Init(level, path string) error {
	lvl := zap.NewAtomicLevelAt(parseLevel(level))

	var logger *zap.Logger
	if path == "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = lvl
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		logger = l
	} else {
		writeSyncer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		})
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writeSyncer, lvl)
		logger = zap.New(core, zap.AddCaller())
	}

	Log = logger.Sugar()
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
