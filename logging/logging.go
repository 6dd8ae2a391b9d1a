// Package logging wires up structured logging for training and
// verification runs, replacing the teacher's raw fmt.Fprintf(os.Stderr,
// ...) reporting style with zap. A development encoder (human-readable,
// colorized level, terse like the teacher's stderr reports) is used by
// default; JSON output is available for scripted runs.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger returned by New.
type Options struct {
	// JSON switches to the production JSON encoder.
	JSON bool
	// FilePath, if set, also writes logs to a rotated file via
	// lumberjack instead of only stderr.
	FilePath string
}

// New builds a *zap.Logger per opts. Callers should defer logger.Sync().
func New(opts Options) (*zap.Logger, error) {
	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder

	if opts.JSON {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}

	if opts.FilePath != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), zapcore.InfoLevel)

	return zap.New(core), nil
}
