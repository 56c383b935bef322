package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapReporter emits one JSON record per reported event.
type ZapReporter struct {
	log *zap.Logger
}

var _ Reporter = (*ZapReporter)(nil)

// NewZapReporter builds a JSON reporter on w. Progress records are only
// emitted at debug level.
func NewZapReporter(w io.Writer, debug bool) *ZapReporter {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), level)
	return &ZapReporter{log: zap.New(core)}
}

// Sync flushes buffered records.
func (z *ZapReporter) Sync() error {
	return z.log.Sync()
}

func (z *ZapReporter) Info(format string, args ...interface{}) {
	z.log.Sugar().Infof(format, args...)
}

func (z *ZapReporter) Warn(format string, args ...interface{}) {
	z.log.Sugar().Warnf(format, args...)
}

func (z *ZapReporter) Progress(step Step) {
	z.log.Debug(stepMessage(step, "started"), stepFields(step)...)
}

func (z *ZapReporter) Success(step Step) {
	z.log.Info(stepMessage(step, "succeeded"), stepFields(step)...)
}

func (z *ZapReporter) Failure(step Step, err error) {
	z.log.Error(stepMessage(step, "failed"), append(stepFields(step), zap.Error(err))...)
}

func stepMessage(step Step, outcome string) string {
	if step.IsLookup() {
		return "lookup " + outcome
	}
	return "item " + outcome
}

func stepFields(step Step) []zap.Field {
	fields := []zap.Field{
		zap.String("item", step.Item),
		zap.String("type", step.Type),
	}
	if step.Source != "" {
		fields = append(fields, zap.String("source", step.Source))
	}
	if step.Destination != "" {
		fields = append(fields, zap.String("destination", step.Destination))
	}
	if step.IsLookup() {
		fields = append(fields,
			zap.Int("line", step.Line),
			zap.String("account", step.Account),
			zap.String("vault", step.Vault),
			zap.String("secret_item", step.Secret),
			zap.String("field", step.Field),
		)
	}
	return fields
}
