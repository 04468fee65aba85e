package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// flooredCore drops entries below floor whatever the level of the wrapped core.
type flooredCore struct {
	zapcore.Core

	floor zapcore.Level
}

func (c *flooredCore) Enabled(l zapcore.Level) bool {
	return l >= c.floor && c.Core.Enabled(l)
}

//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *flooredCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *flooredCore) With(fields []zapcore.Field) zapcore.Core {
	return &flooredCore{Core: c.Core.With(fields), floor: c.floor}
}

// WithFloor keeps entries at or above floor only. SetLevel can still raise the
// threshold but cannot lower it below floor. The CLI uses it so that only
// warnings reach the terminal unless --verbose is given.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithFloor(floor zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &flooredCore{Core: core, floor: floor}
	})
}
