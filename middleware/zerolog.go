package middleware

import "github.com/rs/zerolog"

// NewZerolog adapts a zerolog logger to the Logger interface.
func NewZerolog(l zerolog.Logger) Logger {
	return &zerologAdapter{l: l}
}

type zerologAdapter struct {
	l zerolog.Logger
}

func (a *zerologAdapter) Info(msg string, fields ...Field) {
	a.emit(a.l.Info(), msg, fields)
}

func (a *zerologAdapter) Error(msg string, fields ...Field) {
	a.emit(a.l.Error(), msg, fields)
}

func (a *zerologAdapter) Debug(msg string, fields ...Field) {
	a.emit(a.l.Debug(), msg, fields)
}

func (a *zerologAdapter) Warn(msg string, fields ...Field) {
	a.emit(a.l.Warn(), msg, fields)
}

func (a *zerologAdapter) emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}
