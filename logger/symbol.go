package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/qsup/sym"
)

// The phase glyph travels as the "symbol" field so messages stay plain text
// and JSON logs can be filtered by phase.

// WithQuerySymbol tags a logger with the ax glyph (⋈) used for scheduler queries.
func WithQuerySymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.AX)
}

// ForPhase wraps a logger with the phase name and its symbol.
func ForPhase(l *zap.SugaredLogger, phase string) *zap.SugaredLogger {
	return l.With(FieldPhase, phase, FieldSymbol, sym.ForPhase(phase))
}
