package logger

import "go.uber.org/zap/zapcore"

// -v counts. Each level adds output categories (see output.go); the zap level
// stops at Debug from -vv on.
const (
	VerbosityUser  = 0 // results, failed jobs, final status
	VerbosityInfo  = 1 // -v: poll progress, launch echo
	VerbosityDebug = 2 // -vv: scheduler commands, timing, config
	VerbosityTrace = 3 // -vvv: launcher output
	VerbosityAll   = 4 // -vvvv: raw scheduler responses
)

// VerbosityToLevel maps a -v count to the zap level: Warn with no flags, Info
// at -v, Debug beyond.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

var levelNames = [...]string{"user", "info (-v)", "debug (-vv)", "trace (-vvv)", "all (-vvvv)"}

// LevelName describes a -v count for the startup log line.
func LevelName(verbosity int) string {
	switch {
	case verbosity < 0:
		return levelNames[0]
	case verbosity >= len(levelNames):
		return levelNames[len(levelNames)-1]
	default:
		return levelNames[verbosity]
	}
}
