// Package sym defines canonical symbols for supervisor phases and system markers.
// These symbols are stable across CLI output, log fields, and documentation.
package sym

// Phase symbols. Each supervisor phase prefixes its operator-facing output
// and carries its glyph in the log "symbol" field.
const (
	Pulse      = "꩜" // polling: queue monitoring
	PulseOpen  = "✿" // launch and queue confirmation
	PulseClose = "❀" // accounting check after the queue drains
	AM         = "≡" // am — configuration and system settings
	AX         = "⋈" // ax — scheduler queries (queue and history views)
)

// Outcome markers used in summaries.
const (
	OK   = "✓"
	Fail = "✗"
	Warn = "⚠"
)

// entry binds a phase name to its glyph and description.
type entry struct {
	phase       string
	glyph       string
	description string
}

// registry is the canonical mapping between phase names and glyphs.
// Order matches the run lifecycle.
var registry = []entry{
	{"launch", PulseOpen, "Launch the pipeline and confirm it reached the queue"},
	{"await", PulseOpen, "Wait for the first job to appear in the live queue"},
	{"monitor", Pulse, "Poll the live queue until no run jobs remain"},
	{"check", PulseClose, "Classify the run from accounting records"},
	{"am", AM, "Configuration"},
	{"query", AX, "Scheduler queue and accounting views"},
}

var phaseToGlyph map[string]string

func init() {
	phaseToGlyph = make(map[string]string, len(registry))
	for _, e := range registry {
		phaseToGlyph[e.phase] = e.glyph
	}
}

// ForPhase returns the glyph for a phase name, or the Pulse glyph for unknown phases.
func ForPhase(phase string) string {
	if g, ok := phaseToGlyph[phase]; ok {
		return g
	}
	return Pulse
}

// PhaseDescriptions provides human-readable explanations for each phase.
func PhaseDescriptions() map[string]string {
	out := make(map[string]string, len(registry))
	for _, e := range registry {
		out[e.phase] = e.description
	}
	return out
}
