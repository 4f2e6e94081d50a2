package events

// Phase is a sub-step of processing a context.
type Phase int

const (
	Construction Phase = iota
	Filling
	Finalizing
)

// Phases lists every phase in processing order.
var Phases = [...]Phase{Construction, Filling, Finalizing}

func (p Phase) String() string {
	switch p {
	case Construction:
		return "Construction"
	case Filling:
		return "Filling"
	case Finalizing:
		return "Finalizing"
	default:
		return "Unknown"
	}
}

// PhasedContext is a context dispatched once per phase.
type PhasedContext interface {
	Phase() Phase
	SetPhase(p Phase)
}

// PhaseTag is embedded in contexts to implement PhasedContext.
type PhaseTag struct {
	phase Phase
}

// Tag returns a PhaseTag set to p.
func Tag(p Phase) PhaseTag {
	return PhaseTag{phase: p}
}

// Phase returns the current phase.
func (t *PhaseTag) Phase() Phase {
	return t.phase
}

// SetPhase changes the current phase.
func (t *PhaseTag) SetPhase(p Phase) {
	t.phase = p
}
