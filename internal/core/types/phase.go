package types

// Phase is the lifecycle position of a data source.
type Phase string

const (
	PhaseUnacquired Phase = "Unacquired"
	PhaseAcquiring  Phase = "Acquiring"
	PhaseAcquired   Phase = "Acquired"
	PhaseParsing    Phase = "Parsing"
	PhaseReady      Phase = "Ready"
	PhaseFailed     Phase = "Failed"
)

// IsActive returns true while an acquisition or parse is in flight.
func (p Phase) IsActive() bool {
	return p == PhaseAcquiring || p == PhaseParsing
}

// HasFiles returns true if the phase implies acquired files on disk.
func (p Phase) HasFiles() bool {
	return p == PhaseAcquired || p == PhaseParsing
}

// IsReady returns true if the source data is populated.
func (p Phase) IsReady() bool {
	return p == PhaseReady
}
