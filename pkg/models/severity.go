package models

// Severity classifies an active fire and drives how many units and how much
// suppressant it takes to put out.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
)

// ParseSeverity maps a wire token to a Severity. Unknown tokens map to NONE.
func ParseSeverity(s string) Severity {
	switch s {
	case string(SeverityLow):
		return SeverityLow
	case string(SeverityModerate):
		return SeverityModerate
	case string(SeverityHigh):
		return SeverityHigh
	default:
		return SeverityNone
	}
}

// Weight returns the priority weight used to order fire events.
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 100
	case SeverityModerate:
		return 50
	case SeverityLow:
		return 10
	default:
		return 0
	}
}

// UnitsRequired returns how many units a fire of this severity needs.
func (s Severity) UnitsRequired() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityModerate:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// LitresRequired returns the suppressant volume a fire of this severity needs.
func (s Severity) LitresRequired() float64 {
	switch s {
	case SeverityHigh:
		return 30
	case SeverityModerate:
		return 20
	case SeverityLow:
		return 10
	default:
		return 0
	}
}
