package types

// Architecture is the closed set of values accepted by the
// Architecture control field.
type Architecture int

// The architectures understood by the emitter.  ArchInvalid is a
// sentinel for unparseable input and is rejected at emission time.
const (
	ArchAll Architecture = iota
	ArchAny
	ArchSource
	ArchInvalid
)

func (a Architecture) String() string {
	switch a {
	case ArchAll:
		return "all"
	case ArchAny:
		return "any"
	case ArchSource:
		return "source"
	}
	return "<invalid>"
}

// ArchFromString maps a control-file token back to an Architecture.
func ArchFromString(s string) Architecture {
	switch s {
	case "", "all":
		return ArchAll
	case "any":
		return ArchAny
	case "source":
		return ArchSource
	}
	return ArchInvalid
}

// Priority mirrors the Debian Priority field.
type Priority int

// PriorityExtra is deprecated upstream, use PriorityOptional.
const (
	PriorityOptional Priority = iota
	PriorityRequired
	PriorityImportant
	PriorityStandard
	PriorityExtra
	PriorityInvalid
)

func (p Priority) String() string {
	switch p {
	case PriorityRequired:
		return "required"
	case PriorityImportant:
		return "important"
	case PriorityStandard:
		return "standard"
	case PriorityOptional:
		return "optional"
	case PriorityExtra:
		return "extra"
	}
	return "<invalid>"
}

// PriorityFromString maps a control-file token back to a Priority.
// The empty string maps to the default, optional.
func PriorityFromString(s string) Priority {
	switch s {
	case "", "optional":
		return PriorityOptional
	case "required":
		return PriorityRequired
	case "important":
		return PriorityImportant
	case "standard":
		return PriorityStandard
	case "extra":
		return PriorityExtra
	}
	return PriorityInvalid
}

// Urgency mirrors the Debian Urgency field.
type Urgency int

// UrgencyUnset keeps the field out of the control file entirely.
const (
	UrgencyUnset Urgency = iota
	UrgencyLow
	UrgencyMedium
	UrgencyHigh
	UrgencyEmergency
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyEmergency:
		return "emergency"
	case UrgencyCritical:
		return "critical"
	}
	return ""
}

// UrgencyFromString maps a control-file token back to an Urgency.
func UrgencyFromString(s string) Urgency {
	switch s {
	case "low":
		return UrgencyLow
	case "medium":
		return UrgencyMedium
	case "high":
		return UrgencyHigh
	case "emergency":
		return UrgencyEmergency
	case "critical":
		return UrgencyCritical
	}
	return UrgencyUnset
}
