package model

import "fmt"

// Status is the lock state of a watched path as of its last completed scan.
type Status int

const (
	StatusUnknown Status = iota
	StatusLocked
	StatusUnlocked
)

func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "Locked"
	case StatusUnlocked:
		return "Unlocked"
	default:
		return "Unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Locked":
		*s = StatusLocked
	case "Unlocked":
		*s = StatusUnlocked
	case "Unknown", "":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// Ownership reports whether the path's access-control list carries any allow rule.
type Ownership int

const (
	OwnershipUnknown Ownership = iota
	OwnershipAllowed
	OwnershipDenied
)

func (o Ownership) String() string {
	switch o {
	case OwnershipAllowed:
		return "Allowed"
	case OwnershipDenied:
		return "Denied"
	default:
		return "Unknown"
	}
}

func (o Ownership) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Ownership) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Allowed":
		*o = OwnershipAllowed
	case "Denied":
		*o = OwnershipDenied
	case "Unknown", "":
		*o = OwnershipUnknown
	default:
		return fmt.Errorf("unknown ownership %q", b)
	}
	return nil
}
