package model

import (
	"fmt"
	"strings"
)

// UpdateKind — the requested transition on an active-state slot.
type UpdateKind uint8

const (
	UpdateUnknown UpdateKind = iota
	UpdateApplied
	UpdateSwapped
	UpdateLocked
	UpdateUnlocked
	UpdateRemoved
	UpdateLayersApplied
	UpdateLayersRemoved
	UpdateLayersChanged
	UpdateVisibilityChange
	UpdateDyesChange
	UpdateCollarMoodleChange
	UpdateCollarWritingChange
	UpdateCollarRemoved
)

var updateKindNames = [...]string{
	UpdateUnknown:             "Unknown",
	UpdateApplied:             "Applied",
	UpdateSwapped:             "Swapped",
	UpdateLocked:              "Locked",
	UpdateUnlocked:            "Unlocked",
	UpdateRemoved:             "Removed",
	UpdateLayersApplied:       "LayersApplied",
	UpdateLayersRemoved:       "LayersRemoved",
	UpdateLayersChanged:       "LayersChanged",
	UpdateVisibilityChange:    "VisibilityChange",
	UpdateDyesChange:          "DyesChange",
	UpdateCollarMoodleChange:  "CollarMoodleChange",
	UpdateCollarWritingChange: "CollarWritingChange",
	UpdateCollarRemoved:       "CollarRemoved",
}

func (k UpdateKind) String() string {
	if int(k) < len(updateKindNames) {
		return updateKindNames[k]
	}
	return fmt.Sprintf("UpdateKind(%d)", uint8(k))
}

func (k UpdateKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText maps unknown names to UpdateUnknown so the caller can
// answer with a protocol error instead of a decode failure.
func (k *UpdateKind) UnmarshalText(b []byte) error {
	*k = UpdateUnknown
	for i, name := range updateKindNames {
		if strings.EqualFold(name, string(b)) {
			*k = UpdateKind(i)
			return nil
		}
	}
	return nil
}

// Direction tags a broadcast from the recipient's point of view: Own when
// the recipient's own slot changed, Other when a pair's slot changed.
type Direction uint8

const (
	DirectionOwn Direction = iota
	DirectionOther
)

func (d Direction) String() string {
	if d == DirectionOwn {
		return "Own"
	}
	return "Other"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "own":
		*d = DirectionOwn
	case "other":
		*d = DirectionOther
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}
