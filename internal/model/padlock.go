package model

import (
	"fmt"
	"strings"
)

// Padlock — lock class on a gag, restriction or restraint slot.
type Padlock uint8

const (
	PadlockNone Padlock = iota
	PadlockMetal
	PadlockFiveMinutes
	PadlockCombination
	PadlockPassword
	PadlockTimer
	PadlockTimerPassword
	PadlockOwner
	PadlockOwnerTimer
	PadlockDevotional
	PadlockDevotionalTimer
)

var padlockNames = [...]string{
	PadlockNone:            "None",
	PadlockMetal:           "Metal",
	PadlockFiveMinutes:     "FiveMinutes",
	PadlockCombination:     "Combination",
	PadlockPassword:        "Password",
	PadlockTimer:           "Timer",
	PadlockTimerPassword:   "TimerPassword",
	PadlockOwner:           "Owner",
	PadlockOwnerTimer:      "OwnerTimer",
	PadlockDevotional:      "Devotional",
	PadlockDevotionalTimer: "DevotionalTimer",
}

func (p Padlock) String() string {
	if int(p) < len(padlockNames) {
		return padlockNames[p]
	}
	return fmt.Sprintf("Padlock(%d)", uint8(p))
}

// Valid reports whether p is a known padlock.
func (p Padlock) Valid() bool { return int(p) < len(padlockNames) }

// ParsePadlock resolves a padlock by name, case-insensitively.
func ParsePadlock(s string) (Padlock, error) {
	for i, name := range padlockNames {
		if strings.EqualFold(name, s) {
			return Padlock(i), nil
		}
	}
	return PadlockNone, fmt.Errorf("unknown padlock %q", s)
}

func (p Padlock) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid padlock %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Padlock) UnmarshalText(b []byte) error {
	v, err := ParsePadlock(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// IsTimer: the lock carries an expiry timer.
func (p Padlock) IsTimer() bool {
	switch p {
	case PadlockFiveMinutes, PadlockTimer, PadlockTimerPassword, PadlockOwnerTimer, PadlockDevotionalTimer:
		return true
	}
	return false
}

// IsPermanent: a non-None lock with no timer.
func (p Padlock) IsPermanent() bool {
	return p != PadlockNone && p.Valid() && !p.IsTimer()
}

// IsOwner: owner-class lock.
func (p Padlock) IsOwner() bool { return p == PadlockOwner || p == PadlockOwnerTimer }

// IsDevotional: devotional-class lock.
func (p Padlock) IsDevotional() bool { return p == PadlockDevotional || p == PadlockDevotionalTimer }

// NeedsPassword: unlocking requires the stored password.
func (p Padlock) NeedsPassword() bool {
	return p == PadlockCombination || p == PadlockPassword || p == PadlockTimerPassword
}

// LockState — the lock sub-record shared by gag, restriction and restraint
// slots. Either all fields are set (Padlock != None) or all are zero.
type LockState struct {
	Padlock  Padlock `gorm:"not null;default:0" json:"padlock"`
	Password string  `gorm:"type:text;not null;default:''" json:"password"`
	Timer    int64   `gorm:"not null;default:0" json:"timer"` // unix millis, 0 for permanent locks
	Assigner string  `gorm:"type:varchar(64);not null;default:''" json:"assigner"`
}

// Locked reports whether a padlock is present.
func (l LockState) Locked() bool { return l.Padlock != PadlockNone }
