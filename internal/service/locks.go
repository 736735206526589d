package service

import (
	"time"
	"unicode"
	"unicode/utf8"

	"KinkLink/internal/model"
)

// FiveMinutesLock — fixed duration of the FiveMinutes padlock.
const FiveMinutesLock = 5 * time.Minute

const maxPasswordLen = 20

// CanUnlock decides whether caller may open lock with password. It is the
// single unlock gate of both the self and the pair path; the self path
// passes false for both overrides.
//
//   - Metal, FiveMinutes, Timer: no further check
//   - Combination, Password, TimerPassword: password must match
//   - Owner, OwnerTimer: caller is the assigner or ownerOverride
//   - Devotional, DevotionalTimer: caller is the assigner or devotionalOverride
func CanUnlock(lock model.LockState, password, caller string, ownerOverride, devotionalOverride bool) error {
	switch {
	case !lock.Locked():
		return reject(CodeNotCurrentlyLocked, "slot is not locked")
	case lock.Padlock.NeedsPassword():
		if password != lock.Password {
			return reject(CodeInvalidPassword, "wrong password for %s", lock.Padlock)
		}
	case lock.Padlock.IsOwner():
		if caller != lock.Assigner && !ownerOverride {
			return reject(CodeNotItemAssigner, "%s lock can only be opened by %s", lock.Padlock, lock.Assigner)
		}
	case lock.Padlock.IsDevotional():
		if caller != lock.Assigner && !devotionalOverride {
			return reject(CodeNotItemAssigner, "%s lock can only be opened by %s", lock.Padlock, lock.Assigner)
		}
	}
	return nil
}

// lockRequest — the lock a caller wants to put on a slot.
type lockRequest struct {
	Padlock  model.Padlock
	Password string
	Timer    int64 // unix millis
}

// lockGrant — what the pair path allows; nil on the self path.
type lockGrant struct {
	permanent  bool
	owner      bool
	devotional bool
	maxTime    time.Duration
}

func grantFrom(pp *model.PairPermissions, maxTime time.Duration) *lockGrant {
	return &lockGrant{
		permanent:  pp.PermanentLocks,
		owner:      pp.OwnerLocks,
		devotional: pp.DevotionalLocks,
		maxTime:    maxTime,
	}
}

// buildLock validates req and returns the lock sub-record to store. All four
// fields are set together.
func buildLock(req lockRequest, caller string, now time.Time, g *lockGrant) (model.LockState, error) {
	p := req.Padlock
	if p == model.PadlockNone || !p.Valid() {
		return model.LockState{}, reject(CodeInvalidDataState, "padlock %s cannot be applied", p)
	}

	switch p {
	case model.PadlockCombination:
		if !isCombination(req.Password) {
			return model.LockState{}, reject(CodeInvalidPassword, "combination must be 4 digits")
		}
	case model.PadlockPassword, model.PadlockTimerPassword:
		if n := utf8.RuneCountInString(req.Password); n < 1 || n > maxPasswordLen {
			return model.LockState{}, reject(CodeInvalidPassword, "password must be 1..%d characters", maxPasswordLen)
		}
	}

	lock := model.LockState{Padlock: p, Assigner: caller}
	if p.NeedsPassword() {
		lock.Password = req.Password
	}

	var duration time.Duration
	switch {
	case p == model.PadlockFiveMinutes:
		duration = FiveMinutesLock
		lock.Timer = now.Add(duration).UnixMilli()
	case p.IsTimer():
		if req.Timer <= now.UnixMilli() {
			return model.LockState{}, reject(CodeInvalidTime, "timer must lie in the future")
		}
		lock.Timer = req.Timer
		duration = time.UnixMilli(req.Timer).Sub(now)
	}

	if g == nil {
		return lock, nil
	}
	if p.IsPermanent() && !g.permanent {
		return model.LockState{}, reject(CodeLackingPermissions, "permanent locks are not allowed")
	}
	if p.IsOwner() && !g.owner {
		return model.LockState{}, reject(CodeLackingPermissions, "owner locks are not allowed")
	}
	if p.IsDevotional() && !g.devotional {
		return model.LockState{}, reject(CodeLackingPermissions, "devotional locks are not allowed")
	}
	if p.IsTimer() && duration > g.maxTime {
		return model.LockState{}, reject(CodeInvalidTime, "lock time %s exceeds the allowed %s", duration.Round(time.Second), g.maxTime)
	}
	return lock, nil
}

func isCombination(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > '9' {
			return false
		}
	}
	return true
}
