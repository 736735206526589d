package service

import (
	"context"
	"fmt"

	"KinkLink/internal/model"
)

// ChangeOwnGlobalPermission sets one field of the caller's global
// permissions.
func (s *KinksterService) ChangeOwnGlobalPermission(ctx context.Context, caller, field string, value any) (*model.GlobalPermissions, error) {
	spec, ok := globalFields.lookup(field)
	if !ok {
		return nil, reject(CodeUnknownField, "unknown global permission %q", field)
	}
	return s.setGlobal(ctx, caller, caller, spec, value)
}

// ChangeOtherGlobalPermission sets a global permission of target, which
// needs the matching edit-access grant from target.
func (s *KinksterService) ChangeOtherGlobalPermission(ctx context.Context, caller, target, field string, value any) (*model.GlobalPermissions, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "use ChangeOwnGlobalPermission")
	}
	spec, ok := globalFields.lookup(field)
	if !ok {
		return nil, reject(CodeUnknownField, "unknown global permission %q", field)
	}
	if err := s.checkAccess(ctx, caller, target, spec.name, spec.access); err != nil {
		return nil, err
	}
	return s.setGlobal(ctx, caller, target, spec, value)
}

// checkAccess requires target to have granted caller the access bit.
func (s *KinksterService) checkAccess(ctx context.Context, caller, target, name string, access func(*permAccess) *bool) error {
	a, err := s.perms.GetAccess(ctx, target, caller)
	if notFound(err) {
		return reject(CodeNotPaired, "%s is not paired with %s", target, caller)
	}
	if err != nil {
		return fmt.Errorf("service: load edit access: %w", err)
	}
	if access == nil || !*access(a) {
		return reject(CodeLackingPermissions, "%s may not edit %s of %s", caller, name, target)
	}
	return nil
}

func (s *KinksterService) setGlobal(ctx context.Context, caller, target string, spec globalField, value any) (*model.GlobalPermissions, error) {
	g, err := s.perms.GetGlobal(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("service: load global permissions: %w", err)
	}
	ref := spec.ref(g)
	if err := assign(ref, value); err != nil {
		return nil, err
	}
	if err := s.perms.SaveGlobal(ctx, g); err != nil {
		s.log.Errorw("save global permissions", "uid", target, "field", spec.name, "error", err)
		return nil, fmt.Errorf("service: save global permissions: %w", err)
	}
	changed := PermChanged{User: target, Field: spec.name, Value: current(ref), Enactor: caller}
	s.broadcast(ctx, target, EventGlobalPermChanged, func(model.Direction) any { return changed }, caller)
	return g, nil
}

// ChangeOwnPairPermission sets one field of what caller permits target.
func (s *KinksterService) ChangeOwnPairPermission(ctx context.Context, caller, target, field string, value any) (*model.PairPermissions, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "no pair permissions towards yourself")
	}
	spec, ok := pairFields.lookup(field)
	if !ok {
		return nil, reject(CodeUnknownField, "unknown pair permission %q", field)
	}
	return s.setPair(ctx, caller, caller, target, spec, value)
}

// ChangeOtherPairPermission sets one field of what target permits caller,
// which needs the matching edit-access grant from target.
func (s *KinksterService) ChangeOtherPairPermission(ctx context.Context, caller, target, field string, value any) (*model.PairPermissions, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "use ChangeOwnPairPermission")
	}
	spec, ok := pairFields.lookup(field)
	if !ok {
		return nil, reject(CodeUnknownField, "unknown pair permission %q", field)
	}
	if err := s.checkAccess(ctx, caller, target, spec.name, spec.access); err != nil {
		return nil, err
	}
	return s.setPair(ctx, caller, target, caller, spec, value)
}

// setPair changes PairPermissions(owner -> other).
func (s *KinksterService) setPair(ctx context.Context, caller, owner, other string, spec pairField, value any) (*model.PairPermissions, error) {
	pp, err := s.loadPairPerms(ctx, owner, other)
	if err != nil {
		return nil, err
	}
	wasPaused := pp.IsPaused
	ref := spec.ref(pp)
	if err := assign(ref, value); err != nil {
		return nil, err
	}
	if err := s.perms.SavePairPerms(ctx, pp); err != nil {
		return nil, fmt.Errorf("service: save pair permissions: %w", err)
	}

	changed := PermChanged{User: owner, Other: other, Field: spec.name, Value: current(ref), Enactor: caller}
	s.notifyBoth(owner, other, EventPairPermChanged, changed)
	if pp.IsPaused != wasPaused {
		s.pauseChanged(ctx, owner, other, pp.IsPaused)
	}
	return pp, nil
}

// pauseChanged handles a flip of IsPaused on (owner -> other). Presence
// events are only sent while the reverse direction is unpaused, otherwise
// the pair was hidden already.
func (s *KinksterService) pauseChanged(ctx context.Context, owner, other string, paused bool) {
	s.cache.Invalidate(owner, other)
	s.log.Infow("pair pause changed", "uid", owner, "other", other, "paused", paused)

	reverse, err := s.perms.GetPairPerms(ctx, other, owner)
	if err != nil {
		s.log.Errorw("pause: load reverse permissions", "uid", other, "other", owner, "error", err)
		return
	}
	if reverse.IsPaused {
		return
	}
	if paused {
		s.notifier.Notify(owner, EventPairOffline, PairPresence{UID: other})
		s.notifier.Notify(other, EventPairOffline, PairPresence{UID: owner})
		return
	}
	online, err := s.presence.GetMany(ctx, []string{owner, other})
	if err != nil {
		s.log.Errorw("pause: presence lookup", "error", err)
		return
	}
	ownerID, ownerOnline := online[owner]
	otherID, otherOnline := online[other]
	if ownerOnline && otherOnline {
		s.notifier.Notify(owner, EventPairOnline, PairPresence{UID: other, Identity: otherID})
		s.notifier.Notify(other, EventPairOnline, PairPresence{UID: owner, Identity: ownerID})
	}
}

// ChangeEditAccess sets which field target may edit remotely on the
// caller's behalf.
func (s *KinksterService) ChangeEditAccess(ctx context.Context, caller, target, field string, value any) (*model.PairPermissionAccess, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "no edit access towards yourself")
	}
	name, ref, ok := accessField(field)
	if !ok {
		return nil, reject(CodeUnknownField, "unknown edit access %q", field)
	}
	a, err := s.perms.GetAccess(ctx, caller, target)
	if notFound(err) {
		return nil, reject(CodeNotPaired, "%s is not paired with %s", caller, target)
	}
	if err != nil {
		return nil, fmt.Errorf("service: load edit access: %w", err)
	}
	bit := ref(a)
	if err := assign(bit, value); err != nil {
		return nil, err
	}
	if err := s.perms.SaveAccess(ctx, a); err != nil {
		return nil, fmt.Errorf("service: save edit access: %w", err)
	}
	s.notifyBoth(caller, target, EventEditAccessChanged,
		PermChanged{User: caller, Other: target, Field: name, Value: *bit, Enactor: caller})
	return a, nil
}

// BulkChangeGlobal replaces the caller's whole global permission record.
func (s *KinksterService) BulkChangeGlobal(ctx context.Context, caller string, globals model.GlobalPermissions) (*model.GlobalPermissions, error) {
	globals.UID = caller
	if err := s.perms.SaveGlobal(ctx, &globals); err != nil {
		return nil, fmt.Errorf("service: save global permissions: %w", err)
	}
	changed := BulkPermsChanged{User: caller, Globals: &globals, Enactor: caller}
	s.broadcast(ctx, caller, EventBulkPermsChanged, func(model.Direction) any { return changed })
	return &globals, nil
}

// BulkChangePair replaces what caller permits target and what target may
// edit remotely, atomically.
func (s *KinksterService) BulkChangePair(ctx context.Context, caller, target string, perms model.PairPermissions, access model.PairPermissionAccess) error {
	if target == caller {
		return reject(CodeInvalidRecipient, "no pair permissions towards yourself")
	}
	prev, err := s.loadPairPerms(ctx, caller, target)
	if err != nil {
		return err
	}
	perms.UserUID, perms.OtherUID, perms.User, perms.Other = caller, target, nil, nil
	access.UserUID, access.OtherUID, access.User, access.Other = caller, target, nil, nil
	if err := s.perms.SavePairBundle(ctx, &perms, &access); err != nil {
		return fmt.Errorf("service: save pair bundle: %w", err)
	}
	s.notifyBoth(caller, target, EventBulkPermsChanged,
		BulkPermsChanged{User: caller, Other: target, Perms: &perms, Access: &access, Enactor: caller})
	if perms.IsPaused != prev.IsPaused {
		s.pauseChanged(ctx, caller, target, perms.IsPaused)
	}
	return nil
}
