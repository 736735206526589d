package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"KinkLink/internal/model"
)

// SlotUpdate — payload of a gag, restriction or restraint push. Item is the
// new item (or restraint set identifier) for Applied and Swapped; the lock
// fields are used by Locked and Unlocked; Layers by the restraint layer
// kinds.
type SlotUpdate struct {
	Kind     model.UpdateKind `json:"kind"`
	Item     string           `json:"item,omitempty"`
	Padlock  model.Padlock    `json:"padlock,omitempty"`
	Password string           `json:"password,omitempty"`
	Timer    int64            `json:"timer,omitempty"`
	Layers   int              `json:"layers,omitempty"`
}

// CollarUpdate — payload of a collar push. Only the fields of Kind are read.
type CollarUpdate struct {
	Kind              model.UpdateKind `json:"kind"`
	Visuals           bool             `json:"visuals,omitempty"`
	Dye1              uint8            `json:"dye1,omitempty"`
	Dye2              uint8            `json:"dye2,omitempty"`
	MoodleID          string           `json:"moodle_id,omitempty"`
	MoodleIcon        int              `json:"moodle_icon,omitempty"`
	MoodleTitle       string           `json:"moodle_title,omitempty"`
	MoodleDescription string           `json:"moodle_description,omitempty"`
	Writing           string           `json:"writing,omitempty"`
}

// slot is the part of a layer both gags and restrictions share.
type slot struct {
	Item    string
	Enabler string
	Lock    model.LockState
}

// slotPerms — the capability flags of one equipment family.
type slotPerms struct {
	apply, lock, unlock, remove bool
	maxTime                     time.Duration
}

func gagPerms(pp *model.PairPermissions) slotPerms {
	if pp == nil {
		return slotPerms{}
	}
	return slotPerms{pp.ApplyGags, pp.LockGags, pp.UnlockGags, pp.RemoveGags, pp.MaxGagTime}
}

func restrictionPerms(pp *model.PairPermissions) slotPerms {
	if pp == nil {
		return slotPerms{}
	}
	return slotPerms{pp.ApplyRestrictions, pp.LockRestrictions, pp.UnlockRestrictions, pp.RemoveRestrictions, pp.MaxRestrictionTime}
}

func restraintPerms(pp *model.PairPermissions) slotPerms {
	if pp == nil {
		return slotPerms{}
	}
	return slotPerms{pp.ApplyRestraintSets, pp.LockRestraintSets, pp.UnlockRestraintSets, pp.RemoveRestraintSets, pp.MaxRestraintTime}
}

// transition validates u against cur and returns the next slot. pp is nil
// on the self path, where no capability flag applies.
func transition(cur slot, u SlotUpdate, caller string, now time.Time, pp *model.PairPermissions, perms slotPerms) (slot, error) {
	pair := pp != nil
	next := cur
	switch u.Kind {
	case model.UpdateApplied, model.UpdateSwapped:
		if pair && !perms.apply {
			return cur, reject(CodeLackingPermissions, "%s not permitted", u.Kind)
		}
		if cur.Lock.Locked() {
			return cur, reject(CodeItemIsLocked, "slot is locked")
		}
		if u.Item == "" {
			return cur, reject(CodeNullData, "no item given")
		}
		if u.Kind == model.UpdateSwapped {
			if cur.Item == "" {
				return cur, reject(CodeNoActiveItem, "nothing to swap")
			}
			if cur.Item == u.Item {
				return cur, reject(CodeInvalidDataState, "item %q is already applied", u.Item)
			}
		}
		next.Item, next.Enabler = u.Item, caller

	case model.UpdateLocked:
		if pair && !perms.lock {
			return cur, reject(CodeLackingPermissions, "locking not permitted")
		}
		if cur.Item == "" {
			return cur, reject(CodeNoActiveItem, "nothing to lock")
		}
		if cur.Lock.Locked() {
			return cur, reject(CodeItemIsLocked, "slot is already locked")
		}
		var grant *lockGrant
		if pair {
			grant = grantFrom(pp, perms.maxTime)
		}
		lock, err := buildLock(lockRequest{Padlock: u.Padlock, Password: u.Password, Timer: u.Timer}, caller, now, grant)
		if err != nil {
			return cur, err
		}
		next.Lock = lock

	case model.UpdateUnlocked:
		if !cur.Lock.Locked() {
			return cur, reject(CodeNotCurrentlyLocked, "slot is not locked")
		}
		// the assigner of a devotional lock does not need the unlock flag
		assigner := cur.Lock.Padlock.IsDevotional() && cur.Lock.Assigner == caller
		if pair && !perms.unlock && !assigner {
			return cur, reject(CodeLackingPermissions, "unlocking not permitted")
		}
		var ownerOverride, devotionalOverride bool
		if pair {
			ownerOverride, devotionalOverride = pp.OwnerLocks, pp.DevotionalLocks
		}
		if err := CanUnlock(cur.Lock, u.Password, caller, ownerOverride, devotionalOverride); err != nil {
			return cur, err
		}
		next.Lock = model.LockState{}

	case model.UpdateRemoved:
		if pair && !perms.remove {
			return cur, reject(CodeLackingPermissions, "removing not permitted")
		}
		if cur.Item == "" {
			return cur, reject(CodeNoActiveItem, "nothing to remove")
		}
		if cur.Lock.Locked() {
			return cur, reject(CodeItemIsLocked, "slot is locked")
		}
		next = slot{}

	default:
		return cur, reject(CodeBadUpdateKind, "%s does not apply here", u.Kind)
	}
	return next, nil
}

// pairContext returns nil for the self path, or what target permits caller.
func (s *KinksterService) pairContext(ctx context.Context, caller, target string) (*model.PairPermissions, error) {
	if caller == target {
		return nil, nil
	}
	return s.loadPairPerms(ctx, target, caller)
}

// layerOps adapts a layered slot family to the shared core.
type layerOps[T any] struct {
	family string
	layers int
	event  string
	perms  func(*model.PairPermissions) slotPerms
	get    func(ctx context.Context, uid string, layer int) (*T, error)
	update func(ctx context.Context, row *T) error
	load   func(*T) slot
	store  func(*T, slot)
}

func (s *KinksterService) gagOps() layerOps[model.ActiveGag] {
	return layerOps[model.ActiveGag]{
		family: "gag",
		layers: model.GagLayers,
		event:  EventGagStateChanged,
		perms:  gagPerms,
		get:    s.states.GetGag,
		update: s.states.UpdateGag,
		load:   func(g *model.ActiveGag) slot { return slot{g.Item, g.Enabler, g.Lock} },
		store:  func(g *model.ActiveGag, v slot) { g.Item, g.Enabler, g.Lock = v.Item, v.Enabler, v.Lock },
	}
}

func (s *KinksterService) restrictionOps() layerOps[model.ActiveRestriction] {
	return layerOps[model.ActiveRestriction]{
		family: "restriction",
		layers: model.RestrictionLayers,
		event:  EventRestrictionStateChanged,
		perms:  restrictionPerms,
		get:    s.states.GetRestriction,
		update: s.states.UpdateRestriction,
		load:   func(r *model.ActiveRestriction) slot { return slot{r.Item, r.Enabler, r.Lock} },
		store:  func(r *model.ActiveRestriction, v slot) { r.Item, r.Enabler, r.Lock = v.Item, v.Enabler, v.Lock },
	}
}

func pushLayer[T any](ctx context.Context, s *KinksterService, ops layerOps[T], caller, target string, layer int, u SlotUpdate) (*T, error) {
	if layer < 0 || layer >= ops.layers {
		return nil, reject(CodeInvalidLayer, "%s layer %d out of range", ops.family, layer)
	}
	pp, err := s.pairContext(ctx, caller, target)
	if err != nil {
		return nil, err
	}

	var saved *T
	var prev, cur slot
	err = withCAS(func() error {
		row, err := ops.get(ctx, target, layer)
		if err != nil {
			return fmt.Errorf("service: load %s: %w", ops.family, err)
		}
		prev = ops.load(row)
		next, err := transition(prev, u, caller, s.now(), pp, ops.perms(pp))
		if err != nil {
			return err
		}
		ops.store(row, next)
		if err := ops.update(ctx, row); err != nil {
			return fmt.Errorf("service: save %s: %w", ops.family, err)
		}
		saved, cur = row, next
		return nil
	})
	if err != nil {
		s.logFailure(ops.event, caller, target, err)
		return nil, err
	}

	s.broadcast(ctx, target, ops.event, func(d model.Direction) any {
		return SlotChanged{
			User: target, Layer: layer, Kind: u.Kind, Direction: d, Enactor: caller,
			Item: cur.Item, Enabler: cur.Enabler, Lock: cur.Lock,
			PrevItem: prev.Item, PrevPadlock: prev.Lock.Padlock,
		}
	}, caller)
	return saved, nil
}

// logFailure records a failed mutation: rejections at debug, everything
// else as an error.
func (s *KinksterService) logFailure(op, caller, target string, err error) {
	if IsRejection(err) {
		s.log.Debugw("rejected", "op", op, "caller", caller, "target", target, "code", CodeOf(err))
		return
	}
	s.log.Errorw("failed", "op", op, "caller", caller, "target", target, "error", err)
}

// PushGagState changes a gag layer of the caller.
func (s *KinksterService) PushGagState(ctx context.Context, caller string, layer int, u SlotUpdate) (*model.ActiveGag, error) {
	return pushLayer(ctx, s, s.gagOps(), caller, caller, layer, u)
}

// PushOtherGagState changes a gag layer of a pair within what the pair
// permits the caller.
func (s *KinksterService) PushOtherGagState(ctx context.Context, caller, target string, layer int, u SlotUpdate) (*model.ActiveGag, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "use the self path for your own gags")
	}
	return pushLayer(ctx, s, s.gagOps(), caller, target, layer, u)
}

func (s *KinksterService) PushRestrictionState(ctx context.Context, caller string, layer int, u SlotUpdate) (*model.ActiveRestriction, error) {
	return pushLayer(ctx, s, s.restrictionOps(), caller, caller, layer, u)
}

func (s *KinksterService) PushOtherRestrictionState(ctx context.Context, caller, target string, layer int, u SlotUpdate) (*model.ActiveRestriction, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "use the self path for your own restrictions")
	}
	return pushLayer(ctx, s, s.restrictionOps(), caller, target, layer, u)
}

// restraintTransition applies u to the restraint set cur.
func restraintTransition(cur model.ActiveRestraint, u SlotUpdate, caller string, now time.Time, pp *model.PairPermissions) (model.ActiveRestraint, error) {
	next := cur
	switch u.Kind {
	case model.UpdateLayersApplied, model.UpdateLayersRemoved, model.UpdateLayersChanged:
		if cur.Identifier == "" {
			return cur, reject(CodeNoActiveItem, "no restraint set is active")
		}
		if u.Layers&^model.RestraintLayerMask != 0 || u.Layers < 0 {
			return cur, reject(CodeInvalidLayer, "layer bits %#x outside %#x", u.Layers, model.RestraintLayerMask)
		}
		want := u.Layers
		switch u.Kind {
		case model.UpdateLayersApplied:
			want = cur.Layers | u.Layers
		case model.UpdateLayersRemoved:
			want = cur.Layers &^ u.Layers
		}
		if want == cur.Layers {
			return cur, reject(CodeInvalidDataState, "layers unchanged")
		}
		if cur.Lock.Padlock.IsDevotional() && caller != cur.Lock.Assigner {
			return cur, reject(CodeNotItemAssigner, "only %s may change layers under a devotional lock", cur.Lock.Assigner)
		}
		if pp != nil {
			locked := cur.Lock.Locked()
			if want&^cur.Layers != 0 && (!pp.ApplyLayers || locked && !pp.ApplyLayersWhileLocked) {
				return cur, reject(CodeLackingPermissions, "adding layers not permitted")
			}
			if cur.Layers&^want != 0 && (!pp.RemoveLayers || locked && !pp.RemoveLayersWhileLocked) {
				return cur, reject(CodeLackingPermissions, "removing layers not permitted")
			}
		}
		next.Layers = want
		return next, nil
	}

	sv, err := transition(slot{cur.Identifier, cur.Enabler, cur.Lock}, u, caller, now, pp, restraintPerms(pp))
	if err != nil {
		return cur, err
	}
	next.Identifier, next.Enabler, next.Lock = sv.Item, sv.Enabler, sv.Lock
	switch u.Kind {
	case model.UpdateApplied, model.UpdateSwapped, model.UpdateRemoved:
		next.Layers = 0
	}
	return next, nil
}

func (s *KinksterService) pushRestraint(ctx context.Context, caller, target string, u SlotUpdate) (*model.ActiveRestraint, error) {
	pp, err := s.pairContext(ctx, caller, target)
	if err != nil {
		return nil, err
	}

	var prev, saved model.ActiveRestraint
	err = withCAS(func() error {
		row, err := s.states.GetRestraint(ctx, target)
		if err != nil {
			return fmt.Errorf("service: load restraint: %w", err)
		}
		prev = *row
		next, err := restraintTransition(prev, u, caller, s.now(), pp)
		if err != nil {
			return err
		}
		if err := s.states.UpdateRestraint(ctx, &next); err != nil {
			return fmt.Errorf("service: save restraint: %w", err)
		}
		saved = next
		return nil
	})
	if err != nil {
		s.logFailure(EventRestraintStateChanged, caller, target, err)
		return nil, err
	}

	s.broadcast(ctx, target, EventRestraintStateChanged, func(d model.Direction) any {
		return RestraintChanged{
			User: target, Kind: u.Kind, Direction: d, Enactor: caller, State: saved,
			PrevItem: prev.Identifier, PrevPadlock: prev.Lock.Padlock, PrevLayers: prev.Layers,
		}
	}, caller)
	return &saved, nil
}

// PushRestraintState changes the caller's restraint set or its layers.
func (s *KinksterService) PushRestraintState(ctx context.Context, caller string, u SlotUpdate) (*model.ActiveRestraint, error) {
	return s.pushRestraint(ctx, caller, caller, u)
}

func (s *KinksterService) PushOtherRestraintState(ctx context.Context, caller, target string, u SlotUpdate) (*model.ActiveRestraint, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "use the self path for your own restraint set")
	}
	return s.pushRestraint(ctx, caller, target, u)
}

// collarBit maps a collar update kind to the access bit it needs.
func collarBit(k model.UpdateKind) (model.CollarAccess, bool) {
	switch k {
	case model.UpdateVisibilityChange:
		return model.CollarAccessVisuals, true
	case model.UpdateDyesChange:
		return model.CollarAccessDyes, true
	case model.UpdateCollarMoodleChange:
		return model.CollarAccessMoodle, true
	case model.UpdateCollarWritingChange:
		return model.CollarAccessWriting, true
	}
	return 0, false
}

// applyCollar validates and applies u to c. self selects the wearer's
// access mask instead of the owners'.
func applyCollar(c *model.ActiveCollar, u CollarUpdate, caller string, self bool) error {
	bit, ok := collarBit(u.Kind)
	if !ok {
		return reject(CodeBadUpdateKind, "%s does not apply to a collar", u.Kind)
	}
	if !c.Active() {
		return reject(CodeNoActiveItem, "no collar is worn")
	}
	if self {
		if !c.EditAccess.Has(bit) {
			return reject(CodeLackingPermissions, "the wearer may not change %s", u.Kind)
		}
	} else {
		if !c.HasOwner(caller) {
			return reject(CodeNotCollarOwner, "%s does not own this collar", caller)
		}
		if !c.OwnerEditAccess.Has(bit) {
			return reject(CodeLackingPermissions, "owners may not change %s", u.Kind)
		}
	}

	switch u.Kind {
	case model.UpdateVisibilityChange:
		c.Visuals = u.Visuals
	case model.UpdateDyesChange:
		c.Dye1, c.Dye2 = u.Dye1, u.Dye2
	case model.UpdateCollarMoodleChange:
		if u.MoodleID == "" {
			return reject(CodeNullData, "no moodle given")
		}
		c.MoodleID, c.MoodleIcon = u.MoodleID, u.MoodleIcon
		c.MoodleTitle, c.MoodleDescription = u.MoodleTitle, u.MoodleDescription
	case model.UpdateCollarWritingChange:
		c.Writing = u.Writing
	}
	return nil
}

func (s *KinksterService) pushCollar(ctx context.Context, caller, target string, u CollarUpdate) (*model.ActiveCollar, error) {
	self := caller == target
	if !self {
		paired, err := s.pairs.IsPaired(ctx, target, caller)
		if err != nil {
			return nil, fmt.Errorf("service: check pairing: %w", err)
		}
		if !paired {
			return nil, reject(CodeNotPaired, "%s is not paired with %s", target, caller)
		}
	}

	var prev, saved model.ActiveCollar
	err := withCAS(func() error {
		c, err := s.states.GetCollar(ctx, target)
		if err != nil {
			return fmt.Errorf("service: load collar: %w", err)
		}
		prev = *c
		prev.Owners = slices.Clone(c.Owners)

		if u.Kind == model.UpdateCollarRemoved {
			if !c.Active() {
				return reject(CodeNoActiveItem, "no collar is worn")
			}
			if !self && !c.HasOwner(caller) {
				return reject(CodeNotCollarOwner, "%s does not own this collar", caller)
			}
			if err := s.states.RemoveCollar(ctx, c); err != nil {
				return fmt.Errorf("service: remove collar: %w", err)
			}
			c.Owners = nil
		} else {
			if err := applyCollar(c, u, caller, self); err != nil {
				return err
			}
			if err := s.states.UpdateCollar(ctx, c); err != nil {
				return fmt.Errorf("service: save collar: %w", err)
			}
		}
		saved = *c
		return nil
	})
	if err != nil {
		s.logFailure(EventCollarStateChanged, caller, target, err)
		return nil, err
	}

	// former owners hear about the removal even when they are not synced
	extra := []string{caller}
	for _, o := range prev.Owners {
		extra = append(extra, o.OwnerUID)
	}
	s.broadcast(ctx, target, EventCollarStateChanged, func(d model.Direction) any {
		return CollarChanged{User: target, Kind: u.Kind, Direction: d, Enactor: caller, State: saved, Previous: prev}
	}, extra...)
	return &saved, nil
}

// PushCollarState changes the caller's own collar within its EditAccess.
func (s *KinksterService) PushCollarState(ctx context.Context, caller string, u CollarUpdate) (*model.ActiveCollar, error) {
	return s.pushCollar(ctx, caller, caller, u)
}

// PushOtherCollarState changes the collar of a pair the caller owns.
func (s *KinksterService) PushOtherCollarState(ctx context.Context, caller, target string, u CollarUpdate) (*model.ActiveCollar, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "use the self path for your own collar")
	}
	return s.pushCollar(ctx, caller, target, u)
}
