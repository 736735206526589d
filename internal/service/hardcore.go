package service

import (
	"context"
	"fmt"
	"time"

	"KinkLink/internal/model"
)

// ImprisonMaxShift — how far an active imprisonment may be moved in one
// update.
const ImprisonMaxShift = 30.0

// HardcoreChange — requested state of one attribute. Active=false clears
// it; the payload fields are read for the attribute being set.
type HardcoreChange struct {
	Active     bool      `json:"active"`
	Devotional bool      `json:"devotional,omitempty"`
	Expires    time.Time `json:"expires,omitempty"`

	EmoteID            int        `json:"emote_id,omitempty"`
	CyclePose          int        `json:"cycle_pose,omitempty"`
	ConfinementAddress string     `json:"confinement_address,omitempty"`
	ImprisonTerritory  int        `json:"imprison_territory,omitempty"`
	ImprisonPosition   model.Vec3 `json:"imprison_position,omitempty"`
	ImprisonRadius     float64    `json:"imprison_radius,omitempty"`

	HypnoEffect *model.HypnoticEffect `json:"hypno_effect,omitempty"`
	HypnoImage  string                `json:"hypno_image,omitempty"`
}

// attributeAllowed returns the pair flag gating attribute a.
func attributeAllowed(pp *model.PairPermissions, a model.Attribute) bool {
	switch a {
	case model.AttributeFollow:
		return pp.AllowLockedFollowing
	case model.AttributeEmoteState:
		return pp.AllowLockedEmoting
	case model.AttributeConfinement:
		return pp.AllowIndoorConfinement
	case model.AttributeImprisonment:
		return pp.AllowImprisonment
	case model.AttributeHiddenChatBox:
		return pp.AllowHidingChatBoxes
	case model.AttributeHiddenChatInput:
		return pp.AllowHidingChatInput
	case model.AttributeBlockedChatInput:
		return pp.AllowChatInputBlocking
	case model.AttributeHypnoticEffect:
		return pp.AllowHypnoEffectSending
	}
	return false
}

// CanChange reports whether caller may change a grant: it is inactive,
// caller set it, or it is not devotional and caller holds the allowance.
func CanChange(g model.AttributeGrant, caller string, allowed bool) bool {
	return !g.Active() || g.Enactor == caller || (!g.Devotional && allowed)
}

// hardcoreTransition validates c against h and applies it in place.
func hardcoreTransition(h *model.HardcoreState, a model.Attribute, c HardcoreChange, caller string, pp *model.PairPermissions, now time.Time) error {
	g := h.Grant(a)
	allowed := attributeAllowed(pp, a)
	if !CanChange(*g, caller, allowed) {
		return reject(CodeNotItemAssigner, "%s was set by %s", a, g.Enactor)
	}
	if a.StrictToggle() && c.Active == g.Active() {
		return reject(CodeInvalidDataState, "%s is already %s", a, activeWord(c.Active))
	}
	if !c.Active {
		if !g.Active() {
			return reject(CodeInvalidDataState, "%s is not active", a)
		}
		*g = model.AttributeGrant{}
		h.ClearPayload(a)
		return nil
	}

	if c.Devotional && !pp.DevotionalStates {
		return reject(CodeLackingPermissions, "devotional states are not allowed")
	}
	if !c.Expires.IsZero() && !c.Expires.After(now) {
		return reject(CodeInvalidTime, "expiry must lie in the future")
	}

	switch a {
	case model.AttributeEmoteState:
		h.EmoteID, h.CyclePose = c.EmoteID, c.CyclePose
	case model.AttributeConfinement:
		h.ConfinementAddress = c.ConfinementAddress
	case model.AttributeImprisonment:
		if g.Active() {
			if c.ImprisonTerritory != h.ImprisonTerritory {
				return reject(CodeInvalidDataState, "imprisonment cannot change territory")
			}
			if d := c.ImprisonPosition.Distance(h.ImprisonPosition); d > ImprisonMaxShift {
				return reject(CodeInvalidDataState, "imprisonment moved %.1f, at most %.0f allowed", d, ImprisonMaxShift)
			}
		}
		h.ImprisonTerritory, h.ImprisonPosition, h.ImprisonRadius = c.ImprisonTerritory, c.ImprisonPosition, c.ImprisonRadius
	case model.AttributeHypnoticEffect:
		if g.Active() {
			return reject(CodeInvalidDataState, "a hypnotic effect is already running")
		}
		if c.HypnoEffect == nil {
			return reject(CodeNullData, "no hypnotic effect given")
		}
		if c.HypnoImage != "" && !pp.AllowHypnoImageSending {
			return reject(CodeLackingPermissions, "custom hypnosis images are not allowed")
		}
		effect := *c.HypnoEffect
		h.HypnoEffect, h.HypnoImage = &effect, c.HypnoImage
	}

	*g = model.AttributeGrant{Enactor: caller, Devotional: c.Devotional, Expires: c.Expires}
	return nil
}

func activeWord(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// ChangeOtherHardcoreAttribute sets or clears attribute a of target on
// behalf of caller.
func (s *KinksterService) ChangeOtherHardcoreAttribute(ctx context.Context, caller, target string, a model.Attribute, c HardcoreChange) (*model.HardcoreState, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "hardcore attributes are set by a pair")
	}
	if !a.Valid() {
		return nil, reject(CodeBadUpdateKind, "unknown attribute %s", a)
	}
	pp, err := s.loadPairPerms(ctx, target, caller)
	if err != nil {
		return nil, err
	}
	if !attributeAllowed(pp, a) {
		return nil, reject(CodeLackingPermissions, "%s is not allowed", a)
	}

	if c.Active && a == model.AttributeHypnoticEffect && c.HypnoImage != "" && pp.AllowHypnoImageSending {
		img, err := s.images.ValidateImage(ctx, c.HypnoImage)
		if err != nil {
			return nil, reject(CodeInvalidDataState, "hypnosis image rejected: %v", err)
		}
		c.HypnoImage = img
	}

	var saved *model.HardcoreState
	err = withCAS(func() error {
		h, err := s.perms.GetHardcore(ctx, target)
		if err != nil {
			return fmt.Errorf("service: load hardcore state: %w", err)
		}
		if err := hardcoreTransition(h, a, c, caller, pp, s.now()); err != nil {
			return err
		}
		if err := s.perms.UpdateHardcore(ctx, h); err != nil {
			return fmt.Errorf("service: save hardcore state: %w", err)
		}
		saved = h
		return nil
	})
	if err != nil {
		s.logFailure(EventHardcoreStateChanged, caller, target, err)
		return nil, err
	}
	s.broadcastHardcore(ctx, target, caller, a, saved)
	return saved, nil
}

// AttributeExpired clears attribute a of the caller when its timer fires.
// The clear goes through CanChange with the holder's allowance: a devotional
// grant stays until its enactor releases it.
func (s *KinksterService) AttributeExpired(ctx context.Context, caller string, a model.Attribute) (*model.HardcoreState, error) {
	if !a.Valid() {
		return nil, reject(CodeBadUpdateKind, "unknown attribute %s", a)
	}
	var saved *model.HardcoreState
	var enactor string
	err := withCAS(func() error {
		h, err := s.perms.GetHardcore(ctx, caller)
		if err != nil {
			return fmt.Errorf("service: load hardcore state: %w", err)
		}
		g := h.Grant(a)
		if !g.Active() {
			return reject(CodeNoActiveItem, "%s is not active", a)
		}
		if !CanChange(*g, caller, true) {
			return reject(CodeNotItemAssigner, "%s is devotional, set by %s", a, g.Enactor)
		}
		enactor = g.Enactor
		*g = model.AttributeGrant{}
		h.ClearPayload(a)
		if err := s.perms.UpdateHardcore(ctx, h); err != nil {
			return fmt.Errorf("service: save hardcore state: %w", err)
		}
		saved = h
		return nil
	})
	if err != nil {
		s.logFailure("AttributeExpired", caller, caller, err)
		return nil, err
	}
	s.broadcastHardcore(ctx, caller, caller, a, saved, enactor)
	return saved, nil
}

func (s *KinksterService) broadcastHardcore(ctx context.Context, target, enactor string, a model.Attribute, h *model.HardcoreState, extra ...string) {
	state := *h
	s.broadcast(ctx, target, EventHardcoreStateChanged, func(d model.Direction) any {
		return HardcoreChanged{User: target, Attribute: a, Direction: d, Enactor: enactor, State: state}
	}, append([]string{enactor}, extra...)...)
}
