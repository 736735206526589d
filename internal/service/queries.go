package service

import (
	"context"
	"fmt"

	"KinkLink/internal/model"
)

// PairedClient — one pair as the caller sees it.
type PairedClient struct {
	UID      string `json:"uid"`
	Online   bool   `json:"online"`
	Identity string `json:"identity,omitempty"`

	// what the caller grants the pair
	OwnPerms  *model.PairPermissions      `json:"own_perms"`
	OwnAccess *model.PairPermissionAccess `json:"own_access"`
	// what the pair grants the caller
	OtherPerms   *model.PairPermissions      `json:"other_perms"`
	OtherAccess  *model.PairPermissionAccess `json:"other_access"`
	OtherGlobals *model.GlobalPermissions    `json:"other_globals"`
}

// ConnectionSnapshot — the caller's own state, sent once after connecting.
type ConnectionSnapshot struct {
	UID          string                    `json:"uid"`
	Globals      *model.GlobalPermissions  `json:"globals"`
	Hardcore     *model.HardcoreState      `json:"hardcore"`
	Gags         []model.ActiveGag         `json:"gags"`
	Restrictions []model.ActiveRestriction `json:"restrictions"`
	Restraint    *model.ActiveRestraint    `json:"restraint"`
	Collar       *model.ActiveCollar       `json:"collar"`
	Requests     *ActiveRequests           `json:"requests"`
}

// GetOnlinePairs lists the synced, unpaused pairs of caller that are online.
func (s *KinksterService) GetOnlinePairs(ctx context.Context, caller string) ([]PairPresence, error) {
	uids, identities, err := s.onlinePairs(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]PairPresence, 0, len(uids))
	for _, u := range uids {
		out = append(out, PairPresence{UID: u, Identity: identities[u]})
	}
	return out, nil
}

// GetPairedClients returns the full permission snapshot of every pair.
func (s *KinksterService) GetPairedClients(ctx context.Context, caller string) ([]PairedClient, error) {
	uids, err := s.pairs.PairedUIDs(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("service: list pairs: %w", err)
	}
	online, err := s.presence.GetMany(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("service: presence of pairs: %w", err)
	}

	out := make([]PairedClient, 0, len(uids))
	for _, other := range uids {
		pc := PairedClient{UID: other}
		pc.Identity, pc.Online = online[other]
		if pc.OwnPerms, err = s.perms.GetPairPerms(ctx, caller, other); err != nil {
			return nil, fmt.Errorf("service: load permissions for %s: %w", other, err)
		}
		if pc.OwnAccess, err = s.perms.GetAccess(ctx, caller, other); err != nil {
			return nil, fmt.Errorf("service: load access for %s: %w", other, err)
		}
		if pc.OtherPerms, err = s.perms.GetPairPerms(ctx, other, caller); err != nil {
			return nil, fmt.Errorf("service: load permissions of %s: %w", other, err)
		}
		if pc.OtherAccess, err = s.perms.GetAccess(ctx, other, caller); err != nil {
			return nil, fmt.Errorf("service: load access of %s: %w", other, err)
		}
		if pc.OtherGlobals, err = s.perms.GetGlobal(ctx, other); err != nil {
			return nil, fmt.Errorf("service: load globals of %s: %w", other, err)
		}
		out = append(out, pc)
	}
	return out, nil
}

// GetConnectionSnapshot returns everything the caller's client needs after
// login.
func (s *KinksterService) GetConnectionSnapshot(ctx context.Context, caller string) (*ConnectionSnapshot, error) {
	snap := &ConnectionSnapshot{UID: caller}
	var err error
	if snap.Globals, err = s.perms.GetGlobal(ctx, caller); err != nil {
		return nil, fmt.Errorf("service: load globals: %w", err)
	}
	if snap.Hardcore, err = s.perms.GetHardcore(ctx, caller); err != nil {
		return nil, fmt.Errorf("service: load hardcore state: %w", err)
	}
	if snap.Gags, err = s.states.ListGags(ctx, caller); err != nil {
		return nil, fmt.Errorf("service: load gags: %w", err)
	}
	if snap.Restrictions, err = s.states.ListRestrictions(ctx, caller); err != nil {
		return nil, fmt.Errorf("service: load restrictions: %w", err)
	}
	if snap.Restraint, err = s.states.GetRestraint(ctx, caller); err != nil {
		return nil, fmt.Errorf("service: load restraint: %w", err)
	}
	if snap.Collar, err = s.states.GetCollar(ctx, caller); err != nil {
		return nil, fmt.Errorf("service: load collar: %w", err)
	}
	if snap.Requests, err = s.GetActiveRequests(ctx, caller); err != nil {
		return nil, err
	}
	return snap, nil
}
