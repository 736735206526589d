package service

import (
	"context"
	"fmt"

	"KinkLink/internal/model"
)

// ActiveRequests — every pending request the caller sent or received.
type ActiveRequests struct {
	Pair   []model.PairRequest   `json:"pair"`
	Collar []model.CollarRequest `json:"collar"`
}

// CollarOffer — terms of a collar request.
type CollarOffer struct {
	Writing        string             `json:"writing"`
	OwnerAccess    model.CollarAccess `json:"owner_access"`
	CollaredAccess model.CollarAccess `json:"collared_access"`
}

// SendPairingRequest asks target to pair with caller.
func (s *KinksterService) SendPairingRequest(ctx context.Context, caller, target, message string) (*model.PairRequest, error) {
	if target == caller || target == "" {
		return nil, reject(CodeInvalidRecipient, "cannot pair with yourself")
	}
	exists, err := s.users.Exists(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("service: lookup %s: %w", target, err)
	}
	if !exists {
		return nil, reject(CodeInvalidRecipient, "unknown user %s", target)
	}
	paired, err := s.pairs.IsPaired(ctx, caller, target)
	if err != nil {
		return nil, fmt.Errorf("service: check pairing: %w", err)
	}
	if paired {
		return nil, reject(CodeAlreadyPaired, "already paired with %s", target)
	}
	// a pending request in the other direction is accepted, not duplicated
	if _, err := s.requests.GetPairRequest(ctx, target, caller); err == nil {
		return nil, reject(CodeRequestExists, "%s already sent you a request", target)
	} else if !notFound(err) {
		return nil, fmt.Errorf("service: lookup request: %w", err)
	}

	req := &model.PairRequest{FromUID: caller, ToUID: target, Message: message}
	created, err := s.requests.CreatePairRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("service: create pair request: %w", err)
	}
	if !created {
		return nil, reject(CodeRequestExists, "request to %s is pending", target)
	}
	s.log.Infow("pair request sent", "from", caller, "to", target)
	s.notifyBoth(caller, target, EventAddPairRequest, req)
	return req, nil
}

// AcceptPairingRequest accepts the request from -> caller.
func (s *KinksterService) AcceptPairingRequest(ctx context.Context, caller, from string) error {
	req, err := s.requests.GetPairRequest(ctx, from, caller)
	if notFound(err) {
		return reject(CodeRequestNotFound, "no request from %s", from)
	}
	if err != nil {
		return fmt.Errorf("service: lookup request: %w", err)
	}
	paired, err := s.pairs.IsPaired(ctx, from, caller)
	if err != nil {
		return fmt.Errorf("service: check pairing: %w", err)
	}
	if paired {
		return reject(CodeAlreadyPaired, "already paired with %s", from)
	}

	res, err := s.pairs.AcceptPairing(ctx, from, caller)
	if notFound(err) {
		return reject(CodeRequestNotFound, "no request from %s", from)
	}
	if err != nil {
		return fmt.Errorf("service: accept pairing: %w", err)
	}
	s.cache.Invalidate(from, caller)
	s.log.Infow("pair accepted", "from", from, "to", caller,
		"created_perms", res.CreatedPairPermissions, "created_access", res.CreatedAccess)

	s.notifyBoth(from, caller, EventRemovePairRequest, req)
	for _, dir := range [][2]string{{from, caller}, {caller, from}} {
		me, other := dir[0], dir[1]
		added := PairAdded{UID: other}
		if pp, err := s.perms.GetPairPerms(ctx, me, other); err == nil {
			added.Perms = pp
		}
		if pp, err := s.perms.GetPairPerms(ctx, other, me); err == nil {
			added.TheirPerms = pp
		}
		s.notifier.Notify(me, EventAddPair, added)
	}

	online, err := s.presence.GetMany(ctx, []string{from, caller})
	if err != nil {
		s.log.Errorw("accept: presence lookup", "error", err)
		return nil
	}
	fromID, fromOnline := online[from]
	callerID, callerOnline := online[caller]
	if fromOnline && callerOnline {
		s.notifier.Notify(from, EventPairOnline, PairPresence{UID: caller, Identity: callerID})
		s.notifier.Notify(caller, EventPairOnline, PairPresence{UID: from, Identity: fromID})
	}
	return nil
}

// RejectPairingRequest drops the request from -> caller.
func (s *KinksterService) RejectPairingRequest(ctx context.Context, caller, from string) error {
	return s.dropPairRequest(ctx, from, caller)
}

// CancelPairingRequest withdraws the request caller -> to.
func (s *KinksterService) CancelPairingRequest(ctx context.Context, caller, to string) error {
	return s.dropPairRequest(ctx, caller, to)
}

func (s *KinksterService) dropPairRequest(ctx context.Context, from, to string) error {
	err := s.requests.DeletePairRequest(ctx, from, to)
	if notFound(err) {
		return reject(CodeRequestNotFound, "no request from %s to %s", from, to)
	}
	if err != nil {
		return fmt.Errorf("service: delete pair request: %w", err)
	}
	s.notifyBoth(from, to, EventRemovePairRequest, model.PairRequest{FromUID: from, ToUID: to})
	return nil
}

// RemovePair ends the pairing between caller and target together with its
// permission rows and any collar ownership between them.
func (s *KinksterService) RemovePair(ctx context.Context, caller, target string) error {
	if target == caller {
		return reject(CodeInvalidRecipient, "cannot unpair from yourself")
	}
	paired, err := s.pairs.IsPaired(ctx, caller, target)
	if err != nil {
		return fmt.Errorf("service: check pairing: %w", err)
	}
	if !paired {
		return reject(CodeNotPaired, "not paired with %s", target)
	}

	// collars where one of the two owns the other
	var collared []string
	for _, dir := range [][2]string{{caller, target}, {target, caller}} {
		c, err := s.states.GetCollar(ctx, dir[0])
		if err != nil {
			return fmt.Errorf("service: load collar: %w", err)
		}
		if c.HasOwner(dir[1]) {
			collared = append(collared, dir[0])
		}
	}

	if err := s.pairs.RemovePairing(ctx, caller, target); err != nil {
		return fmt.Errorf("service: remove pairing: %w", err)
	}
	s.cache.Invalidate(caller, target)
	s.log.Infow("pair removed", "by", caller, "other", target)

	s.notifier.Notify(caller, EventRemovePair, PairRemoved{UID: target})
	s.notifier.Notify(target, EventRemovePair, PairRemoved{UID: caller})

	for _, uid := range collared {
		c, err := s.states.GetCollar(ctx, uid)
		if err != nil {
			s.log.Errorw("remove pair: reload collar", "uid", uid, "error", err)
			continue
		}
		s.broadcast(ctx, uid, EventCollarOwnersChanged, func(model.Direction) any {
			return CollarOwnersChanged{User: uid, Owners: c.Owners, Collar: *c}
		}, caller, target)
	}
	return nil
}

// GetActiveRequests lists the pending pair and collar requests of caller.
func (s *KinksterService) GetActiveRequests(ctx context.Context, caller string) (*ActiveRequests, error) {
	pair, err := s.requests.PairRequestsFor(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("service: list pair requests: %w", err)
	}
	collar, err := s.requests.CollarRequestsFor(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("service: list collar requests: %w", err)
	}
	return &ActiveRequests{Pair: pair, Collar: collar}, nil
}

// SendCollarRequest offers to become a collar owner of target.
func (s *KinksterService) SendCollarRequest(ctx context.Context, caller, target string, offer CollarOffer) (*model.CollarRequest, error) {
	if target == caller {
		return nil, reject(CodeInvalidRecipient, "cannot collar yourself")
	}
	paired, err := s.pairs.IsPaired(ctx, caller, target)
	if err != nil {
		return nil, fmt.Errorf("service: check pairing: %w", err)
	}
	if !paired {
		return nil, reject(CodeNotPaired, "not paired with %s", target)
	}
	c, err := s.states.GetCollar(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("service: load collar: %w", err)
	}
	if c.HasOwner(caller) {
		return nil, reject(CodeAlreadyPaired, "already an owner of %s", target)
	}

	req := &model.CollarRequest{
		FromUID:        caller,
		ToUID:          target,
		InitialWriting: offer.Writing,
		OwnerAccess:    offer.OwnerAccess & model.CollarAccessAll,
		CollaredAccess: offer.CollaredAccess & model.CollarAccessAll,
	}
	created, err := s.requests.CreateCollarRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("service: create collar request: %w", err)
	}
	if !created {
		return nil, reject(CodeRequestExists, "collar request to %s is pending", target)
	}
	s.notifyBoth(caller, target, EventAddCollarRequest, req)
	return req, nil
}

// AcceptCollarRequest makes from an owner of the caller's collar.
func (s *KinksterService) AcceptCollarRequest(ctx context.Context, caller, from string) (*model.ActiveCollar, error) {
	paired, err := s.pairs.IsPaired(ctx, caller, from)
	if err != nil {
		return nil, fmt.Errorf("service: check pairing: %w", err)
	}
	if !paired {
		return nil, reject(CodeNotPaired, "not paired with %s", from)
	}
	c, err := s.states.AcceptCollarRequest(ctx, from, caller)
	if notFound(err) {
		return nil, reject(CodeRequestNotFound, "no collar request from %s", from)
	}
	if err != nil {
		return nil, fmt.Errorf("service: accept collar request: %w", err)
	}
	s.log.Infow("collar accepted", "owner", from, "collared", caller)

	s.notifyBoth(from, caller, EventRemoveCollarRequest, model.CollarRequest{FromUID: from, ToUID: caller})
	extra := make([]string, 0, len(c.Owners))
	for _, o := range c.Owners {
		extra = append(extra, o.OwnerUID)
	}
	s.broadcast(ctx, caller, EventCollarOwnersChanged, func(model.Direction) any {
		return CollarOwnersChanged{User: caller, Owners: c.Owners, Collar: *c}
	}, extra...)
	return c, nil
}

// RejectCollarRequest drops the collar request from -> caller.
func (s *KinksterService) RejectCollarRequest(ctx context.Context, caller, from string) error {
	return s.dropCollarRequest(ctx, from, caller)
}

// CancelCollarRequest withdraws the collar request caller -> to.
func (s *KinksterService) CancelCollarRequest(ctx context.Context, caller, to string) error {
	return s.dropCollarRequest(ctx, caller, to)
}

func (s *KinksterService) dropCollarRequest(ctx context.Context, from, to string) error {
	err := s.requests.DeleteCollarRequest(ctx, from, to)
	if notFound(err) {
		return reject(CodeRequestNotFound, "no collar request from %s to %s", from, to)
	}
	if err != nil {
		return fmt.Errorf("service: delete collar request: %w", err)
	}
	s.notifyBoth(from, to, EventRemoveCollarRequest, model.CollarRequest{FromUID: from, ToUID: to})
	return nil
}
