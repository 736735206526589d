package service

import (
	"context"
	"fmt"
)

// OnConnect registers the caller as online and tells its pairs.
func (s *KinksterService) OnConnect(ctx context.Context, uid, identity string) error {
	if err := s.perms.EnsureUserRows(ctx, uid); err != nil {
		return fmt.Errorf("service: ensure rows of %s: %w", uid, err)
	}
	if err := s.users.TouchLogin(ctx, uid, s.now()); err != nil {
		return fmt.Errorf("service: touch login of %s: %w", uid, err)
	}
	if err := s.presence.Refresh(ctx, uid, identity, s.presenceTTL); err != nil {
		return fmt.Errorf("service: presence of %s: %w", uid, err)
	}
	pairs, _, err := s.onlinePairs(ctx, uid)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		s.notifier.Notify(p, EventPairOnline, PairPresence{UID: uid, Identity: identity})
	}
	s.log.Infow("connected", "uid", uid, "online_pairs", len(pairs))
	return nil
}

// OnDisconnect clears the caller's presence and tells its pairs.
func (s *KinksterService) OnDisconnect(ctx context.Context, uid string) error {
	pairs, _, err := s.onlinePairs(ctx, uid)
	if err != nil {
		s.log.Errorw("disconnect: resolve pairs", "uid", uid, "error", err)
	}
	if err := s.presence.Remove(ctx, uid); err != nil {
		return fmt.Errorf("service: remove presence of %s: %w", uid, err)
	}
	for _, p := range pairs {
		s.notifier.Notify(p, EventPairOffline, PairPresence{UID: uid})
	}
	s.log.Infow("disconnected", "uid", uid)
	return nil
}

// HealthCheck extends the caller's presence lease.
func (s *KinksterService) HealthCheck(ctx context.Context, uid, identity string) error {
	if err := s.presence.Refresh(ctx, uid, identity, s.presenceTTL); err != nil {
		return fmt.Errorf("service: presence of %s: %w", uid, err)
	}
	return nil
}

// DeleteAccount removes the caller and everything keyed by its UID. Former
// pairs are told to drop the relationship.
func (s *KinksterService) DeleteAccount(ctx context.Context, uid string) error {
	pairs, err := s.pairs.PairedUIDs(ctx, uid)
	if err != nil {
		return fmt.Errorf("service: list pairs of %s: %w", uid, err)
	}
	if err := s.users.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("service: delete %s: %w", uid, err)
	}
	if err := s.presence.Remove(ctx, uid); err != nil {
		s.log.Warnw("delete account: remove presence", "uid", uid, "error", err)
	}
	s.cache.Invalidate(append([]string{uid}, pairs...)...)
	for _, p := range pairs {
		s.notifier.Notify(p, EventRemovePair, PairRemoved{UID: uid})
	}
	s.log.Infow("account deleted", "uid", uid, "pairs", len(pairs))
	return nil
}
