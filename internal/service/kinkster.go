package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"KinkLink/internal/model"
	"KinkLink/internal/paircache"
	"KinkLink/internal/presence"
	"KinkLink/internal/repo"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxCASAttempts bounds the re-read/re-validate loop of a write that lost a
// compare-and-swap race.
const maxCASAttempts = 3

// Deps — collaborators of KinksterService. Presence, Cache, Notifier, Log
// and Now get in-memory or no-op defaults when nil.
type Deps struct {
	Users    repo.UserRepository
	Pairs    repo.PairRepository
	Requests repo.RequestRepository
	Perms    repo.PermissionRepository
	States   repo.StateRepository

	Presence    presence.Tracker
	PresenceTTL time.Duration
	Cache       *paircache.Cache
	Notifier    Notifier
	Images      ImageValidator

	Log *zap.SugaredLogger
	Now func() time.Time
}

// KinksterService implements pairing, permissions, active-state mutation,
// hardcore attributes, queries and connection lifecycle for connected
// clients. Every method takes the authenticated caller UID.
type KinksterService struct {
	users    repo.UserRepository
	pairs    repo.PairRepository
	requests repo.RequestRepository
	perms    repo.PermissionRepository
	states   repo.StateRepository

	presence    presence.Tracker
	presenceTTL time.Duration
	cache       *paircache.Cache
	notifier    Notifier
	images      ImageValidator

	log *zap.SugaredLogger
	now func() time.Time
}

func NewKinksterService(d Deps) *KinksterService {
	s := &KinksterService{
		users:       d.Users,
		pairs:       d.Pairs,
		requests:    d.Requests,
		perms:       d.Perms,
		states:      d.States,
		presence:    d.Presence,
		presenceTTL: d.PresenceTTL,
		cache:       d.Cache,
		notifier:    d.Notifier,
		images:      d.Images,
		log:         d.Log,
		now:         d.Now,
	}
	if s.presence == nil {
		s.presence = presence.NewMemoryTracker(nil)
	}
	if s.presenceTTL <= 0 {
		s.presenceTTL = presence.DefaultTTL
	}
	if s.cache == nil {
		s.cache = paircache.New(0, 0)
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.images == nil {
		s.images = NopImageValidator{}
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetNotifier swaps the push sink; the hub registers itself after both are
// built.
func (s *KinksterService) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// withCAS runs attempt until it stops losing compare-and-swap races. Each
// attempt must re-read and re-validate.
func withCAS(attempt func() error) error {
	for i := 0; i < maxCASAttempts; i++ {
		err := attempt()
		if !errors.Is(err, repo.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("service: gave up after %d attempts: %w", maxCASAttempts, repo.ErrVersionConflict)
}

// notFound reports whether err is a missing row.
func notFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// loadPairPerms returns what owner permits other, or NotPaired.
func (s *KinksterService) loadPairPerms(ctx context.Context, owner, other string) (*model.PairPermissions, error) {
	pp, err := s.perms.GetPairPerms(ctx, owner, other)
	if notFound(err) {
		return nil, reject(CodeNotPaired, "%s is not paired with %s", owner, other)
	}
	if err != nil {
		return nil, fmt.Errorf("service: load pair permissions: %w", err)
	}
	return pp, nil
}

// onlinePairs resolves the synced, unpaused and present pairs of uid. The
// cached set is used when it holds every UID in expect; otherwise it is
// recomputed and warmed.
func (s *KinksterService) onlinePairs(ctx context.Context, uid string, expect ...string) ([]string, map[string]string, error) {
	var pairs []string
	cached := false
	if s.cache.AreAllCached(uid, expect) {
		pairs, cached = s.cache.Get(uid)
	}
	if !cached {
		var err error
		pairs, err = s.pairs.SyncedUnpausedPairs(ctx, uid)
		if err != nil {
			return nil, nil, fmt.Errorf("service: resolve pairs of %s: %w", uid, err)
		}
		s.cache.WarmCache(uid, pairs)
	}
	online, err := s.presence.GetMany(ctx, pairs)
	if err != nil {
		return nil, nil, fmt.Errorf("service: presence of pairs of %s: %w", uid, err)
	}
	out := make([]string, 0, len(online))
	for u := range online {
		out = append(out, u)
	}
	slices.Sort(out)
	return out, online, nil
}

// broadcast pushes to affected (built with Own), to extra and to the online
// pairs of affected (built with Other). Each UID receives at most once.
// extra UIDs are expected pairs of affected: a cached set missing one of them
// is stale and gets recomputed. Failures to resolve recipients are logged:
// the write already committed.
func (s *KinksterService) broadcast(ctx context.Context, affected, event string, build func(model.Direction) any, extra ...string) {
	s.notifier.Notify(affected, event, build(model.DirectionOwn))
	sent := map[string]bool{affected: true}
	other := build(model.DirectionOther)
	var expect []string
	for _, u := range extra {
		if u != "" && !sent[u] {
			sent[u] = true
			expect = append(expect, u)
			s.notifier.Notify(u, event, other)
		}
	}
	pairs, _, err := s.onlinePairs(ctx, affected, expect...)
	if err != nil {
		s.log.Errorw("broadcast: resolve recipients", "event", event, "uid", affected, "error", err)
		return
	}
	for _, u := range pairs {
		if !sent[u] {
			sent[u] = true
			s.notifier.Notify(u, event, other)
		}
	}
}

// notifyBoth sends the same payload to a and b.
func (s *KinksterService) notifyBoth(a, b, event string, payload any) {
	s.notifier.Notify(a, event, payload)
	s.notifier.Notify(b, event, payload)
}
