package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"KinkLink/internal/model"
	"KinkLink/internal/paircache"
	"KinkLink/internal/presence"
	"KinkLink/internal/repo"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// sent — one recorded push.
type sent struct {
	UID     string
	Event   string
	Payload any
}

// recorder collects pushes in order.
type recorder struct {
	mu  sync.Mutex
	all []sent
}

func (r *recorder) Notify(uid, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, sent{uid, event, payload})
}

// to returns the pushes of event delivered to uid.
func (r *recorder) to(uid, event string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, s := range r.all {
		if s.UID == uid && s.Event == event {
			out = append(out, s.Payload)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.all = nil
	r.mu.Unlock()
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db       *gorm.DB
	svc      *KinksterService
	notes    *recorder
	presence *presence.MemoryTracker
	cache    *paircache.Cache
	clock    *clock
	perms    repo.PermissionRepository
	states   repo.StateRepository
	pairs    repo.PairRepository
}

// newFixture builds the service over in-memory SQLite.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB("file:svc_" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	f := &fixture{
		db:       db,
		notes:    &recorder{},
		presence: presence.NewMemoryTracker(clk.Now),
		cache:    paircache.New(100, time.Minute),
		clock:    clk,
		perms:    repo.NewPermissionRepository(db),
		states:   repo.NewStateRepository(db),
		pairs:    repo.NewPairRepository(db),
	}
	f.svc = NewKinksterService(Deps{
		Users:    repo.NewUserRepository(db),
		Pairs:    f.pairs,
		Requests: repo.NewRequestRepository(db),
		Perms:    f.perms,
		States:   f.states,
		Presence: f.presence,
		Cache:    f.cache,
		Notifier: f.notes,
		Now:      clk.Now,
	})
	return f
}

func (f *fixture) users(t *testing.T, uids ...string) {
	t.Helper()
	r := repo.NewUserRepository(f.db)
	for _, uid := range uids {
		_, err := r.CreateUser(context.Background(), &model.User{UID: uid}, &model.Auth{HashedSecret: "x"})
		require.NoError(t, err)
	}
}

// pair links a and b through the service.
func (f *fixture) pair(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SendPairingRequest(ctx, a, b, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.AcceptPairingRequest(ctx, b, a))
}

func (f *fixture) online(t *testing.T, uids ...string) {
	t.Helper()
	for _, uid := range uids {
		require.NoError(t, f.presence.Refresh(context.Background(), uid, "ident-"+uid, time.Minute))
	}
}

// grant edits what owner permits other.
func (f *fixture) grant(t *testing.T, owner, other string, edit func(*model.PairPermissions)) {
	t.Helper()
	ctx := context.Background()
	pp, err := f.perms.GetPairPerms(ctx, owner, other)
	require.NoError(t, err)
	edit(pp)
	require.NoError(t, f.perms.SavePairPerms(ctx, pp))
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "error: %v", err)
}
