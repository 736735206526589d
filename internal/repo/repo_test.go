package repo

import (
	"KinkLink/internal/model"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens an in-memory SQLite database (modernc.org/sqlite).
// Each test gets its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	// same pragmas as production, foreign_keys included
	db, err := InitDB("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to init sqlite (modernc): %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// seedUsers registers users with empty secrets.
func seedUsers(t *testing.T, db *gorm.DB, uids ...string) {
	t.Helper()
	r := NewUserRepository(db)
	for _, uid := range uids {
		_, err := r.CreateUser(context.Background(), &model.User{UID: uid}, &model.Auth{HashedSecret: "x"})
		require.NoError(t, err)
	}
}

// seedPair creates the synced pair a <-> b through a request.
func seedPair(t *testing.T, db *gorm.DB, a, b string) {
	t.Helper()
	ctx := context.Background()
	_, err := NewRequestRepository(db).CreatePairRequest(ctx, &model.PairRequest{FromUID: a, ToUID: b})
	require.NoError(t, err)
	_, err = NewPairRepository(db).AcceptPairing(ctx, a, b)
	require.NoError(t, err)
}
