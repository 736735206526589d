package repo

import (
	"KinkLink/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db)
	ctx := context.Background()

	// created
	u, err := r.CreateUser(ctx, &model.User{UID: "AAAA"}, &model.Auth{HashedSecret: "hash"})
	assert.NoError(t, err)
	assert.Equal(t, "AAAA", u.UID)

	got, err := r.GetUser(ctx, "AAAA")
	assert.NoError(t, err)
	assert.Equal(t, u.UID, got.UID)

	auth, err := r.GetAuth(ctx, "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "hash", auth.HashedSecret)

	// inserting the same UID again fails
	_, err = r.CreateUser(ctx, &model.User{UID: "AAAA"}, &model.Auth{HashedSecret: "x"})
	assert.Error(t, err)

	// a missing UID yields gorm.ErrRecordNotFound
	got, err = r.GetUser(ctx, "doesnotexist")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	ok, err := r.Exists(ctx, "AAAA")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRepository_CreatesPerUserRows(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "AAAA")

	var n int64
	require.NoError(t, db.Model(&model.ActiveGag{}).Where("uid = ?", "AAAA").Count(&n).Error)
	assert.EqualValues(t, model.GagLayers, n)
	require.NoError(t, db.Model(&model.ActiveRestriction{}).Where("uid = ?", "AAAA").Count(&n).Error)
	assert.EqualValues(t, model.RestrictionLayers, n)

	var collar model.ActiveCollar
	require.NoError(t, db.First(&collar, "uid = ?", "AAAA").Error)
	assert.True(t, collar.Visuals)
	assert.False(t, collar.Active())
}

func TestUserRepository_TouchLogin(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db)
	seedUsers(t, db, "AAAA")

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.TouchLogin(context.Background(), "AAAA", at))
	u, err := r.GetUser(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.True(t, u.LastLogin.Equal(at))
}

func TestUserRepository_DeleteUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewUserRepository(db)
	seedUsers(t, db, "AAAA", "BBBB")
	seedPair(t, db, "AAAA", "BBBB")

	// AAAA owns the collar of BBBB
	_, err := NewRequestRepository(db).CreateCollarRequest(ctx, &model.CollarRequest{
		FromUID: "AAAA", ToUID: "BBBB", InitialWriting: "pet", OwnerAccess: model.CollarAccessAll,
	})
	require.NoError(t, err)
	_, err = NewStateRepository(db).AcceptCollarRequest(ctx, "AAAA", "BBBB")
	require.NoError(t, err)

	require.NoError(t, r.DeleteUser(ctx, "AAAA"))

	ok, err := r.Exists(ctx, "AAAA")
	require.NoError(t, err)
	assert.False(t, ok)

	pairs, err := NewPairRepository(db).PairedUIDs(ctx, "BBBB")
	require.NoError(t, err)
	assert.Empty(t, pairs)

	collar, err := NewStateRepository(db).GetCollar(ctx, "BBBB")
	require.NoError(t, err)
	assert.False(t, collar.Active())
	assert.Empty(t, collar.Writing)

	assert.ErrorIs(t, r.DeleteUser(ctx, "AAAA"), gorm.ErrRecordNotFound)
}
