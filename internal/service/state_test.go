package service

import (
	"context"
	"testing"
	"time"

	"KinkLink/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "B")

	req, err := f.svc.SendPairingRequest(ctx, "A", "B", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", req.Message)
	require.NoError(t, f.svc.AcceptPairingRequest(ctx, "B", "A"))

	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateApplied, Item: "Ball Gag"})
	require.NoError(t, err)

	// B has ApplyGags=false and no lock permission either
	_, err = f.svc.PushOtherGagState(ctx, "B", "A", 0, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockMetal})
	requireCode(t, err, CodeLackingPermissions)

	// self path ignores pair permissions
	g, err := f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockOwner})
	require.NoError(t, err)
	assert.Equal(t, model.PadlockOwner, g.Lock.Padlock)
	assert.Equal(t, "A", g.Lock.Assigner)
}

func TestPushOtherGagState_PermissionMatrix(t *testing.T) {
	cases := []struct {
		name  string
		grant func(*model.PairPermissions)
		lock  model.Padlock
		code  Code
	}{
		{"no flags", func(*model.PairPermissions) {}, model.PadlockMetal, CodeLackingPermissions},
		{"lock flag without permanent class", func(p *model.PairPermissions) { p.LockGags = true }, model.PadlockMetal, CodeLackingPermissions},
		{"lock flag with permanent class", func(p *model.PairPermissions) { p.LockGags, p.PermanentLocks = true, true }, model.PadlockMetal, CodeSuccess},
		{"owner lock without owner class", func(p *model.PairPermissions) { p.LockGags, p.PermanentLocks = true, true }, model.PadlockOwner, CodeLackingPermissions},
		{"owner lock with owner class", func(p *model.PairPermissions) { p.LockGags, p.PermanentLocks, p.OwnerLocks = true, true, true }, model.PadlockOwner, CodeSuccess},
		{"devotional lock with class", func(p *model.PairPermissions) { p.LockGags, p.PermanentLocks, p.DevotionalLocks = true, true, true }, model.PadlockDevotional, CodeSuccess},
		{"five minutes needs no class", func(p *model.PairPermissions) { p.LockGags = true }, model.PadlockFiveMinutes, CodeSuccess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.users(t, "A", "B")
			f.pair(t, "A", "B")
			_, err := f.svc.PushGagState(ctx, "A", 1, SlotUpdate{Kind: model.UpdateApplied, Item: "tape"})
			require.NoError(t, err)

			f.grant(t, "A", "B", tc.grant)
			_, err = f.svc.PushOtherGagState(ctx, "B", "A", 1, SlotUpdate{Kind: model.UpdateLocked, Padlock: tc.lock})
			assert.Equal(t, tc.code, CodeOf(err), "error: %v", err)

			g, err := f.states.GetGag(ctx, "A", 1)
			require.NoError(t, err)
			if tc.code == CodeSuccess {
				assert.Equal(t, tc.lock, g.Lock.Padlock)
			} else {
				assert.Equal(t, model.LockState{}, g.Lock)
			}
		})
	}
}

func TestPushOtherGagState_NotPaired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "B")

	_, err := f.svc.PushOtherGagState(ctx, "B", "A", 0, SlotUpdate{Kind: model.UpdateApplied, Item: "tape"})
	requireCode(t, err, CodeNotPaired)

	_, err = f.svc.PushOtherGagState(ctx, "A", "A", 0, SlotUpdate{Kind: model.UpdateApplied, Item: "tape"})
	requireCode(t, err, CodeInvalidRecipient)
}

func TestPushGagState_TransitionRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A")

	_, err := f.svc.PushGagState(ctx, "A", model.GagLayers, SlotUpdate{Kind: model.UpdateApplied, Item: "x"})
	requireCode(t, err, CodeInvalidLayer)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateApplied})
	requireCode(t, err, CodeNullData)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateRemoved})
	requireCode(t, err, CodeNoActiveItem)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateSwapped, Item: "x"})
	requireCode(t, err, CodeNoActiveItem)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateLayersApplied})
	requireCode(t, err, CodeBadUpdateKind)

	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateApplied, Item: "ring"})
	require.NoError(t, err)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateSwapped, Item: "ring"})
	requireCode(t, err, CodeInvalidDataState)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateUnlocked})
	requireCode(t, err, CodeNotCurrentlyLocked)

	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockCombination, Password: "12a4"})
	requireCode(t, err, CodeInvalidPassword)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockCombination, Password: "1234"})
	require.NoError(t, err)

	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockMetal})
	requireCode(t, err, CodeItemIsLocked)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateSwapped, Item: "bit"})
	requireCode(t, err, CodeItemIsLocked)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateRemoved})
	requireCode(t, err, CodeItemIsLocked)
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateUnlocked, Password: "0000"})
	requireCode(t, err, CodeInvalidPassword)

	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateUnlocked, Password: "1234"})
	require.NoError(t, err)
	g, err := f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateRemoved})
	require.NoError(t, err)
	assert.Empty(t, g.Item)
	assert.Empty(t, g.Enabler)
}

func TestLockUnlockRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "B")
	f.pair(t, "A", "B")
	f.grant(t, "A", "B", func(p *model.PairPermissions) {
		p.ApplyRestrictions, p.LockRestrictions, p.UnlockRestrictions, p.PermanentLocks = true, true, true, true
	})

	_, err := f.svc.PushOtherRestrictionState(ctx, "B", "A", 2, SlotUpdate{Kind: model.UpdateApplied, Item: "cuffs"})
	require.NoError(t, err)
	before, err := f.states.GetRestriction(ctx, "A", 2)
	require.NoError(t, err)

	_, err = f.svc.PushOtherRestrictionState(ctx, "B", "A", 2, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockMetal})
	require.NoError(t, err)
	after, err := f.svc.PushOtherRestrictionState(ctx, "B", "A", 2, SlotUpdate{Kind: model.UpdateUnlocked})
	require.NoError(t, err)

	assert.Equal(t, model.LockState{}, after.Lock)
	assert.Equal(t, before.Item, after.Item)
	assert.Equal(t, before.Enabler, after.Enabler)
}

func TestUnauthorizedDevotionalUnlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "X", "Y")
	f.pair(t, "A", "X")
	f.pair(t, "A", "Y")
	all := func(p *model.PairPermissions) {
		p.ApplyGags, p.LockGags, p.UnlockGags, p.PermanentLocks, p.DevotionalLocks = true, true, true, true, true
	}
	f.grant(t, "A", "X", all)
	f.grant(t, "A", "Y", func(p *model.PairPermissions) { p.UnlockGags = true })

	_, err := f.svc.PushOtherGagState(ctx, "X", "A", 0, SlotUpdate{Kind: model.UpdateApplied, Item: "muzzle"})
	require.NoError(t, err)
	_, err = f.svc.PushOtherGagState(ctx, "X", "A", 0, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockDevotional})
	require.NoError(t, err)
	locked, err := f.states.GetGag(ctx, "A", 0)
	require.NoError(t, err)

	_, err = f.svc.PushOtherGagState(ctx, "Y", "A", 0, SlotUpdate{Kind: model.UpdateUnlocked})
	requireCode(t, err, CodeNotItemAssigner)
	// the wearer cannot open it either
	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateUnlocked})
	requireCode(t, err, CodeNotItemAssigner)

	unchanged, err := f.states.GetGag(ctx, "A", 0)
	require.NoError(t, err)
	assert.Equal(t, locked.Lock, unchanged.Lock)
	assert.Equal(t, locked.Version, unchanged.Version)

	// the assigner opens it even without the unlock flag
	f.grant(t, "A", "X", func(p *model.PairPermissions) { p.UnlockGags = false })
	_, err = f.svc.PushOtherGagState(ctx, "X", "A", 0, SlotUpdate{Kind: model.UpdateUnlocked})
	require.NoError(t, err)
}

func TestTimerLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "B")
	f.pair(t, "A", "B")
	f.grant(t, "A", "B", func(p *model.PairPermissions) {
		p.ApplyGags, p.LockGags, p.MaxGagTime = true, true, 30*time.Minute
	})
	_, err := f.svc.PushGagState(ctx, "A", 2, SlotUpdate{Kind: model.UpdateApplied, Item: "bit"})
	require.NoError(t, err)

	now := f.clock.Now()
	_, err = f.svc.PushOtherGagState(ctx, "B", "A", 2, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockTimer, Timer: now.Add(-time.Second).UnixMilli()})
	requireCode(t, err, CodeInvalidTime)
	_, err = f.svc.PushOtherGagState(ctx, "B", "A", 2, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockTimer, Timer: now.Add(time.Hour).UnixMilli()})
	requireCode(t, err, CodeInvalidTime)

	g, err := f.svc.PushOtherGagState(ctx, "B", "A", 2, SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockFiveMinutes})
	require.NoError(t, err)
	assert.Equal(t, now.Add(FiveMinutesLock).UnixMilli(), g.Lock.Timer)
	assert.Equal(t, "B", g.Lock.Assigner)
}

func TestPushGagState_Broadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "B", "C", "D")
	f.pair(t, "A", "B")
	f.pair(t, "A", "C")
	f.pair(t, "A", "D")
	f.online(t, "A", "B", "C")
	f.grant(t, "A", "D", func(p *model.PairPermissions) { p.IsPaused = true })
	f.grant(t, "A", "B", func(p *model.PairPermissions) { p.ApplyGags = true })
	f.online(t, "D")
	f.notes.reset()

	_, err := f.svc.PushOtherGagState(ctx, "B", "A", 0, SlotUpdate{Kind: model.UpdateApplied, Item: "ring"})
	require.NoError(t, err)

	own := f.notes.to("A", EventGagStateChanged)
	require.Len(t, own, 1)
	assert.Equal(t, model.DirectionOwn, own[0].(SlotChanged).Direction)
	assert.Equal(t, "B", own[0].(SlotChanged).Enactor)

	for _, uid := range []string{"B", "C"} {
		got := f.notes.to(uid, EventGagStateChanged)
		require.Len(t, got, 1, uid)
		assert.Equal(t, model.DirectionOther, got[0].(SlotChanged).Direction)
	}
	// paused pair is hidden
	assert.Empty(t, f.notes.to("D", EventGagStateChanged))

	_, err = f.svc.PushGagState(ctx, "A", 0, SlotUpdate{Kind: model.UpdateSwapped, Item: "bit"})
	require.NoError(t, err)
	last := f.notes.to("C", EventGagStateChanged)
	require.Len(t, last, 2)
	assert.Equal(t, "ring", last[1].(SlotChanged).PrevItem)
	assert.Equal(t, "bit", last[1].(SlotChanged).Item)
}

func TestRestraintLayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "B")
	f.pair(t, "A", "B")

	_, err := f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 1})
	requireCode(t, err, CodeNoActiveItem)

	r, err := f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateApplied, Item: "set-1"})
	require.NoError(t, err)
	assert.Zero(t, r.Layers)

	_, err = f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 1 << model.RestraintLayers})
	requireCode(t, err, CodeInvalidLayer)
	r, err = f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 0b101})
	require.NoError(t, err)
	assert.Equal(t, 0b101, r.Layers)
	_, err = f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 0b001})
	requireCode(t, err, CodeInvalidDataState)

	// pair path: adding needs ApplyLayers, removing needs RemoveLayers
	_, err = f.svc.PushOtherRestraintState(ctx, "B", "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 0b010})
	requireCode(t, err, CodeLackingPermissions)
	f.grant(t, "A", "B", func(p *model.PairPermissions) { p.ApplyLayers = true })
	r, err = f.svc.PushOtherRestraintState(ctx, "B", "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 0b010})
	require.NoError(t, err)
	assert.Equal(t, 0b111, r.Layers)
	_, err = f.svc.PushOtherRestraintState(ctx, "B", "A", SlotUpdate{Kind: model.UpdateLayersChanged, Layers: 0b110})
	requireCode(t, err, CodeLackingPermissions)

	// locked set needs the while-locked variants
	_, err = f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockMetal})
	require.NoError(t, err)
	f.grant(t, "A", "B", func(p *model.PairPermissions) { p.RemoveLayers = true })
	_, err = f.svc.PushOtherRestraintState(ctx, "B", "A", SlotUpdate{Kind: model.UpdateLayersRemoved, Layers: 0b001})
	requireCode(t, err, CodeLackingPermissions)
	f.grant(t, "A", "B", func(p *model.PairPermissions) { p.RemoveLayersWhileLocked = true })
	r, err = f.svc.PushOtherRestraintState(ctx, "B", "A", SlotUpdate{Kind: model.UpdateLayersRemoved, Layers: 0b001})
	require.NoError(t, err)
	assert.Equal(t, 0b110, r.Layers)

	_, err = f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateUnlocked})
	require.NoError(t, err)
	r, err = f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateRemoved})
	require.NoError(t, err)
	assert.Empty(t, r.Identifier)
	assert.Zero(t, r.Layers)

	stored, err := f.states.GetRestraint(ctx, "A")
	require.NoError(t, err)
	assert.Zero(t, stored.Layers)
}

func TestRestraintLayers_NeverSetWithoutIdentifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A")

	steps := []SlotUpdate{
		{Kind: model.UpdateLayersApplied, Layers: 0b11},
		{Kind: model.UpdateApplied, Item: "s1"},
		{Kind: model.UpdateLayersApplied, Layers: 0b11},
		{Kind: model.UpdateSwapped, Item: "s2"},
		{Kind: model.UpdateLayersChanged, Layers: 0b10000},
		{Kind: model.UpdateRemoved},
		{Kind: model.UpdateLayersRemoved, Layers: 0b10000},
		{Kind: model.UpdateLayersApplied, Layers: 0b1},
	}
	for i, u := range steps {
		_, _ = f.svc.PushRestraintState(ctx, "A", u)
		r, err := f.states.GetRestraint(ctx, "A")
		require.NoError(t, err)
		if r.Identifier == "" {
			assert.Zero(t, r.Layers, "step %d (%s)", i, u.Kind)
		}
	}
}

func TestRestraintLayers_DevotionalAssignerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "X")
	f.pair(t, "A", "X")
	f.grant(t, "A", "X", func(p *model.PairPermissions) {
		p.ApplyRestraintSets, p.LockRestraintSets, p.PermanentLocks, p.DevotionalLocks = true, true, true, true
		p.ApplyLayers, p.ApplyLayersWhileLocked = true, true
	})

	_, err := f.svc.PushOtherRestraintState(ctx, "X", "A", SlotUpdate{Kind: model.UpdateApplied, Item: "harness"})
	require.NoError(t, err)
	_, err = f.svc.PushOtherRestraintState(ctx, "X", "A", SlotUpdate{Kind: model.UpdateLocked, Padlock: model.PadlockDevotional})
	require.NoError(t, err)

	_, err = f.svc.PushRestraintState(ctx, "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 1})
	requireCode(t, err, CodeNotItemAssigner)
	r, err := f.svc.PushOtherRestraintState(ctx, "X", "A", SlotUpdate{Kind: model.UpdateLayersApplied, Layers: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Layers)
}

func TestCollarMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users(t, "A", "O", "P")
	f.pair(t, "A", "O")
	f.pair(t, "A", "P")

	_, err := f.svc.PushCollarState(ctx, "A", CollarUpdate{Kind: model.UpdateCollarWritingChange, Writing: "x"})
	requireCode(t, err, CodeNoActiveItem)

	_, err = f.svc.SendCollarRequest(ctx, "O", "A", CollarOffer{
		Writing:        "property of O",
		OwnerAccess:    model.CollarAccessWriting | model.CollarAccessDyes,
		CollaredAccess: model.CollarAccessVisuals,
	})
	require.NoError(t, err)
	c, err := f.svc.AcceptCollarRequest(ctx, "A", "O")
	require.NoError(t, err)
	assert.True(t, c.HasOwner("O"))
	assert.Equal(t, "property of O", c.Writing)

	// wearer: visuals only
	c, err = f.svc.PushCollarState(ctx, "A", CollarUpdate{Kind: model.UpdateVisibilityChange, Visuals: false})
	require.NoError(t, err)
	assert.False(t, c.Visuals)
	_, err = f.svc.PushCollarState(ctx, "A", CollarUpdate{Kind: model.UpdateCollarWritingChange, Writing: "free"})
	requireCode(t, err, CodeLackingPermissions)

	// owner: writing and dyes
	c, err = f.svc.PushOtherCollarState(ctx, "O", "A", CollarUpdate{Kind: model.UpdateDyesChange, Dye1: 3, Dye2: 7})
	require.NoError(t, err)
	assert.EqualValues(t, 3, c.Dye1)
	_, err = f.svc.PushOtherCollarState(ctx, "O", "A", CollarUpdate{Kind: model.UpdateVisibilityChange, Visuals: true})
	requireCode(t, err, CodeLackingPermissions)
	_, err = f.svc.PushOtherCollarState(ctx, "O", "A", CollarUpdate{Kind: model.UpdateCollarMoodleChange})
	requireCode(t, err, CodeLackingPermissions)

	// paired non-owner
	_, err = f.svc.PushOtherCollarState(ctx, "P", "A", CollarUpdate{Kind: model.UpdateCollarWritingChange, Writing: "mine"})
	requireCode(t, err, CodeNotCollarOwner)
	_, err = f.svc.PushOtherCollarState(ctx, "P", "A", CollarUpdate{Kind: model.UpdateCollarRemoved})
	requireCode(t, err, CodeNotCollarOwner)
	_, err = f.svc.PushOtherCollarState(ctx, "P", "A", CollarUpdate{Kind: model.UpdateLocked})
	requireCode(t, err, CodeBadUpdateKind)

	// the wearer can always take it off
	f.notes.reset()
	c, err = f.svc.PushCollarState(ctx, "A", CollarUpdate{Kind: model.UpdateCollarRemoved})
	require.NoError(t, err)
	assert.False(t, c.Active())
	assert.Empty(t, c.Writing)
	assert.True(t, c.Visuals)

	stored, err := f.states.GetCollar(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, stored.Owners)
	assert.Zero(t, stored.OwnerEditAccess)

	got := f.notes.to("O", EventCollarStateChanged)
	require.Len(t, got, 1)
	ev := got[0].(CollarChanged)
	assert.Equal(t, model.UpdateCollarRemoved, ev.Kind)
	assert.True(t, ev.Previous.HasOwner("O"))
}

func TestCanUnlock(t *testing.T) {
	cases := []struct {
		name               string
		lock               model.LockState
		password, caller   string
		ownerOv, devotedOv bool
		want               Code
	}{
		{"not locked", model.LockState{}, "", "A", false, false, CodeNotCurrentlyLocked},
		{"metal", model.LockState{Padlock: model.PadlockMetal, Assigner: "X"}, "", "A", false, false, CodeSuccess},
		{"password ok", model.LockState{Padlock: model.PadlockPassword, Password: "pw", Assigner: "X"}, "pw", "A", false, false, CodeSuccess},
		{"password wrong", model.LockState{Padlock: model.PadlockTimerPassword, Password: "pw", Assigner: "X"}, "no", "X", false, false, CodeInvalidPassword},
		{"owner by assigner", model.LockState{Padlock: model.PadlockOwner, Assigner: "X"}, "", "X", false, false, CodeSuccess},
		{"owner by other", model.LockState{Padlock: model.PadlockOwnerTimer, Assigner: "X"}, "", "A", false, false, CodeNotItemAssigner},
		{"owner with override", model.LockState{Padlock: model.PadlockOwner, Assigner: "X"}, "", "A", true, false, CodeSuccess},
		{"devotional owner override is not enough", model.LockState{Padlock: model.PadlockDevotional, Assigner: "X"}, "", "A", true, false, CodeNotItemAssigner},
		{"devotional with override", model.LockState{Padlock: model.PadlockDevotionalTimer, Assigner: "X"}, "", "A", false, true, CodeSuccess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanUnlock(tc.lock, tc.password, tc.caller, tc.ownerOv, tc.devotedOv)
			assert.Equal(t, tc.want, CodeOf(err))
		})
	}
}
