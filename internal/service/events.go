package service

import (
	"KinkLink/internal/model"
)

// Push event names.
const (
	EventPairOnline              = "PairOnline"
	EventPairOffline             = "PairOffline"
	EventAddPair                 = "AddPair"
	EventRemovePair              = "RemovePair"
	EventAddPairRequest          = "AddPairRequest"
	EventRemovePairRequest       = "RemovePairRequest"
	EventAddCollarRequest        = "AddCollarRequest"
	EventRemoveCollarRequest     = "RemoveCollarRequest"
	EventCollarOwnersChanged     = "CollarOwnersChanged"
	EventGlobalPermChanged       = "GlobalPermChanged"
	EventPairPermChanged         = "PairPermChanged"
	EventEditAccessChanged       = "EditAccessChanged"
	EventBulkPermsChanged        = "BulkPermsChanged"
	EventGagStateChanged         = "GagStateChanged"
	EventRestrictionStateChanged = "RestrictionStateChanged"
	EventRestraintStateChanged   = "RestraintStateChanged"
	EventCollarStateChanged      = "CollarStateChanged"
	EventHardcoreStateChanged    = "HardcoreStateChanged"
)

// Notifier delivers push events. Notify must not block on the network;
// delivery to an offline UID is silently dropped.
type Notifier interface {
	Notify(uid, event string, payload any)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string, any) {}

// PairPresence — a pair coming online or going offline.
type PairPresence struct {
	UID      string `json:"uid"`
	Identity string `json:"identity,omitempty"`
}

// PairRemoved tells the receiver to drop UID locally.
type PairRemoved struct {
	UID string `json:"uid"`
}

// CollarOwnersChanged — the owner list of User changed.
type CollarOwnersChanged struct {
	User   string              `json:"user"`
	Owners []model.CollarOwner `json:"owners"`
	Collar model.ActiveCollar  `json:"collar"`
}

// PermChanged — one field changed. For global permissions Other is empty.
type PermChanged struct {
	User    string `json:"user"`
	Other   string `json:"other,omitempty"`
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Enactor string `json:"enactor"`
}

// BulkPermsChanged — a whole bundle was replaced.
type BulkPermsChanged struct {
	User    string                      `json:"user"`
	Other   string                      `json:"other,omitempty"`
	Globals *model.GlobalPermissions    `json:"globals,omitempty"`
	Perms   *model.PairPermissions      `json:"perms,omitempty"`
	Access  *model.PairPermissionAccess `json:"access,omitempty"`
	Enactor string                      `json:"enactor"`
}

// SlotChanged — a gag or restriction layer changed.
type SlotChanged struct {
	User        string           `json:"user"`
	Layer       int              `json:"layer"`
	Kind        model.UpdateKind `json:"kind"`
	Direction   model.Direction  `json:"direction"`
	Enactor     string           `json:"enactor"`
	Item        string           `json:"item"`
	Enabler     string           `json:"enabler"`
	Lock        model.LockState  `json:"lock"`
	PrevItem    string           `json:"prev_item"`
	PrevPadlock model.Padlock    `json:"prev_padlock"`
}

// RestraintChanged — the restraint set changed.
type RestraintChanged struct {
	User        string                `json:"user"`
	Kind        model.UpdateKind      `json:"kind"`
	Direction   model.Direction       `json:"direction"`
	Enactor     string                `json:"enactor"`
	State       model.ActiveRestraint `json:"state"`
	PrevItem    string                `json:"prev_item"`
	PrevPadlock model.Padlock         `json:"prev_padlock"`
	PrevLayers  int                   `json:"prev_layers"`
}

// CollarChanged — a collar attribute changed or the collar was removed.
type CollarChanged struct {
	User      string             `json:"user"`
	Kind      model.UpdateKind   `json:"kind"`
	Direction model.Direction    `json:"direction"`
	Enactor   string             `json:"enactor"`
	State     model.ActiveCollar `json:"state"`
	Previous  model.ActiveCollar `json:"previous"`
}

// HardcoreChanged carries the full hardcore status of User.
type HardcoreChanged struct {
	User      string              `json:"user"`
	Attribute model.Attribute     `json:"attribute"`
	Direction model.Direction     `json:"direction"`
	Enactor   string              `json:"enactor"`
	State     model.HardcoreState `json:"state"`
}

// PairAdded — a pairing was accepted. Perms is what the receiver grants UID,
// TheirPerms what UID grants the receiver.
type PairAdded struct {
	UID        string                 `json:"uid"`
	Perms      *model.PairPermissions `json:"perms,omitempty"`
	TheirPerms *model.PairPermissions `json:"their_perms,omitempty"`
}
