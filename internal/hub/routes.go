package hub

import (
	"context"
	"errors"

	"KinkLink/internal/model"
	"KinkLink/internal/service"
	"KinkLink/internal/wire"
)

// handler serves one RPC method for the connection's user.
type handler func(ctx context.Context, c *Conn, f wire.Frame) (any, error)

// Call arguments. UID always names the other user of the call.
type (
	UIDArgs struct {
		UID string `json:"uid"`
	}
	PairRequestArgs struct {
		UID     string `json:"uid"`
		Message string `json:"message,omitempty"`
	}
	CollarRequestArgs struct {
		UID   string              `json:"uid"`
		Offer service.CollarOffer `json:"offer"`
	}
	FieldArgs struct {
		UID   string `json:"uid,omitempty"`
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	BulkGlobalArgs struct {
		Globals model.GlobalPermissions `json:"globals"`
	}
	BulkPairArgs struct {
		UID    string                     `json:"uid"`
		Perms  model.PairPermissions      `json:"perms"`
		Access model.PairPermissionAccess `json:"access"`
	}
	SlotArgs struct {
		UID    string             `json:"uid,omitempty"`
		Layer  int                `json:"layer"`
		Update service.SlotUpdate `json:"update"`
	}
	CollarArgs struct {
		UID    string               `json:"uid,omitempty"`
		Update service.CollarUpdate `json:"update"`
	}
	HardcoreArgs struct {
		UID       string                 `json:"uid,omitempty"`
		Attribute model.Attribute        `json:"attribute"`
		Change    service.HardcoreChange `json:"change"`
	}
)

// Method names of the RPC surface.
const (
	MethodSendPairingRequest           = "SendPairingRequest"
	MethodCancelPairingRequest         = "CancelPairingRequest"
	MethodAcceptPairingRequest         = "AcceptPairingRequest"
	MethodRejectPairingRequest         = "RejectPairingRequest"
	MethodRemovePair                   = "RemovePair"
	MethodGetActiveRequests            = "GetActiveRequests"
	MethodSendCollarRequest            = "SendCollarRequest"
	MethodAcceptCollarRequest          = "AcceptCollarRequest"
	MethodRejectCollarRequest          = "RejectCollarRequest"
	MethodCancelCollarRequest          = "CancelCollarRequest"
	MethodChangeOwnGlobalPermission    = "ChangeOwnGlobalPermission"
	MethodChangeOtherGlobalPermission  = "ChangeOtherGlobalPermission"
	MethodChangeOwnPairPermission      = "ChangeOwnPairPermission"
	MethodChangeOtherPairPermission    = "ChangeOtherPairPermission"
	MethodChangeEditAccess             = "ChangeEditAccess"
	MethodBulkChangeGlobal             = "BulkChangeGlobal"
	MethodBulkChangePair               = "BulkChangePair"
	MethodPushGagState                 = "PushGagState"
	MethodPushRestrictionState         = "PushRestrictionState"
	MethodPushRestraintState           = "PushRestraintState"
	MethodPushCollarState              = "PushCollarState"
	MethodPushOtherGagState            = "PushOtherGagState"
	MethodPushOtherRestrictionState    = "PushOtherRestrictionState"
	MethodPushOtherRestraintState      = "PushOtherRestraintState"
	MethodPushOtherCollarState         = "PushOtherCollarState"
	MethodChangeOtherHardcoreAttribute = "ChangeOtherHardcoreAttribute"
	MethodAttributeExpired             = "AttributeExpired"
	MethodGetOnlinePairs               = "GetOnlinePairs"
	MethodGetPairedClients             = "GetPairedClients"
	MethodGetConnectionSnapshot        = "GetConnectionSnapshot"
	MethodHealthCheck                  = "HealthCheck"
)

// withArgs decodes the call payload into A before running fn.
func withArgs[A any](fn func(ctx context.Context, caller string, args A) (any, error)) handler {
	return func(ctx context.Context, c *Conn, f wire.Frame) (any, error) {
		var args A
		if err := wire.DecodeData(c.codec, f, &args); err != nil {
			if errors.Is(err, wire.ErrEmptyPayload) {
				return nil, &service.Error{Code: service.CodeNullData, Msg: f.Method + ": missing arguments"}
			}
			return nil, &service.Error{Code: service.CodeIncorrectDataType, Msg: err.Error()}
		}
		return fn(ctx, c.UID, args)
	}
}

func noArgs(fn func(ctx context.Context, caller string) (any, error)) handler {
	return func(ctx context.Context, c *Conn, _ wire.Frame) (any, error) {
		return fn(ctx, c.UID)
	}
}

func done(err error) (any, error) { return nil, err }

func (h *Hub) routeTable() map[string]handler {
	s := h.svc
	return map[string]handler{
		// pairing
		MethodSendPairingRequest: withArgs(func(ctx context.Context, caller string, a PairRequestArgs) (any, error) {
			return s.SendPairingRequest(ctx, caller, a.UID, a.Message)
		}),
		MethodCancelPairingRequest: withArgs(func(ctx context.Context, caller string, a UIDArgs) (any, error) {
			return done(s.CancelPairingRequest(ctx, caller, a.UID))
		}),
		MethodAcceptPairingRequest: withArgs(func(ctx context.Context, caller string, a UIDArgs) (any, error) {
			return done(s.AcceptPairingRequest(ctx, caller, a.UID))
		}),
		MethodRejectPairingRequest: withArgs(func(ctx context.Context, caller string, a UIDArgs) (any, error) {
			return done(s.RejectPairingRequest(ctx, caller, a.UID))
		}),
		MethodRemovePair: withArgs(func(ctx context.Context, caller string, a UIDArgs) (any, error) {
			return done(s.RemovePair(ctx, caller, a.UID))
		}),
		MethodGetActiveRequests: noArgs(func(ctx context.Context, caller string) (any, error) {
			return s.GetActiveRequests(ctx, caller)
		}),
		MethodSendCollarRequest: withArgs(func(ctx context.Context, caller string, a CollarRequestArgs) (any, error) {
			return s.SendCollarRequest(ctx, caller, a.UID, a.Offer)
		}),
		MethodAcceptCollarRequest: withArgs(func(ctx context.Context, caller string, a UIDArgs) (any, error) {
			return s.AcceptCollarRequest(ctx, caller, a.UID)
		}),
		MethodRejectCollarRequest: withArgs(func(ctx context.Context, caller string, a UIDArgs) (any, error) {
			return done(s.RejectCollarRequest(ctx, caller, a.UID))
		}),
		MethodCancelCollarRequest: withArgs(func(ctx context.Context, caller string, a UIDArgs) (any, error) {
			return done(s.CancelCollarRequest(ctx, caller, a.UID))
		}),

		// permissions
		MethodChangeOwnGlobalPermission: withArgs(func(ctx context.Context, caller string, a FieldArgs) (any, error) {
			return s.ChangeOwnGlobalPermission(ctx, caller, a.Field, a.Value)
		}),
		MethodChangeOtherGlobalPermission: withArgs(func(ctx context.Context, caller string, a FieldArgs) (any, error) {
			return s.ChangeOtherGlobalPermission(ctx, caller, a.UID, a.Field, a.Value)
		}),
		MethodChangeOwnPairPermission: withArgs(func(ctx context.Context, caller string, a FieldArgs) (any, error) {
			return s.ChangeOwnPairPermission(ctx, caller, a.UID, a.Field, a.Value)
		}),
		MethodChangeOtherPairPermission: withArgs(func(ctx context.Context, caller string, a FieldArgs) (any, error) {
			return s.ChangeOtherPairPermission(ctx, caller, a.UID, a.Field, a.Value)
		}),
		MethodChangeEditAccess: withArgs(func(ctx context.Context, caller string, a FieldArgs) (any, error) {
			return s.ChangeEditAccess(ctx, caller, a.UID, a.Field, a.Value)
		}),
		MethodBulkChangeGlobal: withArgs(func(ctx context.Context, caller string, a BulkGlobalArgs) (any, error) {
			return s.BulkChangeGlobal(ctx, caller, a.Globals)
		}),
		MethodBulkChangePair: withArgs(func(ctx context.Context, caller string, a BulkPairArgs) (any, error) {
			return done(s.BulkChangePair(ctx, caller, a.UID, a.Perms, a.Access))
		}),

		// active state
		MethodPushGagState: withArgs(func(ctx context.Context, caller string, a SlotArgs) (any, error) {
			return s.PushGagState(ctx, caller, a.Layer, a.Update)
		}),
		MethodPushOtherGagState: withArgs(func(ctx context.Context, caller string, a SlotArgs) (any, error) {
			return s.PushOtherGagState(ctx, caller, a.UID, a.Layer, a.Update)
		}),
		MethodPushRestrictionState: withArgs(func(ctx context.Context, caller string, a SlotArgs) (any, error) {
			return s.PushRestrictionState(ctx, caller, a.Layer, a.Update)
		}),
		MethodPushOtherRestrictionState: withArgs(func(ctx context.Context, caller string, a SlotArgs) (any, error) {
			return s.PushOtherRestrictionState(ctx, caller, a.UID, a.Layer, a.Update)
		}),
		MethodPushRestraintState: withArgs(func(ctx context.Context, caller string, a SlotArgs) (any, error) {
			return s.PushRestraintState(ctx, caller, a.Update)
		}),
		MethodPushOtherRestraintState: withArgs(func(ctx context.Context, caller string, a SlotArgs) (any, error) {
			return s.PushOtherRestraintState(ctx, caller, a.UID, a.Update)
		}),
		MethodPushCollarState: withArgs(func(ctx context.Context, caller string, a CollarArgs) (any, error) {
			return s.PushCollarState(ctx, caller, a.Update)
		}),
		MethodPushOtherCollarState: withArgs(func(ctx context.Context, caller string, a CollarArgs) (any, error) {
			return s.PushOtherCollarState(ctx, caller, a.UID, a.Update)
		}),

		// hardcore
		MethodChangeOtherHardcoreAttribute: withArgs(func(ctx context.Context, caller string, a HardcoreArgs) (any, error) {
			return s.ChangeOtherHardcoreAttribute(ctx, caller, a.UID, a.Attribute, a.Change)
		}),
		MethodAttributeExpired: withArgs(func(ctx context.Context, caller string, a HardcoreArgs) (any, error) {
			return s.AttributeExpired(ctx, caller, a.Attribute)
		}),

		// queries
		MethodGetOnlinePairs: noArgs(func(ctx context.Context, caller string) (any, error) {
			return s.GetOnlinePairs(ctx, caller)
		}),
		MethodGetPairedClients: noArgs(func(ctx context.Context, caller string) (any, error) {
			return s.GetPairedClients(ctx, caller)
		}),
		MethodGetConnectionSnapshot: noArgs(func(ctx context.Context, caller string) (any, error) {
			return s.GetConnectionSnapshot(ctx, caller)
		}),
		MethodHealthCheck: func(ctx context.Context, c *Conn, _ wire.Frame) (any, error) {
			return done(s.HealthCheck(ctx, c.UID, c.Identity))
		},
	}
}

// Methods lists the routed method names.
func (h *Hub) Methods() []string {
	out := make([]string, 0, len(h.routes))
	for m := range h.routes {
		out = append(out, m)
	}
	return out
}
