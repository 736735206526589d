package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"KinkLink/internal/model"
)

// fieldSpec describes one named, settable field of a permission record T.
// ref returns a pointer to the field: *bool, *int, *time.Duration or
// *string. access, when set, returns the grant that lets a pair edit the
// field remotely; fields without it are owner-only.
type fieldSpec[T any] struct {
	name   string
	ref    func(*T) any
	access func(*model.PairPermissionAccess) *bool
}

type fieldTable[T any] map[string]fieldSpec[T]

func newFieldTable[T any](specs ...fieldSpec[T]) fieldTable[T] {
	t := make(fieldTable[T], len(specs))
	for _, s := range specs {
		t[normalizeField(s.name)] = s
	}
	return t
}

// lookup accepts snake_case and CamelCase spellings.
func (t fieldTable[T]) lookup(name string) (fieldSpec[T], bool) {
	s, ok := t[normalizeField(name)]
	return s, ok
}

func normalizeField(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
}

type (
	globalField = fieldSpec[model.GlobalPermissions]
	pairField   = fieldSpec[model.PairPermissions]
	permAccess  = model.PairPermissionAccess
)

var globalFields = newFieldTable(
	globalField{"safeword_used", func(g *model.GlobalPermissions) any { return &g.SafewordUsed }, nil},
	globalField{"allowed_garbler_channels", func(g *model.GlobalPermissions) any { return &g.AllowedGarblerChannels }, nil},
	globalField{"chat_garbler_active", func(g *model.GlobalPermissions) any { return &g.ChatGarblerActive },
		func(a *permAccess) *bool { return &a.ChatGarblerActiveAllowed }},
	globalField{"chat_garbler_locked", func(g *model.GlobalPermissions) any { return &g.ChatGarblerLocked },
		func(a *permAccess) *bool { return &a.ChatGarblerLockedAllowed }},
	globalField{"gagged_nameplate", func(g *model.GlobalPermissions) any { return &g.GaggedNameplate },
		func(a *permAccess) *bool { return &a.GaggedNameplateAllowed }},
	globalField{"wardrobe_enabled", func(g *model.GlobalPermissions) any { return &g.WardrobeEnabled },
		func(a *permAccess) *bool { return &a.WardrobeEnabledAllowed }},
	globalField{"gag_visuals", func(g *model.GlobalPermissions) any { return &g.GagVisuals },
		func(a *permAccess) *bool { return &a.GagVisualsAllowed }},
	globalField{"restriction_visuals", func(g *model.GlobalPermissions) any { return &g.RestrictionVisuals },
		func(a *permAccess) *bool { return &a.RestrictionVisualsAllowed }},
	globalField{"restraint_set_visuals", func(g *model.GlobalPermissions) any { return &g.RestraintSetVisuals },
		func(a *permAccess) *bool { return &a.RestraintSetVisualsAllowed }},
	globalField{"puppeteer_enabled", func(g *model.GlobalPermissions) any { return &g.PuppeteerEnabled },
		func(a *permAccess) *bool { return &a.PuppeteerEnabledAllowed }},
	globalField{"trigger_phrase", func(g *model.GlobalPermissions) any { return &g.TriggerPhrase }, nil},
	globalField{"puppet_perms", func(g *model.GlobalPermissions) any { return &g.PuppetPerms }, nil},
	globalField{"toybox_enabled", func(g *model.GlobalPermissions) any { return &g.ToyboxEnabled },
		func(a *permAccess) *bool { return &a.ToyboxEnabledAllowed }},
	globalField{"lock_toybox_ui", func(g *model.GlobalPermissions) any { return &g.LockToyboxUI }, nil},
	globalField{"spatial_audio", func(g *model.GlobalPermissions) any { return &g.SpatialAudio }, nil},
)

// fieldIsPaused is special-cased by the pause transition.
const fieldIsPaused = "is_paused"

var pairFields = newFieldTable(
	pairField{fieldIsPaused, func(p *model.PairPermissions) any { return &p.IsPaused }, nil},

	pairField{"permanent_locks", func(p *model.PairPermissions) any { return &p.PermanentLocks },
		func(a *permAccess) *bool { return &a.PermanentLocksAllowed }},
	pairField{"owner_locks", func(p *model.PairPermissions) any { return &p.OwnerLocks },
		func(a *permAccess) *bool { return &a.OwnerLocksAllowed }},
	pairField{"devotional_locks", func(p *model.PairPermissions) any { return &p.DevotionalLocks },
		func(a *permAccess) *bool { return &a.DevotionalLocksAllowed }},

	pairField{"apply_gags", func(p *model.PairPermissions) any { return &p.ApplyGags },
		func(a *permAccess) *bool { return &a.ApplyGagsAllowed }},
	pairField{"lock_gags", func(p *model.PairPermissions) any { return &p.LockGags },
		func(a *permAccess) *bool { return &a.LockGagsAllowed }},
	pairField{"max_gag_time", func(p *model.PairPermissions) any { return &p.MaxGagTime },
		func(a *permAccess) *bool { return &a.MaxGagTimeAllowed }},
	pairField{"unlock_gags", func(p *model.PairPermissions) any { return &p.UnlockGags },
		func(a *permAccess) *bool { return &a.UnlockGagsAllowed }},
	pairField{"remove_gags", func(p *model.PairPermissions) any { return &p.RemoveGags },
		func(a *permAccess) *bool { return &a.RemoveGagsAllowed }},

	pairField{"apply_restrictions", func(p *model.PairPermissions) any { return &p.ApplyRestrictions },
		func(a *permAccess) *bool { return &a.ApplyRestrictionsAllowed }},
	pairField{"lock_restrictions", func(p *model.PairPermissions) any { return &p.LockRestrictions },
		func(a *permAccess) *bool { return &a.LockRestrictionsAllowed }},
	pairField{"max_restriction_time", func(p *model.PairPermissions) any { return &p.MaxRestrictionTime },
		func(a *permAccess) *bool { return &a.MaxRestrictionTimeAllowed }},
	pairField{"unlock_restrictions", func(p *model.PairPermissions) any { return &p.UnlockRestrictions },
		func(a *permAccess) *bool { return &a.UnlockRestrictionsAllowed }},
	pairField{"remove_restrictions", func(p *model.PairPermissions) any { return &p.RemoveRestrictions },
		func(a *permAccess) *bool { return &a.RemoveRestrictionsAllowed }},

	pairField{"apply_restraint_sets", func(p *model.PairPermissions) any { return &p.ApplyRestraintSets },
		func(a *permAccess) *bool { return &a.ApplyRestraintSetsAllowed }},
	pairField{"apply_layers", func(p *model.PairPermissions) any { return &p.ApplyLayers },
		func(a *permAccess) *bool { return &a.ApplyLayersAllowed }},
	pairField{"apply_layers_while_locked", func(p *model.PairPermissions) any { return &p.ApplyLayersWhileLocked },
		func(a *permAccess) *bool { return &a.ApplyLayersWhileLockedAllowed }},
	pairField{"lock_restraint_sets", func(p *model.PairPermissions) any { return &p.LockRestraintSets },
		func(a *permAccess) *bool { return &a.LockRestraintSetsAllowed }},
	pairField{"max_restraint_time", func(p *model.PairPermissions) any { return &p.MaxRestraintTime },
		func(a *permAccess) *bool { return &a.MaxRestraintTimeAllowed }},
	pairField{"unlock_restraint_sets", func(p *model.PairPermissions) any { return &p.UnlockRestraintSets },
		func(a *permAccess) *bool { return &a.UnlockRestraintSetsAllowed }},
	pairField{"remove_layers", func(p *model.PairPermissions) any { return &p.RemoveLayers },
		func(a *permAccess) *bool { return &a.RemoveLayersAllowed }},
	pairField{"remove_layers_while_locked", func(p *model.PairPermissions) any { return &p.RemoveLayersWhileLocked },
		func(a *permAccess) *bool { return &a.RemoveLayersWhileLockedAllowed }},
	pairField{"remove_restraint_sets", func(p *model.PairPermissions) any { return &p.RemoveRestraintSets },
		func(a *permAccess) *bool { return &a.RemoveRestraintSetsAllowed }},

	pairField{"trigger_phrase", func(p *model.PairPermissions) any { return &p.TriggerPhrase }, nil},
	pairField{"puppet_perms", func(p *model.PairPermissions) any { return &p.PuppetPerms },
		func(a *permAccess) *bool { return &a.PuppetPermsAllowed }},

	// hardcore allowances are never remotely editable
	pairField{"devotional_states", func(p *model.PairPermissions) any { return &p.DevotionalStates }, nil},
	pairField{"allow_locked_following", func(p *model.PairPermissions) any { return &p.AllowLockedFollowing }, nil},
	pairField{"allow_locked_emoting", func(p *model.PairPermissions) any { return &p.AllowLockedEmoting }, nil},
	pairField{"allow_indoor_confinement", func(p *model.PairPermissions) any { return &p.AllowIndoorConfinement }, nil},
	pairField{"allow_imprisonment", func(p *model.PairPermissions) any { return &p.AllowImprisonment }, nil},
	pairField{"allow_hiding_chat_boxes", func(p *model.PairPermissions) any { return &p.AllowHidingChatBoxes }, nil},
	pairField{"allow_hiding_chat_input", func(p *model.PairPermissions) any { return &p.AllowHidingChatInput }, nil},
	pairField{"allow_chat_input_blocking", func(p *model.PairPermissions) any { return &p.AllowChatInputBlocking }, nil},
	pairField{"allow_hypno_effect_sending", func(p *model.PairPermissions) any { return &p.AllowHypnoEffectSending }, nil},
	pairField{"allow_hypno_image_sending", func(p *model.PairPermissions) any { return &p.AllowHypnoImageSending }, nil},
)

// accessField resolves the edit-access grant named by field. Both the grant
// name ("apply_gags_allowed") and the field it guards ("apply_gags") work.
func accessField(field string) (name string, ref func(*permAccess) *bool, ok bool) {
	base := strings.TrimSuffix(normalizeField(field), "allowed")
	if s, found := pairFields[base]; found && s.access != nil {
		return s.name + "_allowed", s.access, true
	}
	if s, found := globalFields[base]; found && s.access != nil {
		return s.name + "_allowed", s.access, true
	}
	return "", nil, false
}

// assign coerces value into the field behind ref. Values arrive from JSON
// (bool, float64, string) or CBOR (bool, int64, uint64, float, string).
func assign(ref any, value any) error {
	switch p := ref.(type) {
	case *bool:
		v, ok := coerceBool(value)
		if !ok {
			return reject(CodeIncorrectDataType, "want bool, got %T", value)
		}
		*p = v
	case *int:
		v, ok := coerceInt(value)
		if !ok {
			return reject(CodeIncorrectDataType, "want integer, got %T", value)
		}
		*p = v
	case *time.Duration:
		v, ok := coerceDuration(value)
		if !ok {
			return reject(CodeIncorrectDataType, "want duration, got %T", value)
		}
		*p = v
	case *string:
		v, ok := value.(string)
		if !ok {
			return reject(CodeIncorrectDataType, "want string, got %T", value)
		}
		*p = v
	default:
		return reject(CodeIncorrectDataType, "unsupported field type %T", ref)
	}
	return nil
}

// current returns the value behind ref.
func current(ref any) any {
	switch p := ref.(type) {
	case *bool:
		return *p
	case *int:
		return *p
	case *time.Duration:
		return *p
	case *string:
		return *p
	}
	return nil
}

func coerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(x)
		return b, err == nil
	}
	return false, false
}

func coerceInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		if x > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	}
	return 0, false
}

// coerceDuration accepts Go duration strings ("90m") or a number of seconds.
func coerceDuration(v any) (time.Duration, bool) {
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return 0, false
		}
		return d, true
	}
	var secs float64
	switch x := v.(type) {
	case int:
		secs = float64(x)
	case int64:
		secs = float64(x)
	case uint64:
		secs = float64(x)
	case float64:
		secs = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		secs = f
	default:
		return 0, false
	}
	if secs < 0 || math.IsNaN(secs) || secs > math.MaxInt64/float64(time.Second) {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}
