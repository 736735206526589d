package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attribute — one hardcore behavioral attribute.
type Attribute uint8

const (
	AttributeNone Attribute = iota
	AttributeFollow
	AttributeEmoteState
	AttributeConfinement
	AttributeImprisonment
	AttributeHiddenChatBox
	AttributeHiddenChatInput
	AttributeBlockedChatInput
	AttributeHypnoticEffect
)

var attributeNames = [...]string{
	AttributeNone:             "None",
	AttributeFollow:           "Follow",
	AttributeEmoteState:       "EmoteState",
	AttributeConfinement:      "Confinement",
	AttributeImprisonment:     "Imprisonment",
	AttributeHiddenChatBox:    "HiddenChatBox",
	AttributeHiddenChatInput:  "HiddenChatInput",
	AttributeBlockedChatInput: "BlockedChatInput",
	AttributeHypnoticEffect:   "HypnoticEffect",
}

func (a Attribute) String() string {
	if int(a) < len(attributeNames) {
		return attributeNames[a]
	}
	return fmt.Sprintf("Attribute(%d)", uint8(a))
}

// Valid reports whether a names a settable attribute.
func (a Attribute) Valid() bool { return a != AttributeNone && int(a) < len(attributeNames) }

func (a Attribute) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText maps unknown names to AttributeNone.
func (a *Attribute) UnmarshalText(b []byte) error {
	*a = AttributeNone
	for i, name := range attributeNames {
		if strings.EqualFold(name, string(b)) {
			*a = Attribute(i)
			return nil
		}
	}
	return nil
}

// StrictToggle: attributes whose presence must alternate on every change.
func (a Attribute) StrictToggle() bool {
	switch a {
	case AttributeFollow, AttributeConfinement, AttributeHiddenChatBox, AttributeHiddenChatInput, AttributeBlockedChatInput:
		return true
	}
	return false
}

// AttributeGrant — active state of one attribute. An empty Enactor means
// inactive.
type AttributeGrant struct {
	Enactor    string    `gorm:"type:varchar(64);not null;default:''" json:"enactor"`
	Devotional bool      `gorm:"not null;default:false" json:"devotional"`
	Expires    time.Time `json:"expires"`
}

// Active reports whether the attribute is currently held.
func (g AttributeGrant) Active() bool { return g.Enactor != "" }

// Vec3 — a world position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HypnoticEffect — display parameters of a hypnosis effect.
type HypnoticEffect struct {
	Attributes    int      `json:"attributes"`
	Duration      int64    `json:"duration"` // millis
	SpinSpeed     float64  `json:"spin_speed"`
	TintColor     uint32   `json:"tint_color"`
	TextColor     uint32   `json:"text_color"`
	DisplayPhrase []string `json:"display_phrase,omitempty"`
}

// HardcoreState — per-user hardcore attributes with their payloads.
type HardcoreState struct {
	UID string `gorm:"primaryKey;type:varchar(64)" json:"uid"`

	Follow AttributeGrant `gorm:"embedded;embeddedPrefix:follow_" json:"follow"`

	Emote     AttributeGrant `gorm:"embedded;embeddedPrefix:emote_" json:"emote"`
	EmoteID   int            `gorm:"not null;default:0" json:"emote_id"`
	CyclePose int            `gorm:"not null;default:0" json:"cycle_pose"`

	Confinement        AttributeGrant `gorm:"embedded;embeddedPrefix:confinement_" json:"confinement"`
	ConfinementAddress string         `gorm:"type:text;not null;default:''" json:"confinement_address"`

	Imprisonment      AttributeGrant `gorm:"embedded;embeddedPrefix:imprisonment_" json:"imprisonment"`
	ImprisonTerritory int            `gorm:"not null;default:0" json:"imprison_territory"`
	ImprisonPosition  Vec3           `gorm:"embedded;embeddedPrefix:imprison_" json:"imprison_position"`
	ImprisonRadius    float64        `gorm:"not null;default:0" json:"imprison_radius"`

	HiddenChatBox    AttributeGrant `gorm:"embedded;embeddedPrefix:hidden_chat_box_" json:"hidden_chat_box"`
	HiddenChatInput  AttributeGrant `gorm:"embedded;embeddedPrefix:hidden_chat_input_" json:"hidden_chat_input"`
	BlockedChatInput AttributeGrant `gorm:"embedded;embeddedPrefix:blocked_chat_input_" json:"blocked_chat_input"`

	Hypnosis    AttributeGrant                     `gorm:"embedded;embeddedPrefix:hypnosis_" json:"hypnosis"`
	HypnoData   datatypes.JSONType[HypnoticEffect] `gorm:"column:hypno_effect" json:"-"`
	HypnoEffect *HypnoticEffect                    `gorm:"-" json:"hypno_effect,omitempty"`
	HypnoImage  string                             `gorm:"type:text;not null;default:''" json:"hypno_image,omitempty"`

	Version int64 `gorm:"not null;default:0" json:"-"`
}

// Grant returns the grant record of attribute a, or nil for AttributeNone.
func (h *HardcoreState) Grant(a Attribute) *AttributeGrant {
	switch a {
	case AttributeFollow:
		return &h.Follow
	case AttributeEmoteState:
		return &h.Emote
	case AttributeConfinement:
		return &h.Confinement
	case AttributeImprisonment:
		return &h.Imprisonment
	case AttributeHiddenChatBox:
		return &h.HiddenChatBox
	case AttributeHiddenChatInput:
		return &h.HiddenChatInput
	case AttributeBlockedChatInput:
		return &h.BlockedChatInput
	case AttributeHypnoticEffect:
		return &h.Hypnosis
	}
	return nil
}

// ClearPayload resets the attribute-specific payload of a.
func (h *HardcoreState) ClearPayload(a Attribute) {
	switch a {
	case AttributeEmoteState:
		h.EmoteID, h.CyclePose = 0, 0
	case AttributeConfinement:
		h.ConfinementAddress = ""
	case AttributeImprisonment:
		h.ImprisonTerritory, h.ImprisonPosition, h.ImprisonRadius = 0, Vec3{}, 0
	case AttributeHypnoticEffect:
		h.HypnoEffect, h.HypnoImage = nil, ""
	}
}

// SyncHypnoData copies HypnoEffect into its JSON column before a write.
func (h *HardcoreState) SyncHypnoData() {
	if h.HypnoEffect != nil {
		h.HypnoData = datatypes.NewJSONType(*h.HypnoEffect)
		return
	}
	h.HypnoData = datatypes.NewJSONType(HypnoticEffect{})
}

func (h *HardcoreState) AfterFind(*gorm.DB) error {
	h.HypnoEffect = nil
	if h.Hypnosis.Active() {
		e := h.HypnoData.Data()
		h.HypnoEffect = &e
	}
	return nil
}
