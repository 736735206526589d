package model

import "time"

// CollarAccess — bitmask of collar attributes an editor may change.
type CollarAccess uint8

const (
	CollarAccessVisuals CollarAccess = 1 << iota
	CollarAccessDyes
	CollarAccessMoodle
	CollarAccessWriting

	CollarAccessAll = CollarAccessVisuals | CollarAccessDyes | CollarAccessMoodle | CollarAccessWriting
)

// Has reports whether every bit of want is set.
func (a CollarAccess) Has(want CollarAccess) bool { return a&want == want }

// ActiveCollar — the collar worn by UID. EditAccess lists what the wearer
// may change, OwnerEditAccess what the owners may change.
type ActiveCollar struct {
	UID               string       `gorm:"primaryKey;type:varchar(64)" json:"uid"`
	Visuals           bool         `gorm:"not null" json:"visuals"`
	Dye1              uint8        `gorm:"not null;default:0" json:"dye1"`
	Dye2              uint8        `gorm:"not null;default:0" json:"dye2"`
	MoodleID          string       `gorm:"type:varchar(64);not null;default:''" json:"moodle_id"`
	MoodleIcon        int          `gorm:"not null;default:0" json:"moodle_icon"`
	MoodleTitle       string       `gorm:"type:text;not null;default:''" json:"moodle_title"`
	MoodleDescription string       `gorm:"type:text;not null;default:''" json:"moodle_description"`
	Writing           string       `gorm:"type:text;not null;default:''" json:"writing"`
	EditAccess        CollarAccess `gorm:"not null;default:0" json:"edit_access"`
	OwnerEditAccess   CollarAccess `gorm:"not null;default:0" json:"owner_edit_access"`
	Version           int64        `gorm:"not null;default:0" json:"-"`

	Owners []CollarOwner `gorm:"foreignKey:CollaredUID;references:UID" json:"owners"`
}

// Active: a collar is worn while it has at least one owner.
func (c *ActiveCollar) Active() bool { return len(c.Owners) > 0 }

// HasOwner reports whether uid owns this collar.
func (c *ActiveCollar) HasOwner(uid string) bool {
	for _, o := range c.Owners {
		if o.OwnerUID == uid {
			return true
		}
	}
	return false
}

// ResetAttributes returns every attribute to its default, keeping UID and
// Version.
func (c *ActiveCollar) ResetAttributes() {
	*c = ActiveCollar{UID: c.UID, Version: c.Version, Visuals: true}
}

// CollarOwner — one owner of a collared user (many owners per wearer).
type CollarOwner struct {
	CollaredUID string    `gorm:"primaryKey;type:varchar(64)" json:"collared_uid"`
	OwnerUID    string    `gorm:"primaryKey;type:varchar(64);index" json:"owner_uid"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Collared *User `gorm:"foreignKey:CollaredUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Owner    *User `gorm:"foreignKey:OwnerUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
