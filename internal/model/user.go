package model

import "time"

// User — durable identity of a Kinkster. UID is permanent; every other
// per-user row is keyed by it and removed together with the user.
type User struct {
	UID   string  `gorm:"primaryKey;type:varchar(64)" json:"uid"`
	Alias *string `gorm:"type:varchar(64);uniqueIndex" json:"alias,omitempty"`

	Tier            int       `gorm:"not null;default:0" json:"tier"` // supporter tier
	UploadsThisWeek int       `gorm:"not null;default:0" json:"-"`
	UploadWeekStart time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastLogin time.Time `json:"last_login"`

	// per-user rows, keyed by UID and removed with the user
	Auth         *Auth               `gorm:"foreignKey:UID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Globals      *GlobalPermissions  `gorm:"foreignKey:UID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Hardcore     *HardcoreState      `gorm:"foreignKey:UID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Gags         []ActiveGag         `gorm:"foreignKey:UID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Restrictions []ActiveRestriction `gorm:"foreignKey:UID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Restraint    *ActiveRestraint    `gorm:"foreignKey:UID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Collar       *ActiveCollar       `gorm:"foreignKey:UID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Auth — credential row: hashed secret for a UID. PrimaryUID links an alt
// profile back to the account that owns it.
type Auth struct {
	UID          string  `gorm:"primaryKey;type:varchar(64)"`
	HashedSecret string  `gorm:"type:text;not null"`
	PrimaryUID   *string `gorm:"type:varchar(64);index"`
	Banned       bool    `gorm:"not null;default:false"`

	PrimaryUser *User `gorm:"foreignKey:PrimaryUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// UserData — public projection of a user sent to pairs.
type UserData struct {
	UID   string `json:"uid"`
	Alias string `json:"alias,omitempty"`
	Tier  int    `json:"tier"`
}

// Data returns the public projection of u.
func (u *User) Data() UserData {
	d := UserData{UID: u.UID, Tier: u.Tier}
	if u.Alias != nil {
		d.Alias = *u.Alias
	}
	return d
}
