package model

import "time"

// ClientPair — directed pair edge. A pairing is synced iff both
// (a,b) and (b,a) exist.
type ClientPair struct {
	UserUID  string `gorm:"primaryKey;type:varchar(64)"`
	OtherUID string `gorm:"primaryKey;type:varchar(64);index"`

	User  *User `gorm:"foreignKey:UserUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Other *User `gorm:"foreignKey:OtherUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PairRequest lives only between creation and accept/reject/cancel.
type PairRequest struct {
	FromUID   string    `gorm:"primaryKey;type:varchar(64)" json:"from_uid"`
	ToUID     string    `gorm:"primaryKey;type:varchar(64);index" json:"to_uid"`
	Message   string    `gorm:"type:text;not null;default:''" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	From *User `gorm:"foreignKey:FromUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	To   *User `gorm:"foreignKey:ToUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// CollarRequest — FromUID asks to become a collar owner of ToUID with the
// negotiated access bitmasks.
type CollarRequest struct {
	FromUID        string       `gorm:"primaryKey;type:varchar(64)" json:"from_uid"`
	ToUID          string       `gorm:"primaryKey;type:varchar(64);index" json:"to_uid"`
	InitialWriting string       `gorm:"type:text;not null;default:''" json:"initial_writing"`
	OwnerAccess    CollarAccess `gorm:"not null;default:0" json:"owner_access"`
	CollaredAccess CollarAccess `gorm:"not null;default:0" json:"collared_access"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`

	From *User `gorm:"foreignKey:FromUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	To   *User `gorm:"foreignKey:ToUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
