package model

// Slot counts per user.
const (
	GagLayers         = 3
	RestrictionLayers = 5
	RestraintLayers   = 5

	// RestraintLayerMask covers every valid restraint sub-layer bit.
	RestraintLayerMask = 1<<RestraintLayers - 1
)

// ActiveGag — one gag layer of a user.
type ActiveGag struct {
	UID     string    `gorm:"primaryKey;type:varchar(64)" json:"uid"`
	Layer   int       `gorm:"primaryKey;autoIncrement:false" json:"layer"`
	Item    string    `gorm:"type:text;not null;default:''" json:"item"`
	Enabler string    `gorm:"type:varchar(64);not null;default:''" json:"enabler"`
	Lock    LockState `gorm:"embedded" json:"lock"`
	Version int64     `gorm:"not null;default:0" json:"-"`
}

// ActiveRestriction — one restriction layer of a user.
type ActiveRestriction struct {
	UID     string    `gorm:"primaryKey;type:varchar(64)" json:"uid"`
	Layer   int       `gorm:"primaryKey;autoIncrement:false" json:"layer"`
	Item    string    `gorm:"type:text;not null;default:''" json:"item"`
	Enabler string    `gorm:"type:varchar(64);not null;default:''" json:"enabler"`
	Lock    LockState `gorm:"embedded" json:"lock"`
	Version int64     `gorm:"not null;default:0" json:"-"`
}

// ActiveRestraint — the single restraint set of a user. Layers is a
// bitfield of active sub-layers and stays zero while Identifier is empty.
type ActiveRestraint struct {
	UID        string    `gorm:"primaryKey;type:varchar(64)" json:"uid"`
	Identifier string    `gorm:"type:text;not null;default:''" json:"identifier"`
	Enabler    string    `gorm:"type:varchar(64);not null;default:''" json:"enabler"`
	Layers     int       `gorm:"not null;default:0" json:"layers"`
	Lock       LockState `gorm:"embedded" json:"lock"`
	Version    int64     `gorm:"not null;default:0" json:"-"`
}
