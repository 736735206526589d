package model

import "time"

// GlobalPermissions — account-wide toggles, one row per UID.
type GlobalPermissions struct {
	UID string `gorm:"primaryKey;type:varchar(64)" json:"uid"`

	SafewordUsed           bool   `gorm:"not null;default:false" json:"safeword_used"`
	AllowedGarblerChannels int    `gorm:"not null;default:0" json:"allowed_garbler_channels"`
	ChatGarblerActive      bool   `gorm:"not null;default:false" json:"chat_garbler_active"`
	ChatGarblerLocked      bool   `gorm:"not null;default:false" json:"chat_garbler_locked"`
	GaggedNameplate        bool   `gorm:"not null;default:false" json:"gagged_nameplate"`
	WardrobeEnabled        bool   `gorm:"not null;default:false" json:"wardrobe_enabled"`
	GagVisuals             bool   `gorm:"not null;default:false" json:"gag_visuals"`
	RestrictionVisuals     bool   `gorm:"not null;default:false" json:"restriction_visuals"`
	RestraintSetVisuals    bool   `gorm:"not null;default:false" json:"restraint_set_visuals"`
	PuppeteerEnabled       bool   `gorm:"not null;default:false" json:"puppeteer_enabled"`
	TriggerPhrase          string `gorm:"type:text;not null;default:''" json:"trigger_phrase"`
	PuppetPerms            int    `gorm:"not null;default:0" json:"puppet_perms"`
	ToyboxEnabled          bool   `gorm:"not null;default:false" json:"toybox_enabled"`
	LockToyboxUI           bool   `gorm:"not null;default:false" json:"lock_toybox_ui"`
	SpatialAudio           bool   `gorm:"not null;default:false" json:"spatial_audio"`
}

// PairPermissions — what UserUID permits OtherUID to do to UserUID.
// Directional: (a,b) is independent of (b,a).
type PairPermissions struct {
	UserUID  string `gorm:"primaryKey;type:varchar(64)" json:"user_uid"`
	OtherUID string `gorm:"primaryKey;type:varchar(64);index" json:"other_uid"`

	IsPaused bool `gorm:"not null;default:false" json:"is_paused"`

	PermanentLocks  bool `gorm:"not null;default:false" json:"permanent_locks"`
	OwnerLocks      bool `gorm:"not null;default:false" json:"owner_locks"`
	DevotionalLocks bool `gorm:"not null;default:false" json:"devotional_locks"`

	ApplyGags  bool          `gorm:"not null;default:false" json:"apply_gags"`
	LockGags   bool          `gorm:"not null;default:false" json:"lock_gags"`
	MaxGagTime time.Duration `gorm:"not null;default:3600000000000" json:"max_gag_time"`
	UnlockGags bool          `gorm:"not null;default:false" json:"unlock_gags"`
	RemoveGags bool          `gorm:"not null;default:false" json:"remove_gags"`

	ApplyRestrictions  bool          `gorm:"not null;default:false" json:"apply_restrictions"`
	LockRestrictions   bool          `gorm:"not null;default:false" json:"lock_restrictions"`
	MaxRestrictionTime time.Duration `gorm:"not null;default:3600000000000" json:"max_restriction_time"`
	UnlockRestrictions bool          `gorm:"not null;default:false" json:"unlock_restrictions"`
	RemoveRestrictions bool          `gorm:"not null;default:false" json:"remove_restrictions"`

	ApplyRestraintSets      bool          `gorm:"not null;default:false" json:"apply_restraint_sets"`
	ApplyLayers             bool          `gorm:"not null;default:false" json:"apply_layers"`
	ApplyLayersWhileLocked  bool          `gorm:"not null;default:false" json:"apply_layers_while_locked"`
	LockRestraintSets       bool          `gorm:"not null;default:false" json:"lock_restraint_sets"`
	MaxRestraintTime        time.Duration `gorm:"not null;default:3600000000000" json:"max_restraint_time"`
	UnlockRestraintSets     bool          `gorm:"not null;default:false" json:"unlock_restraint_sets"`
	RemoveLayers            bool          `gorm:"not null;default:false" json:"remove_layers"`
	RemoveLayersWhileLocked bool          `gorm:"not null;default:false" json:"remove_layers_while_locked"`
	RemoveRestraintSets     bool          `gorm:"not null;default:false" json:"remove_restraint_sets"`

	TriggerPhrase string `gorm:"type:text;not null;default:''" json:"trigger_phrase"`
	PuppetPerms   int    `gorm:"not null;default:0" json:"puppet_perms"`

	// hardcore allowances
	DevotionalStates        bool `gorm:"not null;default:false" json:"devotional_states"`
	AllowLockedFollowing    bool `gorm:"not null;default:false" json:"allow_locked_following"`
	AllowLockedEmoting      bool `gorm:"not null;default:false" json:"allow_locked_emoting"`
	AllowIndoorConfinement  bool `gorm:"not null;default:false" json:"allow_indoor_confinement"`
	AllowImprisonment       bool `gorm:"not null;default:false" json:"allow_imprisonment"`
	AllowHidingChatBoxes    bool `gorm:"not null;default:false" json:"allow_hiding_chat_boxes"`
	AllowHidingChatInput    bool `gorm:"not null;default:false" json:"allow_hiding_chat_input"`
	AllowChatInputBlocking  bool `gorm:"not null;default:false" json:"allow_chat_input_blocking"`
	AllowHypnoEffectSending bool `gorm:"not null;default:false" json:"allow_hypno_effect_sending"`
	AllowHypnoImageSending  bool `gorm:"not null;default:false" json:"allow_hypno_image_sending"`

	User  *User `gorm:"foreignKey:UserUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Other *User `gorm:"foreignKey:OtherUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// PairPermissionAccess — which fields OtherUID may edit remotely on
// UserUID's behalf.
type PairPermissionAccess struct {
	UserUID  string `gorm:"primaryKey;type:varchar(64)" json:"user_uid"`
	OtherUID string `gorm:"primaryKey;type:varchar(64);index" json:"other_uid"`

	// global permissions
	ChatGarblerActiveAllowed   bool `gorm:"not null;default:false" json:"chat_garbler_active_allowed"`
	ChatGarblerLockedAllowed   bool `gorm:"not null;default:false" json:"chat_garbler_locked_allowed"`
	GaggedNameplateAllowed     bool `gorm:"not null;default:false" json:"gagged_nameplate_allowed"`
	WardrobeEnabledAllowed     bool `gorm:"not null;default:false" json:"wardrobe_enabled_allowed"`
	GagVisualsAllowed          bool `gorm:"not null;default:false" json:"gag_visuals_allowed"`
	RestrictionVisualsAllowed  bool `gorm:"not null;default:false" json:"restriction_visuals_allowed"`
	RestraintSetVisualsAllowed bool `gorm:"not null;default:false" json:"restraint_set_visuals_allowed"`
	PuppeteerEnabledAllowed    bool `gorm:"not null;default:false" json:"puppeteer_enabled_allowed"`
	ToyboxEnabledAllowed       bool `gorm:"not null;default:false" json:"toybox_enabled_allowed"`

	// pair permissions
	PermanentLocksAllowed          bool `gorm:"not null;default:false" json:"permanent_locks_allowed"`
	OwnerLocksAllowed              bool `gorm:"not null;default:false" json:"owner_locks_allowed"`
	DevotionalLocksAllowed         bool `gorm:"not null;default:false" json:"devotional_locks_allowed"`
	ApplyGagsAllowed               bool `gorm:"not null;default:false" json:"apply_gags_allowed"`
	LockGagsAllowed                bool `gorm:"not null;default:false" json:"lock_gags_allowed"`
	MaxGagTimeAllowed              bool `gorm:"not null;default:false" json:"max_gag_time_allowed"`
	UnlockGagsAllowed              bool `gorm:"not null;default:false" json:"unlock_gags_allowed"`
	RemoveGagsAllowed              bool `gorm:"not null;default:false" json:"remove_gags_allowed"`
	ApplyRestrictionsAllowed       bool `gorm:"not null;default:false" json:"apply_restrictions_allowed"`
	LockRestrictionsAllowed        bool `gorm:"not null;default:false" json:"lock_restrictions_allowed"`
	MaxRestrictionTimeAllowed      bool `gorm:"not null;default:false" json:"max_restriction_time_allowed"`
	UnlockRestrictionsAllowed      bool `gorm:"not null;default:false" json:"unlock_restrictions_allowed"`
	RemoveRestrictionsAllowed      bool `gorm:"not null;default:false" json:"remove_restrictions_allowed"`
	ApplyRestraintSetsAllowed      bool `gorm:"not null;default:false" json:"apply_restraint_sets_allowed"`
	ApplyLayersAllowed             bool `gorm:"not null;default:false" json:"apply_layers_allowed"`
	ApplyLayersWhileLockedAllowed  bool `gorm:"not null;default:false" json:"apply_layers_while_locked_allowed"`
	LockRestraintSetsAllowed       bool `gorm:"not null;default:false" json:"lock_restraint_sets_allowed"`
	MaxRestraintTimeAllowed        bool `gorm:"not null;default:false" json:"max_restraint_time_allowed"`
	UnlockRestraintSetsAllowed     bool `gorm:"not null;default:false" json:"unlock_restraint_sets_allowed"`
	RemoveLayersAllowed            bool `gorm:"not null;default:false" json:"remove_layers_allowed"`
	RemoveLayersWhileLockedAllowed bool `gorm:"not null;default:false" json:"remove_layers_while_locked_allowed"`
	RemoveRestraintSetsAllowed     bool `gorm:"not null;default:false" json:"remove_restraint_sets_allowed"`
	PuppetPermsAllowed             bool `gorm:"not null;default:false" json:"puppet_perms_allowed"`

	User  *User `gorm:"foreignKey:UserUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Other *User `gorm:"foreignKey:OtherUID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName keeps the singular table name.
func (PairPermissionAccess) TableName() string { return "pair_permission_access" }
