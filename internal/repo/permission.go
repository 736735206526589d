package repo

import (
	"KinkLink/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// PermissionRepository — global, pair and edit-access permissions and the
// hardcore state rows.
type PermissionRepository interface {
	// EnsureUserRows lazily creates the rows every UID owns.
	EnsureUserRows(ctx context.Context, uid string) error

	GetGlobal(ctx context.Context, uid string) (*model.GlobalPermissions, error)
	SaveGlobal(ctx context.Context, g *model.GlobalPermissions) error

	// GetPairPerms returns what owner permits other to do.
	GetPairPerms(ctx context.Context, owner, other string) (*model.PairPermissions, error)
	SavePairPerms(ctx context.Context, p *model.PairPermissions) error
	GetAccess(ctx context.Context, owner, other string) (*model.PairPermissionAccess, error)
	SaveAccess(ctx context.Context, a *model.PairPermissionAccess) error
	// SavePairBundle replaces both the pair permissions and the edit access
	// of one direction atomically.
	SavePairBundle(ctx context.Context, p *model.PairPermissions, a *model.PairPermissionAccess) error

	GetHardcore(ctx context.Context, uid string) (*model.HardcoreState, error)
	// UpdateHardcore is a compare-and-swap on h.Version; on success
	// h.Version is incremented.
	UpdateHardcore(ctx context.Context, h *model.HardcoreState) error
}

type permissionRepo struct {
	db *gorm.DB
}

// NewPermissionRepository returns a gorm-backed PermissionRepository.
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepo{db: db}
}

func (r *permissionRepo) EnsureUserRows(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ensureUserRows(tx, uid)
	})
}

func (r *permissionRepo) GetGlobal(ctx context.Context, uid string) (*model.GlobalPermissions, error) {
	var g model.GlobalPermissions
	err := firstOrEnsure(ctx, r.db, uid, func(db *gorm.DB) error {
		return db.First(&g, "uid = ?", uid).Error
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *permissionRepo) SaveGlobal(ctx context.Context, g *model.GlobalPermissions) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *permissionRepo) GetPairPerms(ctx context.Context, owner, other string) (*model.PairPermissions, error) {
	var p model.PairPermissions
	if err := r.db.WithContext(ctx).First(&p, "user_uid = ? AND other_uid = ?", owner, other).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *permissionRepo) SavePairPerms(ctx context.Context, p *model.PairPermissions) error {
	return r.db.WithContext(ctx).Omit("User", "Other").Save(p).Error
}

func (r *permissionRepo) GetAccess(ctx context.Context, owner, other string) (*model.PairPermissionAccess, error) {
	var a model.PairPermissionAccess
	if err := r.db.WithContext(ctx).First(&a, "user_uid = ? AND other_uid = ?", owner, other).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *permissionRepo) SaveAccess(ctx context.Context, a *model.PairPermissionAccess) error {
	return r.db.WithContext(ctx).Omit("User", "Other").Save(a).Error
}

func (r *permissionRepo) SavePairBundle(ctx context.Context, p *model.PairPermissions, a *model.PairPermissionAccess) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Other").Save(p).Error; err != nil {
			return err
		}
		return tx.Omit("User", "Other").Save(a).Error
	})
}

func (r *permissionRepo) GetHardcore(ctx context.Context, uid string) (*model.HardcoreState, error) {
	var h model.HardcoreState
	err := firstOrEnsure(ctx, r.db, uid, func(db *gorm.DB) error {
		return db.First(&h, "uid = ?", uid).Error
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *permissionRepo) UpdateHardcore(ctx context.Context, h *model.HardcoreState) error {
	h.SyncHypnoData()
	expected := h.Version
	h.Version++
	if err := updateVersioned(r.db.WithContext(ctx), h, expected); err != nil {
		h.Version = expected
		return err
	}
	return nil
}

// firstOrEnsure runs find; on a miss it creates the per-user rows of uid
// and retries once.
func firstOrEnsure(ctx context.Context, db *gorm.DB, uid string, find func(*gorm.DB) error) error {
	err := find(db.WithContext(ctx))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	var n int64
	if err := db.WithContext(ctx).Model(&model.User{}).Where("uid = ?", uid).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error { return ensureUserRows(tx, uid) }); err != nil {
		return err
	}
	return find(db.WithContext(ctx))
}
