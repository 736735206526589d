package repo

import (
	"KinkLink/internal/model"
	"context"

	"gorm.io/gorm"
)

// PairingResult reports which rows AcceptPairing had to create. Rows that
// already existed are left untouched.
type PairingResult struct {
	CreatedPairPermissions int
	CreatedAccess          int
}

// PairRepository — pair edges and the rows scoped to a pair.
type PairRepository interface {
	// IsPaired reports whether both directed edges exist.
	IsPaired(ctx context.Context, a, b string) (bool, error)
	// PairedUIDs returns every UID synced with uid.
	PairedUIDs(ctx context.Context, uid string) ([]string, error)
	// SyncedUnpausedPairs returns the UIDs synced with uid where neither
	// direction is paused.
	SyncedUnpausedPairs(ctx context.Context, uid string) ([]string, error)
	// AcceptPairing atomically removes the pair request from -> to, creates
	// both edges and lazily creates every missing permission row.
	AcceptPairing(ctx context.Context, from, to string) (PairingResult, error)
	// RemovePairing deletes both edges, the pair-scoped permission rows and
	// collar ownership between a and b.
	RemovePairing(ctx context.Context, a, b string) error
}

type pairRepo struct {
	db *gorm.DB
}

// NewPairRepository returns a gorm-backed PairRepository.
func NewPairRepository(db *gorm.DB) PairRepository {
	return &pairRepo{db: db}
}

func (r *pairRepo) IsPaired(ctx context.Context, a, b string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ClientPair{}).
		Where("(user_uid = ? AND other_uid = ?) OR (user_uid = ? AND other_uid = ?)", a, b, b, a).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n == 2, nil
}

func (r *pairRepo) PairedUIDs(ctx context.Context, uid string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Table("client_pairs AS p").
		Select("p.other_uid").
		Joins("JOIN client_pairs AS r ON r.user_uid = p.other_uid AND r.other_uid = p.user_uid").
		Where("p.user_uid = ?", uid).
		Order("p.other_uid").
		Scan(&out).Error
	return out, err
}

func (r *pairRepo) SyncedUnpausedPairs(ctx context.Context, uid string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Table("client_pairs AS p").
		Select("p.other_uid").
		Joins("JOIN client_pairs AS r ON r.user_uid = p.other_uid AND r.other_uid = p.user_uid").
		Joins("JOIN pair_permissions AS own ON own.user_uid = p.user_uid AND own.other_uid = p.other_uid").
		Joins("JOIN pair_permissions AS theirs ON theirs.user_uid = p.other_uid AND theirs.other_uid = p.user_uid").
		Where("p.user_uid = ? AND own.is_paused = ? AND theirs.is_paused = ?", uid, false, false).
		Order("p.other_uid").
		Scan(&out).Error
	return out, err
}

func (r *pairRepo) AcceptPairing(ctx context.Context, from, to string) (PairingResult, error) {
	var res PairingResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("from_uid = ? AND to_uid = ?", from, to).Delete(&model.PairRequest{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		for _, dir := range [][2]string{{from, to}, {to, from}} {
			if _, err := createIfAbsent(tx, &model.ClientPair{UserUID: dir[0], OtherUID: dir[1]}); err != nil {
				return err
			}
			if err := ensureUserRows(tx, dir[0]); err != nil {
				return err
			}
			created, err := createIfAbsent(tx, &model.PairPermissions{UserUID: dir[0], OtherUID: dir[1]})
			if err != nil {
				return err
			}
			if created {
				res.CreatedPairPermissions++
			}
			created, err = createIfAbsent(tx, &model.PairPermissionAccess{UserUID: dir[0], OtherUID: dir[1]})
			if err != nil {
				return err
			}
			if created {
				res.CreatedAccess++
			}
		}
		return nil
	})
	return res, err
}

func (r *pairRepo) RemovePairing(ctx context.Context, a, b string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		const both = "(user_uid = ? AND other_uid = ?) OR (user_uid = ? AND other_uid = ?)"
		if err := tx.Where(both, a, b, b, a).Delete(&model.ClientPair{}).Error; err != nil {
			return err
		}
		if err := tx.Where(both, a, b, b, a).Delete(&model.PairPermissions{}).Error; err != nil {
			return err
		}
		if err := tx.Where(both, a, b, b, a).Delete(&model.PairPermissionAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("(collared_uid = ? AND owner_uid = ?) OR (collared_uid = ? AND owner_uid = ?)", a, b, b, a).
			Delete(&model.CollarOwner{}).Error; err != nil {
			return err
		}
		for _, uid := range []string{a, b} {
			if err := resetOrphanCollar(tx, uid); err != nil {
				return err
			}
		}
		return tx.Where("(from_uid = ? AND to_uid = ?) OR (from_uid = ? AND to_uid = ?)", a, b, b, a).
			Delete(&model.CollarRequest{}).Error
	})
}
