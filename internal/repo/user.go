package repo

import (
	"KinkLink/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// UserRepository — access to users and their credentials.
type UserRepository interface {
	// CreateUser stores the user, its credential and the per-user rows
	// every UID owns (global permissions, hardcore state, active slots).
	CreateUser(ctx context.Context, user *model.User, auth *model.Auth) (*model.User, error)
	GetUser(ctx context.Context, uid string) (*model.User, error)
	GetAuth(ctx context.Context, uid string) (*model.Auth, error)
	Exists(ctx context.Context, uid string) (bool, error)
	TouchLogin(ctx context.Context, uid string, at time.Time) error
	// DeleteUser removes the user and every row keyed by the UID.
	DeleteUser(ctx context.Context, uid string) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(ctx context.Context, user *model.User, auth *model.Auth) (*model.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		auth.UID = user.UID
		if err := tx.Create(auth).Error; err != nil {
			return err
		}
		return ensureUserRows(tx, user.UID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetUser(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetAuth(ctx context.Context, uid string) (*model.Auth, error) {
	var a model.Auth
	if err := r.db.WithContext(ctx).First(&a, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *userRepo) Exists(ctx context.Context, uid string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("uid = ?", uid).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepo) TouchLogin(ctx context.Context, uid string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("uid = ?", uid).Update("last_login", at).Error
}

// DeleteUser removes the user. Rows are deleted explicitly so the result
// does not depend on foreign key support in the dialect.
func (r *userRepo) DeleteUser(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var collared []string
		if err := tx.Model(&model.CollarOwner{}).Where("owner_uid = ?", uid).Pluck("collared_uid", &collared).Error; err != nil {
			return err
		}
		steps := []struct {
			model any
			where string
		}{
			{&model.PairRequest{}, "from_uid = ? OR to_uid = ?"},
			{&model.CollarRequest{}, "from_uid = ? OR to_uid = ?"},
			{&model.CollarOwner{}, "collared_uid = ? OR owner_uid = ?"},
			{&model.PairPermissionAccess{}, "user_uid = ? OR other_uid = ?"},
			{&model.PairPermissions{}, "user_uid = ? OR other_uid = ?"},
			{&model.ClientPair{}, "user_uid = ? OR other_uid = ?"},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, uid, uid).Delete(s.model).Error; err != nil {
				return err
			}
		}
		for _, c := range collared {
			if err := resetOrphanCollar(tx, c); err != nil {
				return err
			}
		}
		for _, m := range []any{
			&model.ActiveCollar{}, &model.ActiveRestraint{}, &model.ActiveRestriction{}, &model.ActiveGag{},
			&model.HardcoreState{}, &model.GlobalPermissions{}, &model.Auth{},
		} {
			if err := tx.Where("uid = ?", uid).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("primary_uid = ?", uid).Delete(&model.Auth{}).Error; err != nil {
			return err
		}
		res := tx.Where("uid = ?", uid).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
