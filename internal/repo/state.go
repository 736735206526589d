package repo

import (
	"KinkLink/internal/model"
	"context"

	"gorm.io/gorm"
)

// StateRepository — the active gag, restriction, restraint and collar
// rows of a user.
type StateRepository interface {
	GetGag(ctx context.Context, uid string, layer int) (*model.ActiveGag, error)
	ListGags(ctx context.Context, uid string) ([]model.ActiveGag, error)
	// UpdateGag is a compare-and-swap on g.Version.
	UpdateGag(ctx context.Context, g *model.ActiveGag) error

	GetRestriction(ctx context.Context, uid string, layer int) (*model.ActiveRestriction, error)
	ListRestrictions(ctx context.Context, uid string) ([]model.ActiveRestriction, error)
	UpdateRestriction(ctx context.Context, r *model.ActiveRestriction) error

	GetRestraint(ctx context.Context, uid string) (*model.ActiveRestraint, error)
	UpdateRestraint(ctx context.Context, r *model.ActiveRestraint) error

	// GetCollar returns the collar of uid with its owners loaded.
	GetCollar(ctx context.Context, uid string) (*model.ActiveCollar, error)
	// UpdateCollar writes the collar columns; owners are not touched.
	UpdateCollar(ctx context.Context, c *model.ActiveCollar) error
	// RemoveCollar detaches every owner and resets the collar in one
	// transaction.
	RemoveCollar(ctx context.Context, c *model.ActiveCollar) error
	// AcceptCollarRequest removes the request from -> to, makes from an
	// owner of to and seeds the collar of to from the request.
	AcceptCollarRequest(ctx context.Context, from, to string) (*model.ActiveCollar, error)
}

type stateRepo struct {
	db *gorm.DB
}

// NewStateRepository returns a gorm-backed StateRepository.
func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepo{db: db}
}

func (r *stateRepo) GetGag(ctx context.Context, uid string, layer int) (*model.ActiveGag, error) {
	var g model.ActiveGag
	err := firstOrEnsure(ctx, r.db, uid, func(db *gorm.DB) error {
		return db.First(&g, "uid = ? AND layer = ?", uid, layer).Error
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *stateRepo) ListGags(ctx context.Context, uid string) ([]model.ActiveGag, error) {
	var out []model.ActiveGag
	err := r.db.WithContext(ctx).Where("uid = ?", uid).Order("layer").Find(&out).Error
	return out, err
}

func (r *stateRepo) UpdateGag(ctx context.Context, g *model.ActiveGag) error {
	// layer 0 is a zero primary key and would be dropped from the implicit WHERE
	return bumpAndUpdate(r.db.WithContext(ctx).Where("uid = ? AND layer = ?", g.UID, g.Layer), g, &g.Version)
}

func (r *stateRepo) GetRestriction(ctx context.Context, uid string, layer int) (*model.ActiveRestriction, error) {
	var res model.ActiveRestriction
	err := firstOrEnsure(ctx, r.db, uid, func(db *gorm.DB) error {
		return db.First(&res, "uid = ? AND layer = ?", uid, layer).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *stateRepo) ListRestrictions(ctx context.Context, uid string) ([]model.ActiveRestriction, error) {
	var out []model.ActiveRestriction
	err := r.db.WithContext(ctx).Where("uid = ?", uid).Order("layer").Find(&out).Error
	return out, err
}

func (r *stateRepo) UpdateRestriction(ctx context.Context, res *model.ActiveRestriction) error {
	return bumpAndUpdate(r.db.WithContext(ctx).Where("uid = ? AND layer = ?", res.UID, res.Layer), res, &res.Version)
}

func (r *stateRepo) GetRestraint(ctx context.Context, uid string) (*model.ActiveRestraint, error) {
	var res model.ActiveRestraint
	err := firstOrEnsure(ctx, r.db, uid, func(db *gorm.DB) error {
		return db.First(&res, "uid = ?", uid).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *stateRepo) UpdateRestraint(ctx context.Context, res *model.ActiveRestraint) error {
	return bumpAndUpdate(r.db.WithContext(ctx), res, &res.Version)
}

func (r *stateRepo) GetCollar(ctx context.Context, uid string) (*model.ActiveCollar, error) {
	var c model.ActiveCollar
	err := firstOrEnsure(ctx, r.db, uid, func(db *gorm.DB) error {
		return db.Preload("Owners", func(q *gorm.DB) *gorm.DB { return q.Order("owner_uid") }).
			First(&c, "uid = ?", uid).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *stateRepo) UpdateCollar(ctx context.Context, c *model.ActiveCollar) error {
	return bumpAndUpdate(r.db.WithContext(ctx), c, &c.Version)
}

func (r *stateRepo) RemoveCollar(ctx context.Context, c *model.ActiveCollar) error {
	expected := c.Version
	owners := c.Owners
	c.ResetAttributes()
	c.Version = expected + 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, c, expected); err != nil {
			return err
		}
		return tx.Where("collared_uid = ?", c.UID).Delete(&model.CollarOwner{}).Error
	})
	if err != nil {
		c.Version = expected
		c.Owners = owners
		return err
	}
	return nil
}

func (r *stateRepo) AcceptCollarRequest(ctx context.Context, from, to string) (*model.ActiveCollar, error) {
	var out model.ActiveCollar
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.CollarRequest
		if err := tx.First(&req, "from_uid = ? AND to_uid = ?", from, to).Error; err != nil {
			return err
		}
		if err := tx.Delete(&req).Error; err != nil {
			return err
		}
		if err := ensureUserRows(tx, to); err != nil {
			return err
		}
		if _, err := createIfAbsent(tx, &model.CollarOwner{CollaredUID: to, OwnerUID: from}); err != nil {
			return err
		}
		err := tx.Model(&model.ActiveCollar{}).Where("uid = ?", to).Updates(map[string]any{
			"writing":           req.InitialWriting,
			"owner_edit_access": req.OwnerAccess,
			"edit_access":       req.CollaredAccess,
			"version":           gorm.Expr("version + 1"),
		}).Error
		if err != nil {
			return err
		}
		return tx.Preload("Owners", func(q *gorm.DB) *gorm.DB { return q.Order("owner_uid") }).
			First(&out, "uid = ?", to).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// bumpAndUpdate increments *version and writes row conditioned on the
// previous value; *version is restored on failure.
func bumpAndUpdate(tx *gorm.DB, row any, version *int64) error {
	expected := *version
	*version = expected + 1
	if err := updateVersioned(tx, row, expected); err != nil {
		*version = expected
		return err
	}
	return nil
}
