package repo

import (
	"KinkLink/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRepository — pending pair and collar requests.
type RequestRepository interface {
	// CreatePairRequest stores req; created=false if one already exists for
	// the same (from, to).
	CreatePairRequest(ctx context.Context, req *model.PairRequest) (created bool, err error)
	GetPairRequest(ctx context.Context, from, to string) (*model.PairRequest, error)
	// DeletePairRequest returns gorm.ErrRecordNotFound if nothing was removed.
	DeletePairRequest(ctx context.Context, from, to string) error
	PairRequestsFor(ctx context.Context, uid string) ([]model.PairRequest, error)

	CreateCollarRequest(ctx context.Context, req *model.CollarRequest) (created bool, err error)
	GetCollarRequest(ctx context.Context, from, to string) (*model.CollarRequest, error)
	DeleteCollarRequest(ctx context.Context, from, to string) error
	CollarRequestsFor(ctx context.Context, uid string) ([]model.CollarRequest, error)
}

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepository returns a gorm-backed RequestRepository.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) CreatePairRequest(ctx context.Context, req *model.PairRequest) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(req)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *requestRepo) GetPairRequest(ctx context.Context, from, to string) (*model.PairRequest, error) {
	var req model.PairRequest
	if err := r.db.WithContext(ctx).First(&req, "from_uid = ? AND to_uid = ?", from, to).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) DeletePairRequest(ctx context.Context, from, to string) error {
	return deleteOne(r.db.WithContext(ctx).Where("from_uid = ? AND to_uid = ?", from, to), &model.PairRequest{})
}

func (r *requestRepo) PairRequestsFor(ctx context.Context, uid string) ([]model.PairRequest, error) {
	var out []model.PairRequest
	err := r.db.WithContext(ctx).Where("from_uid = ? OR to_uid = ?", uid, uid).Order("created_at").Find(&out).Error
	return out, err
}

func (r *requestRepo) CreateCollarRequest(ctx context.Context, req *model.CollarRequest) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(req)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *requestRepo) GetCollarRequest(ctx context.Context, from, to string) (*model.CollarRequest, error) {
	var req model.CollarRequest
	if err := r.db.WithContext(ctx).First(&req, "from_uid = ? AND to_uid = ?", from, to).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) DeleteCollarRequest(ctx context.Context, from, to string) error {
	return deleteOne(r.db.WithContext(ctx).Where("from_uid = ? AND to_uid = ?", from, to), &model.CollarRequest{})
}

func (r *requestRepo) CollarRequestsFor(ctx context.Context, uid string) ([]model.CollarRequest, error) {
	var out []model.CollarRequest
	err := r.db.WithContext(ctx).Where("from_uid = ? OR to_uid = ?", uid, uid).Order("created_at").Find(&out).Error
	return out, err
}

func deleteOne(tx *gorm.DB, row any) error {
	res := tx.Delete(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
