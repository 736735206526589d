package repo

import (
	"KinkLink/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionConflict — a compare-and-swap update lost against a
// concurrent writer.
var ErrVersionConflict = errors.New("repo: version conflict")

// createIfAbsent inserts row unless its primary key already exists.
// Existing rows are never modified.
func createIfAbsent(tx *gorm.DB, row any) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ensureUserRows creates the per-UID rows that are missing.
func ensureUserRows(tx *gorm.DB, uid string) error {
	hc := &model.HardcoreState{UID: uid}
	hc.SyncHypnoData()
	rows := []any{
		&model.GlobalPermissions{UID: uid},
		hc,
		&model.ActiveRestraint{UID: uid},
		&model.ActiveCollar{UID: uid, Visuals: true},
	}
	for i := 0; i < model.GagLayers; i++ {
		rows = append(rows, &model.ActiveGag{UID: uid, Layer: i})
	}
	for i := 0; i < model.RestrictionLayers; i++ {
		rows = append(rows, &model.ActiveRestriction{UID: uid, Layer: i})
	}
	for _, row := range rows {
		if _, err := createIfAbsent(tx, row); err != nil {
			return err
		}
	}
	return nil
}

// updateVersioned writes every column of row if its stored version still
// equals expected. row must carry the already incremented version.
func updateVersioned(tx *gorm.DB, row any, expected int64) error {
	res := tx.Model(row).Select("*").Omit(clause.Associations).Where("version = ?", expected).Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// resetOrphanCollar returns the collar of uid to defaults once its last
// owner is gone.
func resetOrphanCollar(tx *gorm.DB, uid string) error {
	return tx.Model(&model.ActiveCollar{}).
		Where("uid = ? AND NOT EXISTS (SELECT 1 FROM collar_owners WHERE collared_uid = ?)", uid, uid).
		Updates(map[string]any{
			"visuals":            true,
			"dye1":               0,
			"dye2":               0,
			"moodle_id":          "",
			"moodle_icon":        0,
			"moodle_title":       "",
			"moodle_description": "",
			"writing":            "",
			"edit_access":        0,
			"owner_edit_access":  0,
			"version":            gorm.Expr("version + 1"),
		}).Error
}
