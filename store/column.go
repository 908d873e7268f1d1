package store

import (
	"strings"

	"github.com/clawdlabs/rivaldeck/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertColumn creates the column for (board, source type) or, if one already
// exists, overwrites its display name and position in place. The unique index
// guarantees at most one column per pair; this is a single conditional write,
// never a duplicate.
func (s *Store) UpsertColumn(boardId string, sourceType model.SourceType, displayName string, position int) (*model.Column, error) {
	return upsertColumnTx(s.db, boardId, sourceType, displayName, position)
}

func upsertColumnTx(tx *gorm.DB, boardId string, sourceType model.SourceType, displayName string, position int) (*model.Column, error) {
	column := &model.Column{
		Id:          uuid.New().String(),
		BoardID:     boardId,
		SourceType:  sourceType,
		DisplayName: displayName,
		Position:    position,
		IsActive:    true,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "board_id"}, {Name: "source_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "position",
		}),
	}).Create(column).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to upsert column")
	}

	// The generated id is discarded when the row already existed, re-read to
	// return the winning row.
	var existing model.Column
	if err := tx.Where("board_id = ? AND source_type = ?", boardId, sourceType).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s *Store) GetColumnById(id string) (*model.Column, error) {
	var column model.Column
	if err := s.db.Where("id = ?", id).First(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// UpdateColumnHandle sets the scrape handle of a column. The handle is
// trimmed; an empty string clears it, meaning no handle is configured.
func (s *Store) UpdateColumnHandle(id string, handle string) (*model.Column, error) {
	trimmed := strings.TrimSpace(handle)
	var value *string
	if trimmed != "" {
		value = &trimmed
	}
	res := s.db.Model(&model.Column{}).Where("id = ?", id).Update("handle", value)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetColumnById(id)
}

func (s *Store) ToggleColumn(id string, isActive bool) error {
	return s.db.Model(&model.Column{}).Where("id = ?", id).
		Update("is_active", isActive).Error
}

// ActiveColumnsWithHandle lists every active column of the given platform
// that has a scrape handle configured, the work list for a scrape-everything
// run.
func (s *Store) ActiveColumnsWithHandle(sourceType model.SourceType) ([]model.Column, error) {
	var columns []model.Column
	err := s.db.
		Where("source_type = ? AND is_active = ? AND handle IS NOT NULL", sourceType, true).
		Order("board_id").
		Find(&columns).Error
	return columns, err
}
