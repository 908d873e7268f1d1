package store

import (
	"strings"

	"github.com/clawdlabs/rivaldeck/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ResolveSource maps an inbound source descriptor to the tracked board and
// its column for that platform.
//
// The matching is deliberately loose and kept bug-for-bug compatible with the
// contract the external scraper agent was built against: a board is a
// candidate when it has a column of the inbound platform AND any of
//   - the board name contains the handle (case-insensitive),
//   - the board slug contains the handle,
//   - the inbound url contains the board slug.
// The first row in storage order wins, there is no scoring among multiple
// matches.
func (s *Store) ResolveSource(source model.IngestSource) (*model.Board, *model.Column, error) {
	handle := strings.ToLower(source.Handle)

	var board model.Board
	err := s.db.Model(&model.Board{}).
		Joins("JOIN columns ON columns.board_id = boards.id").
		Where("columns.source_type = ?", source.Platform).
		Where(
			"LOWER(boards.name) LIKE ? OR boards.slug LIKE ? OR ? LIKE '%' || boards.slug || '%'",
			"%"+handle+"%", "%"+handle+"%", source.Url,
		).
		Take(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.Errorf(
				"board not found for handle: %s (%s)", source.Handle, source.Platform)
		}
		return nil, nil, errors.Wrap(err, "fail to resolve board")
	}

	var column model.Column
	err = s.db.Where("board_id = ? AND source_type = ?", board.Id, source.Platform).
		First(&column).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.Errorf(
				"column not found for board %s and source %s", board.Name, source.Platform)
		}
		return nil, nil, errors.Wrap(err, "fail to resolve column")
	}

	return &board, &column, nil
}
