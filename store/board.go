package store

import (
	"fmt"

	"github.com/clawdlabs/rivaldeck/model"
	"github.com/clawdlabs/rivaldeck/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Every new board starts with one column per launch platform, in dashboard
// order.
var defaultColumns = []struct {
	SourceType  model.SourceType
	DisplayName string
}{
	{model.SourceTypeInstagram, "Instagram"},
	{model.SourceTypeLinkedin, "LinkedIn"},
	{model.SourceTypeYoutube, "YouTube"},
	{model.SourceTypeTiktok, "TikTok"},
}

// CreateBoard creates a board together with its default columns. The slug is
// derived from the name once, at creation. When two differently named boards
// normalize to the same slug, a numeric suffix is appended ("nike",
// "nike-2", ...) instead of failing the unique constraint.
func (s *Store) CreateBoard(name string, avatarUrl *string) (*model.Board, error) {
	board := &model.Board{
		Id:        uuid.New().String(),
		Name:      name,
		AvatarUrl: avatarUrl,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		slug, err := disambiguateSlug(tx, utils.Slugify(name))
		if err != nil {
			return err
		}
		board.Slug = slug
		if err := tx.Create(board).Error; err != nil {
			return errors.Wrap(err, "fail to create board")
		}
		for position, col := range defaultColumns {
			if _, err := upsertColumnTx(tx, board.Id, col.SourceType, col.DisplayName, position); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBoardById(board.Id)
}

func disambiguateSlug(tx *gorm.DB, base string) (string, error) {
	slug := base
	for counter := 2; ; counter++ {
		var count int64
		if err := tx.Model(&model.Board{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// Preload scopes shared by all board reads: only active columns in dashboard
// order, posts newest first.
var (
	activeColumns = func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).Order("position")
	}
	recentPosts = func(db *gorm.DB) *gorm.DB {
		return db.Order("published_at DESC")
	}
)

func (s *Store) GetBoards() ([]model.Board, error) {
	var boards []model.Board
	err := s.db.
		Preload("Columns", activeColumns).
		Preload("Columns.Posts", recentPosts).
		Order("created_at DESC").
		Find(&boards).Error
	return boards, err
}

func (s *Store) GetBoardById(id string) (*model.Board, error) {
	return s.getBoard("id = ?", id)
}

func (s *Store) GetBoardBySlug(slug string) (*model.Board, error) {
	return s.getBoard("slug = ?", slug)
}

func (s *Store) getBoard(cond string, arg string) (*model.Board, error) {
	var board model.Board
	err := s.db.
		Preload("Columns", activeColumns).
		Preload("Columns.Posts", recentPosts).
		Where(cond, arg).
		First(&board).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// DeleteBoard removes a board; columns and posts go with it through the
// foreign key cascade.
func (s *Store) DeleteBoard(id string) error {
	return s.db.Delete(&model.Board{Id: id}).Error
}
