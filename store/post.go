package store

import (
	"time"

	"github.com/clawdlabs/rivaldeck/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertPost writes one canonical post. If a post with the same id already
// exists its mutable fields (content, counters, import timestamp) are
// overwritten in place, otherwise a new row is created. Returns whether the
// row was newly created.
//
// The write itself is a single atomic INSERT ... ON CONFLICT DO UPDATE keyed
// by the deterministic id, so concurrent upserts of the same post can never
// produce two rows. The preceding existence check only backs the
// inserted/updated counters; a race there can at worst misattribute a count,
// not duplicate a row.
func (s *Store) UpsertPost(post *model.Post) (created bool, err error) {
	var count int64
	if err := s.db.Model(&model.Post{}).Where("id = ?", post.Id).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "fail to look up post")
	}

	post.ImportedAt = time.Now()
	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "likes", "comments", "shares", "imported_at",
		}),
	}).Create(post).Error
	if err != nil {
		return false, errors.Wrap(err, "fail to upsert post")
	}
	return count == 0, nil
}

func (s *Store) GetPostById(id string) (*model.Post, error) {
	var post model.Post
	if err := s.db.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) GetPostsByColumn(columnId string, limit int) ([]model.Post, error) {
	return s.getPosts("column_id = ?", columnId, limit)
}

func (s *Store) GetPostsByBoard(boardId string, limit int) ([]model.Post, error) {
	return s.getPosts("board_id = ?", boardId, limit)
}

func (s *Store) getPosts(cond string, arg string, limit int) ([]model.Post, error) {
	var posts []model.Post
	tx := s.db.Where(cond, arg).Order("published_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// IsNotFound reports whether err is the storage engine's record-not-found.
// Callers outside this package should not need to know the engine's sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
