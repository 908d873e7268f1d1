// Package store is the single boundary between the canonical data model and
// the relational storage engine. Rows never leave this package untyped: every
// query scans into the explicit model structs.
package store

import (
	"time"

	"github.com/clawdlabs/rivaldeck/model"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Stats is a small operational summary surfaced on the health endpoint.
type Stats struct {
	TotalBoards int64 `json:"totalBoards"`
	TotalPosts  int64 `json:"totalPosts"`
	PostsToday  int64 `json:"postsToday"`
}

func (s *Store) Stats() (*Stats, error) {
	var stats Stats
	if err := s.db.Model(&model.Board{}).Count(&stats.TotalBoards).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.Post{}).Count(&stats.TotalPosts).Error; err != nil {
		return nil, err
	}
	midnight := time.Now().Truncate(24 * time.Hour)
	if err := s.db.Model(&model.Post{}).
		Where("imported_at >= ?", midnight).
		Count(&stats.PostsToday).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
