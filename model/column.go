package model

import (
	"time"
)

/*

Column is one platform feed inside a board, e.g. the instagram column of
the Nike board

BoardID: owning board, at most one column per (board, source type) pair
SourceType: platform of this feed, closed enumeration
DisplayName: label shown on the dashboard
Position: dashboard ordering within the board
Handle: platform account the scraper targets, nil when not yet configured.
	Columns without a handle are skipped by scrape-everything runs.
IsActive: inactive columns are hidden from board reads and skipped by
	scrape-everything runs, their stored posts are retained
Posts: removed together with the column
*/
type Column struct {
	Id          string     `gorm:"primaryKey" json:"id"`
	BoardID     string     `gorm:"uniqueIndex:idx_columns_board_source;not null" json:"boardId"`
	SourceType  SourceType `gorm:"uniqueIndex:idx_columns_board_source;not null" json:"sourceType"`
	DisplayName string     `gorm:"not null" json:"displayName"`
	Position    int        `gorm:"default:0" json:"position"`
	Handle      *string    `json:"handle"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`

	Posts []Post `gorm:"foreignKey:ColumnID;constraint:OnDelete:CASCADE" json:"posts"`
}
