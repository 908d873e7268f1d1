package model

import (
	"time"
)

/*

Board is one monitored competitor brand, the top-level grouping of the
dashboard

Id: primary key, server-assigned uuid
Name: display name as entered by the operator
Slug: url-safe identity derived from the name at creation time, unique,
	never regenerated afterwards. Source resolution matches inbound handles
	against it, so it must stay stable for the lifetime of the board.
AvatarUrl: optional brand logo
Columns: one per tracked platform, removed together with the board
*/
type Board struct {
	Id        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	AvatarUrl *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`

	Columns []Column `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"columns"`
}
