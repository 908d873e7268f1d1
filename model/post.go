package model

import (
	"time"
)

/*

Post is one externally observed social-media post in canonical form

Id: primary key, formed deterministically as "{sourceType}_{externalPostId}"
	so that re-ingesting the same external post is naturally idempotent.
	The id is immutable, all other fields are replaceable by a later upsert
	carrying the same id.
ColumnID: post belongs to this column, deleted together with it
BoardID: denormalized board reference for per-board timeline reads

Url: canonical link to the post on the source platform
Content: textual content in plain text, may be empty
MediaUrls: media attachment urls
MediaType: image/video/carousel, closed enumeration
PublishedAt: when the post was published on the source platform
Likes/Comments/Shares: engagement counters, overwritten on every upsert
Hashtags/Mentions: extracted or provided tag lists
ImportedAt: server-assigned, refreshed on every upsert
*/
type Post struct {
	Id          string    `gorm:"primaryKey" json:"id"`
	ColumnID    string    `gorm:"index" json:"columnId"`
	BoardID     string    `gorm:"index" json:"boardId"`
	Url         string    `gorm:"not null" json:"url"`
	Content     string    `json:"content"`
	MediaUrls   []string  `gorm:"serializer:json" json:"mediaUrls"`
	MediaType   MediaType `json:"mediaType"`
	PublishedAt time.Time `gorm:"index" json:"publishedAt"`
	Likes       int       `gorm:"default:0" json:"likes"`
	Comments    int       `gorm:"default:0" json:"comments"`
	Shares      int       `gorm:"default:0" json:"shares"`
	Hashtags    []string  `gorm:"serializer:json" json:"hashtags"`
	Mentions    []string  `gorm:"serializer:json" json:"mentions"`
	ImportedAt  time.Time `json:"importedAt"`
}
