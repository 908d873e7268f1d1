package utils

import (
	"testing"
	"time"

	"github.com/clawdlabs/rivaldeck/model"
	"github.com/stretchr/testify/require"
)

func TestCreateTempDBEnforcesForeignKeys(t *testing.T) {
	db := CreateTempDB(t)

	// The pragma rides in the DSN, so every pooled connection must report it
	// on, not just the one that opened the database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(0)

	for i := 0; i < 5; i++ {
		var enabled int
		require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
		require.Equal(t, 1, enabled)
	}

	// A post pointing at a column that does not exist must be rejected.
	err = db.Create(&model.Post{
		Id:          "instagram_orphan",
		ColumnID:    "no-such-column",
		BoardID:     "no-such-board",
		Url:         "https://instagram.com/p/orphan",
		MediaUrls:   []string{},
		MediaType:   model.MediaTypeImage,
		PublishedAt: time.Now(),
		Hashtags:    []string{},
		Mentions:    []string{},
	}).Error
	require.Error(t, err)
	require.Contains(t, err.Error(), "FOREIGN KEY")
}
